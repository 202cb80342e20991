package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/toppizza/backend/internal/orders"
	"github.com/toppizza/backend/pkg/models"
)

func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.WithError(err).Error("Health check database ping failed")
		s.respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "OK",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) GetPizzas(w http.ResponseWriter, r *http.Request) {
	pizzas, err := s.catalog.ListPizzas(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list pizzas")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch pizzas")
		return
	}
	s.respondWithJSON(w, http.StatusOK, pizzas)
}

func (s *Server) GetPizzaOfTheDay(w http.ResponseWriter, r *http.Request) {
	pizza, err := s.catalog.PizzaOfTheDay(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to pick pizza of the day")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch pizza of the day")
		return
	}
	s.respondWithJSON(w, http.StatusOK, pizza)
}

func (s *Server) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WithError(err).Error("Failed to decode order request")
		s.respondWithError(w, http.StatusBadRequest, "Invalid order data")
		return
	}

	userID := r.Header.Get(userIDHeader)

	response, err := s.orders.CreateOrder(r.Context(), userID, req.Cart)
	if err != nil {
		if errors.Is(err, orders.ErrInvalidCart) {
			s.respondWithError(w, http.StatusBadRequest, "Invalid order data")
			return
		}
		s.logger.WithError(err).Error("Failed to create order")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": response.OrderID,
		"user_id":  response.UserID,
	}).Info("Order created")

	s.respondWithJSON(w, http.StatusOK, response)
}

func (s *Server) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		s.respondWithError(w, http.StatusBadRequest, "User ID required")
		return
	}

	summaries, err := s.orders.ListOrders(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch orders")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	s.respondWithJSON(w, http.StatusOK, summaries)
}

func (s *Server) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		s.respondWithError(w, http.StatusBadRequest, "User ID required")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		s.respondWithError(w, http.StatusBadRequest, "Order ID required")
		return
	}

	s.writeOrderDetail(w, r, userID, id)
}

func (s *Server) GetPastOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		s.respondWithError(w, http.StatusBadRequest, "User ID required")
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	summaries, err := s.orders.ListPastOrders(r.Context(), userID, page)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch past orders")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch past orders")
		return
	}

	s.respondWithJSON(w, http.StatusOK, summaries)
}

func (s *Server) GetPastOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		s.respondWithError(w, http.StatusBadRequest, "User ID required")
		return
	}

	s.writeOrderDetail(w, r, userID, mux.Vars(r)["order_id"])
}

// writeOrderDetail serves both order-detail routes. A missing order and an
// order owned by someone else are deliberately the same 404.
func (s *Server) writeOrderDetail(w http.ResponseWriter, r *http.Request, userID, rawID string) {
	orderID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Order ID required")
		return
	}

	detail, err := s.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Order not found or unauthorized")
			return
		}
		s.logger.WithError(err).Error("Failed to fetch order details")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch order details")
		return
	}

	s.respondWithJSON(w, http.StatusOK, detail)
}

// ContactForm logs the submission; nothing is persisted.
func (s *Server) ContactForm(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if req.Name == "" || req.Email == "" || req.Message == "" {
		s.respondWithError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"name":    req.Name,
		"email":   req.Email,
		"message": req.Message,
	}).Info("Contact form submission")

	s.respondWithJSON(w, http.StatusOK, map[string]string{"success": "Message received"})
}
