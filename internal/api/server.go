package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/toppizza/backend/internal/catalog"
	"github.com/toppizza/backend/internal/orders"
	"github.com/toppizza/backend/internal/ws"
)

const userIDHeader = "X-User-ID"

// Server wires the HTTP surface to the order engine and catalog reader.
type Server struct {
	db      *sql.DB
	orders  *orders.Service
	catalog *catalog.Store
	hub     *ws.Hub
	logger  *logrus.Logger
}

// New creates the HTTP server. hub may be nil; the /ws route is only
// registered when a hub is present.
func New(db *sql.DB, orderService *orders.Service, catalogStore *catalog.Store, hub *ws.Hub, logger *logrus.Logger) *Server {
	return &Server{
		db:      db,
		orders:  orderService,
		catalog: catalogStore,
		hub:     hub,
		logger:  logger,
	}
}

// Router builds the full handler chain. CORS wraps the mux from the outside
// so OPTIONS preflights short-circuit even when no route method matches.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api/health", s.HealthCheck).Methods("GET")
	router.HandleFunc("/api/pizzas", s.GetPizzas).Methods("GET")
	router.HandleFunc("/api/pizza-of-the-day", s.GetPizzaOfTheDay).Methods("GET")
	router.HandleFunc("/api/order", s.CreateOrder).Methods("POST")
	router.HandleFunc("/api/order", s.GetOrder).Methods("GET")
	router.HandleFunc("/api/orders", s.GetOrders).Methods("GET")
	router.HandleFunc("/api/past-orders", s.GetPastOrders).Methods("GET")
	router.HandleFunc("/api/past-order/{order_id}", s.GetPastOrder).Methods("GET")
	router.HandleFunc("/api/contact", s.ContactForm).Methods("POST")
	if s.hub != nil {
		router.HandleFunc("/ws", s.hub.HandleWebSocket)
	}

	router.Use(loggingMiddleware(s.logger))

	return corsMiddleware(router)
}

// corsMiddleware mirrors the storefront's expectations: wide-open CORS and
// short-circuited preflights.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rw.status,
				"duration": time.Since(start).Milliseconds(),
				"remote":   r.RemoteAddr,
			}).Info("Request completed")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}
