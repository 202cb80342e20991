package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrOpen = errors.New("circuit breaker is open")

// Breaker is a small three-state circuit breaker. After maxFailures
// consecutive failures it opens and rejects calls until cooldown elapses,
// then lets a single probe through; the probe's outcome closes or reopens it.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	logger      *logrus.Logger

	mutex    sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

func New(name string, maxFailures int, cooldown time.Duration, logger *logrus.Logger) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		logger:      logger,
	}
}

// Do runs fn unless the breaker is open. It returns ErrOpen when
// short-circuiting, otherwise fn's error.
func (b *Breaker) Do(fn func() error) error {
	b.mutex.Lock()
	if b.state == StateOpen {
		if time.Since(b.openedAt) < b.cooldown {
			b.mutex.Unlock()
			return ErrOpen
		}
		b.transition(StateHalfOpen)
	}
	b.mutex.Unlock()

	err := fn()

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if err != nil {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.openedAt = time.Now()
			b.transition(StateOpen)
		}
		return err
	}

	b.failures = 0
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
	return nil
}

func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// transition must be called with the mutex held.
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.logger.WithFields(logrus.Fields{
		"circuit_breaker": b.name,
		"from":            from.String(),
		"to":              to.String(),
		"failures":        b.failures,
	}).Info("Circuit breaker state change")
}
