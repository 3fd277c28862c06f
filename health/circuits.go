package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/taskmint/mintops/resilience"
)

// BreakerChecker reports the state of every circuit breaker in a registry.
// All breakers closed is healthy; any open or half-open circuit degrades
// the service, since calls to that provider fail fast or are on probation.
// The process itself stays up, so this checker never reports unhealthy.
type BreakerChecker struct {
	registry *resilience.Registry
}

// NewBreakerChecker creates a checker over registry.
func NewBreakerChecker(registry *resilience.Registry) *BreakerChecker {
	return &BreakerChecker{registry: registry}
}

// Name implements Checker.
func (c *BreakerChecker) Name() string {
	return "circuits"
}

// Check implements Checker.
func (c *BreakerChecker) Check(ctx context.Context) Result {
	statuses := c.registry.AllStatuses()
	if len(statuses) == 0 {
		return Healthy("no circuits registered")
	}

	details := make(map[string]any, len(statuses))
	notClosed := 0
	for name, status := range statuses {
		details[name] = map[string]any{
			"state":    status.State,
			"failures": status.Failures,
		}
		if status.State != "closed" {
			notClosed++
		}
	}

	if notClosed > 0 {
		msg := fmt.Sprintf("%d of %d circuits not closed", notClosed, len(statuses))
		return Degraded(msg).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d circuits closed", len(statuses))).WithDetails(details)
}

// CircuitsHandler returns an HTTP handler that reports every breaker's
// status as JSON, keyed by resource name.
func CircuitsHandler(registry *resilience.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(registry.AllStatuses())
	}
}

// CircuitResetHandler returns an HTTP handler that forces the breaker
// named in the "name" query parameter back to closed. It answers 404 for
// unknown breakers and 405 for anything but POST; this is an operator
// action, not an idempotent read.
func CircuitResetHandler(registry *resilience.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "name parameter is required", http.StatusBadRequest)
			return
		}

		if err := registry.Reset(name); err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, resilience.ErrUnknownBreaker) {
				code = http.StatusNotFound
			}
			http.Error(w, err.Error(), code)
			return
		}

		cb, _ := registry.Get(name)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cb.Status())
	}
}

// RegisterCircuitHandlers registers the circuit endpoints on mux:
// /health/circuits for status, /health/circuits/reset for operator reset.
func RegisterCircuitHandlers(mux *http.ServeMux, registry *resilience.Registry) {
	mux.HandleFunc("/health/circuits", CircuitsHandler(registry))
	mux.HandleFunc("/health/circuits/reset", CircuitResetHandler(registry))
}

var _ Checker = (*BreakerChecker)(nil)
