package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/chatcleaner/chat-cleaner/internal/service"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// HealthChecker verifies component health.
type HealthChecker struct {
	filter  *service.FilterService
	journal *service.JournalService
	version string
}

// NewHealthChecker creates a HealthChecker with optional components.
// Pass nil for components that aren't available.
func NewHealthChecker(filter *service.FilterService, journal *service.JournalService, version string) *HealthChecker {
	return &HealthChecker{
		filter:  filter,
		journal: journal,
		version: version,
	}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.filter != nil {
		gen := h.filter.Generation()
		if gen == 0 {
			// Lists have not been loaded yet.
			checks["blocklists"] = "not loaded"
			healthy = false
		} else {
			checks["blocklists"] = fmt.Sprintf("ok: generation %d", gen)
		}
		if last, ok := h.filter.LastReload(); ok && len(last.Failed) > 0 {
			checks["blocklists_missing"] = fmt.Sprintf("%v", last.Failed)
		}
	} else {
		checks["blocklists"] = "not configured"
	}

	if h.journal != nil {
		depth := h.journal.ChannelDepth()
		capacity := h.journal.ChannelCapacity()
		percentFull := 0
		if capacity > 0 {
			percentFull = depth * 100 / capacity
		}

		if percentFull > 90 {
			// >90% full is unhealthy - system is under backpressure
			checks["journal"] = fmt.Sprintf("degraded: %d/%d (%d%%)", depth, capacity, percentFull)
			healthy = false
		} else {
			checks["journal"] = fmt.Sprintf("ok: %d/%d (%d%%)", depth, capacity, percentFull)
		}

		if drops := h.journal.DroppedRecords(); drops > 0 {
			checks["journal_drops"] = fmt.Sprintf("%d dropped", drops)
		}
	} else {
		checks["journal"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}
