package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chatcleaner/chat-cleaner/internal/domain/intercept"
	"github.com/chatcleaner/chat-cleaner/internal/domain/journal"
	"github.com/chatcleaner/chat-cleaner/internal/service"
	"github.com/chatcleaner/chat-cleaner/pkg/bridge"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 1000
)

// Deps are the services the bridge dispatches to. Journal and Stats may be nil.
type Deps struct {
	Filter   *service.FilterService
	Events   *intercept.EventAdapter
	Messages *intercept.MessageAdapter
	Journal  *service.JournalService
	Stats    *service.StatsService
}

// StatsResponse is the body of GET /admin/stats.
type StatsResponse struct {
	Generation   uint64                 `json:"generation"`
	Lists        map[string]int         `json:"lists"`
	DebugMode    bool                   `json:"debug_mode"`
	LastReload   *bridge.ReloadResponse `json:"last_reload,omitempty"`
	Decisions    *service.Stats         `json:"decisions,omitempty"`
	JournalDrops int64                  `json:"journal_drops"`
}

// JournalResponse is the body of GET /admin/journal.
type JournalResponse struct {
	Records []journal.Record `json:"records"`
}

// handlers serves the bridge routes.
type handlers struct {
	deps    Deps
	metrics *Metrics
	tracer  trace.Tracer
}

// handleEvent serves POST /v1/events.
func (h *handlers) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req bridge.EventRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx, span := h.tracer.Start(r.Context(), "bridge.event",
		trace.WithAttributes(attribute.String("chatcleaner.event", req.Name)))
	defer span.End()

	var ev intercept.GameEvent
	if req.Name != "" {
		ev = intercept.NamedEvent(req.Name)
	}
	res, ret := h.deps.Events.FireEvent(ctx, ev, req.DontBroadcast)
	span.SetAttributes(attribute.String("chatcleaner.decision", res.Decision.String()))

	h.observe(res)
	writeJSON(w, http.StatusOK, h.decisionResponse(r, res, ret))
}

// handleMessage serves POST /v1/messages.
func (h *handlers) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req bridge.MessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "bridge.message",
		trace.WithAttributes(attribute.String("chatcleaner.message_type", req.Type)))
	defer span.End()

	msg := &intercept.NetMessage{TypeName: req.Type, Payload: intercept.TextPayload(req.Debug)}
	res := h.deps.Messages.PostEvent(ctx, toRouting(req.Routing), msg)
	span.SetAttributes(
		attribute.String("chatcleaner.channel", string(res.Channel)),
		attribute.String("chatcleaner.decision", res.Decision.String()),
	)

	h.observe(res)
	writeJSON(w, http.StatusOK, h.decisionResponse(r, res, !res.Superseded()))
}

// handleReload serves POST /admin/reload.
func (h *handlers) handleReload(w http.ResponseWriter, r *http.Request) {
	report := h.deps.Filter.Reload(r.Context(), service.TriggerAdmin)
	writeJSON(w, http.StatusOK, toReloadResponse(report))
}

// handleStats serves GET /admin/stats.
func (h *handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := h.deps.Filter.Snapshot()
	resp := StatsResponse{
		Generation: snap.Generation,
		Lists:      make(map[string]int, 3),
		DebugMode:  h.deps.Filter.DebugMode(),
	}
	for kind, n := range snap.Counts() {
		resp.Lists[kind.String()] = n
	}
	if last, ok := h.deps.Filter.LastReload(); ok {
		rr := toReloadResponse(last)
		resp.LastReload = &rr
	}
	if h.deps.Stats != nil {
		st := h.deps.Stats.GetStats()
		resp.Decisions = &st
	}
	if h.deps.Journal != nil {
		resp.JournalDrops = h.deps.Journal.DroppedRecords()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleJournal serves GET /admin/journal?limit=N.
func (h *handlers) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	records := []journal.Record{}
	if h.deps.Journal != nil {
		if recent := h.deps.Journal.Recent(limit); recent != nil {
			records = recent
		}
	}
	writeJSON(w, http.StatusOK, JournalResponse{Records: records})
}

// decode reads a JSON body into v. It writes the error response itself and
// returns false on failure.
func (h *handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.recordError()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		LoggerFromContext(r.Context()).Debug("malformed bridge request", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func (h *handlers) observe(res intercept.Result) {
	if h.metrics != nil {
		h.metrics.ObserveDecision(res)
	}
	if h.deps.Stats != nil {
		h.deps.Stats.RecordDecision(res)
	}
}

func (h *handlers) recordError() {
	if h.deps.Stats != nil {
		h.deps.Stats.RecordError()
	}
}

func (h *handlers) decisionResponse(r *http.Request, res intercept.Result, ret bool) bridge.DecisionResponse {
	return bridge.DecisionResponse{
		Decision:   bridge.Decision(res.Decision),
		Result:     ret,
		Channel:    string(res.Channel),
		Matched:    res.Matched,
		Generation: h.deps.Filter.Generation(),
		RequestID:  RequestIDFromContext(r.Context()),
	}
}

func toRouting(r *bridge.Routing) intercept.Routing {
	if r == nil {
		return intercept.Routing{}
	}
	return intercept.Routing{
		Slot:        r.Slot,
		LocalOnly:   r.LocalOnly,
		ClientCount: r.ClientCount,
		Clients:     r.Clients,
		Size:        r.Size,
		BufType:     r.BufType,
	}
}

func toReloadResponse(report service.ReloadReport) bridge.ReloadResponse {
	counts := make(map[string]int, len(report.Counts))
	for kind, n := range report.Counts {
		counts[kind.String()] = n
	}
	return bridge.ReloadResponse{
		Trigger:    report.Trigger,
		Generation: report.Generation,
		Counts:     counts,
		DebugMode:  report.DebugMode,
		Failed:     report.Failed,
		DurationMs: float64(report.Duration.Microseconds()) / 1000,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, bridge.ErrorResponse{
		Error:     msg,
		RequestID: RequestIDFromContext(r.Context()),
	})
}
