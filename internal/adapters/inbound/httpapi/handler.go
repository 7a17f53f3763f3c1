// Package httpapi exposes the scanner over a small JSON HTTP surface.
//
// Routes:
//
//	GET /health                  -> liveness + version
//	GET /scan/today              -> run a scan over the current UTC day
//	GET /scan/date/{date}        -> run a scan over one UTC day (YYYY-MM-DD)
//	GET /fixtures/{id}           -> fetch one fixture (store first, then provider)
//	GET /fixtures/{id}/scan      -> evaluate one fixture through the pipeline
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/tobikemp/fhscan/internal/core/fixture"
	"github.com/tobikemp/fhscan/internal/core/scan"
	"github.com/tobikemp/fhscan/internal/telemetry"
)

const Version = "0.3.0"

// FixtureReader fetches a fixture by id. (nil, nil) means not found.
type FixtureReader interface {
	GetFixture(ctx context.Context, id int) (*fixture.Fixture, error)
}

// Handler serves scan and fixture requests.
type Handler struct {
	orch     *scan.Orchestrator
	fixtures FixtureReader
	store    scan.FixtureStore // optional read-through cache; nil skips it
}

func NewHandler(orch *scan.Orchestrator, fixtures FixtureReader) *Handler {
	return &Handler{orch: orch, fixtures: fixtures}
}

// WithStore lets fixture lookups hit local persistence before the provider.
func (h *Handler) WithStore(store scan.FixtureStore) *Handler {
	h.store = store
	return h
}

// RegisterRoutes wires HTTP routes onto the provided mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /scan/today", h.scanToday)
	mux.HandleFunc("GET /scan/date/{date}", h.scanDate)
	mux.HandleFunc("GET /fixtures/{id}", h.getFixture)
	mux.HandleFunc("GET /fixtures/{id}/scan", h.scanFixture)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

func (h *Handler) scanToday(w http.ResponseWriter, r *http.Request) {
	report, err := h.orch.ScanToday(r.Context())
	if err != nil {
		h.scanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) scanDate(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse("2006-01-02", r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	report, err := h.orch.ScanDate(r.Context(), day.UTC())
	if err != nil {
		h.scanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) getFixture(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookupFixture(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) scanFixture(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookupFixture(w, r)
	if !ok {
		return
	}

	res, skip := h.orch.ScanFixture(r.Context(), f)
	switch {
	case res != nil:
		writeJSON(w, http.StatusOK, map[string]any{"result": res})
	case skip != nil:
		writeJSON(w, http.StatusOK, map[string]any{"skip": skip})
	default: // cancelled mid-flight
		writeError(w, http.StatusInternalServerError, "scan cancelled")
	}
}

// lookupFixture resolves {id} against the store, then the provider. Writes
// the error response itself and returns ok=false on failure.
func (h *Handler) lookupFixture(w http.ResponseWriter, r *http.Request) (*fixture.Fixture, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "fixture id must be a positive integer")
		return nil, false
	}

	if h.store != nil {
		if f, err := h.store.GetFixture(id); err == nil && f != nil {
			return f, true
		}
	}

	f, err := h.fixtures.GetFixture(r.Context(), id)
	if err != nil {
		telemetry.Warnf("httpapi: fixture %d lookup: %v", id, err)
		writeError(w, http.StatusInternalServerError, "fixture provider unavailable")
		return nil, false
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "fixture not found")
		return nil, false
	}
	return f, true
}

func (h *Handler) scanError(w http.ResponseWriter, err error) {
	telemetry.Errorf("httpapi: scan failed: %v", err)
	writeError(w, http.StatusInternalServerError, "scan failed: "+err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		telemetry.Warnf("httpapi: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
