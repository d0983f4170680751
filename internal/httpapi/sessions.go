package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"telemetry_map/core-go/internal/columns"
	"telemetry_map/core-go/internal/dashboard"
	"telemetry_map/core-go/internal/projection"
	"telemetry_map/core-go/internal/telemetry"
	"telemetry_map/core-go/internal/viewport"
	"telemetry_map/core-go/internal/visibleset"
)

type sessionCreated struct {
	ID    string          `json:"id"`
	Frame dashboard.Frame `json:"frame"`
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type filterRequest struct {
	Query string `json:"query"`
}

type sortRequest struct {
	Key        string `json:"key"`
	Descending bool   `json:"descending"`
}

type subscriptionRequest struct {
	Chain string `json:"chain"`
}

type mapResponse struct {
	Rect         viewport.MapRect    `json:"rect"`
	Markers      []projection.Marker `json:"markers"`
	Skipped      int                 `json:"skipped"`
	MarkersStale bool                `json:"markers_stale"`
	Subscribed   string              `json:"subscribed"`
	Filter       string              `json:"filter,omitempty"`
	NodeCount    int                 `json:"node_count"`
	Pass         uint64              `json:"pass"`
	RenderedAt   time.Time           `json:"rendered_at"`
}

type tableResponse struct {
	Headers   []columns.Header `json:"headers"`
	Width     int              `json:"width"`
	Rows      []columns.Row    `json:"rows"`
	Resorted  bool             `json:"resorted"`
	NodeCount int              `json:"node_count"`
	Pass      uint64           `json:"pass"`
}

type chainsResponse struct {
	Subscribed string                             `json:"subscribed"`
	Chains     visibleset.Capped[telemetry.Chain] `json:"chains"`
}

func toMapResponse(f dashboard.Frame) mapResponse {
	return mapResponse{
		Rect:         f.Rect,
		Markers:      f.Markers,
		Skipped:      f.Skipped,
		MarkersStale: f.MarkersStale,
		Subscribed:   f.Subscribed,
		Filter:       f.Filter,
		NodeCount:    f.NodeCount,
		Pass:         f.Pass,
		RenderedAt:   f.RenderedAt,
	}
}

// view resolves the {id} URL parameter. It writes the 404 itself and reports false when the
// session does not exist.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) (*dashboard.View, bool) {
	id := chi.URLParam(r, "id")
	v, err := h.sessions.Get(id)
	if err != nil {
		if errors.Is(err, dashboard.ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "session not found", map[string]any{"id": id})
			return nil, false
		}
		h.log.Error().Err(err).Str("id", id).Msg("get session failed")
		h.writeError(w, http.StatusInternalServerError, "session_error", "failed to fetch session", nil)
		return nil, false
	}
	return v, true
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	v := h.sessions.Create()
	h.writeJSON(w, http.StatusCreated, sessionCreated{ID: v.ID(), Frame: v.Frame()})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Close(id); err != nil {
		if errors.Is(err, dashboard.ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "session not found", map[string]any{"id": id})
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("close session failed")
		h.writeError(w, http.StatusInternalServerError, "session_error", "failed to close session", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validDimension(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func (h *Handler) handleSetViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if !validDimension(req.Width) || !validDimension(req.Height) {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "width and height must be non-negative", nil)
		return
	}

	v, ok := h.view(w, r)
	if !ok {
		return
	}
	v.Resize(viewport.Viewport{Width: req.Width, Height: req.Height})
	h.writeJSON(w, http.StatusOK, toMapResponse(v.Frame()))
}

func (h *Handler) handleSetContainer(w http.ResponseWriter, r *http.Request) {
	var req projection.ContainerGeometry
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	for field, val := range map[string]float64{"width": req.Width, "height": req.Height, "screen_width": req.ScreenWidth} {
		if !validDimension(val) {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "container dimensions must be non-negative", map[string]any{"field": field})
			return
		}
	}

	v, ok := h.view(w, r)
	if !ok {
		return
	}
	v.SetContainer(req)
	h.writeJSON(w, http.StatusOK, toMapResponse(v.Frame()))
}

func (h *Handler) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	v, ok := h.view(w, r)
	if !ok {
		return
	}
	v.SetFilter(req.Query)
	h.writeJSON(w, http.StatusOK, toMapResponse(v.Frame()))
}

func (h *Handler) handleSetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	v, ok := h.view(w, r)
	if !ok {
		return
	}
	if err := v.SetSort(columns.Sort{Key: strings.TrimSpace(req.Key), Descending: req.Descending}); err != nil {
		if errors.Is(err, columns.ErrUnknownColumn) {
			h.writeError(w, http.StatusBadRequest, "unknown_column", "unknown sort column", map[string]any{"key": req.Key})
			return
		}
		h.log.Error().Err(err).Str("key", req.Key).Msg("set sort failed")
		h.writeError(w, http.StatusInternalServerError, "session_error", "failed to change sort", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, toTableResponse(v.TableFrame()))
}

func (h *Handler) handleSetSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	v, ok := h.view(w, r)
	if !ok {
		return
	}
	v.Subscribe(strings.TrimSpace(req.Chain))
	h.writeJSON(w, http.StatusOK, toMapResponse(v.Frame()))
}

func toTableResponse(f dashboard.Frame) tableResponse {
	return tableResponse{
		Headers:   f.Table.Headers,
		Width:     f.Table.Width,
		Rows:      f.Table.Rows,
		Resorted:  f.Table.Resorted,
		NodeCount: f.NodeCount,
		Pass:      f.Pass,
	}
}

func (h *Handler) handleGetMap(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toMapResponse(v.Poll()))
}

func (h *Handler) handleGetTable(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toTableResponse(v.PollTable()))
}

func (h *Handler) handleGetChains(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	f := v.Poll()
	h.writeJSON(w, http.StatusOK, chainsResponse{Subscribed: f.Subscribed, Chains: f.Chains})
}
