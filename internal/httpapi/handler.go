package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"telemetry_map/core-go/internal/columns"
	"telemetry_map/core-go/internal/dashboard"
	"telemetry_map/core-go/internal/db"
	"telemetry_map/core-go/internal/metrics"
	"telemetry_map/core-go/internal/settings"
	"telemetry_map/core-go/internal/telemetry"
	"telemetry_map/core-go/internal/throttle"
)

// Deps are the collaborators of the HTTP layer. Nil fields are replaced with in-memory
// defaults by NewHandler.
type Deps struct {
	Pool     *db.Pool
	Store    *telemetry.Store
	Sessions *dashboard.Manager
	Settings *settings.Service
	Metrics  *metrics.Metrics
}

type Handler struct {
	log      zerolog.Logger
	pool     *db.Pool
	store    *telemetry.Store
	sessions *dashboard.Manager
	settings *settings.Service
	metrics  *metrics.Metrics
}

func NewHandler(log zerolog.Logger, deps Deps) *Handler {
	h := &Handler{
		log:      log,
		pool:     deps.Pool,
		store:    deps.Store,
		sessions: deps.Sessions,
		settings: deps.Settings,
		metrics:  deps.Metrics,
	}
	if h.store == nil {
		h.store = telemetry.NewStore()
	}
	if h.settings == nil {
		h.settings = settings.NewService(context.Background(), log, settings.NewMemoryStore())
	}
	if h.sessions == nil {
		h.sessions = dashboard.NewManager(dashboard.Deps{
			Log:      log,
			Store:    h.store,
			Settings: h.settings,
			Metrics:  h.metrics,
			Clock:    throttle.SystemClock(),
		}, dashboard.DefaultOptions())
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Post("/feed", h.handleFeed)

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", h.handleGetSettings)
				r.Put("/", h.handleUpdateSettings)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", h.handleCreateSession)
				r.Route("/{id}", func(r chi.Router) {
					r.Delete("/", h.handleDeleteSession)

					r.Put("/viewport", h.handleSetViewport)
					r.Put("/container", h.handleSetContainer)
					r.Put("/filter", h.handleSetFilter)
					r.Put("/sort", h.handleSetSort)
					r.Put("/subscription", h.handleSetSubscription)

					r.Get("/map", h.handleGetMap)
					r.Get("/table", h.handleGetTable)
					r.Get("/chains", h.handleGetChains)
				})
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		h.metrics.ObserveHTTPRequest(r.Method, routePattern(r), ww.Status(), elapsed)
		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("http_request")
	})
}

// routePattern keeps metric labels bounded: session ids are collapsed into the route pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleReadyZ reports ready without a database; settings then live in memory.
func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.pool == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"ready": true, "settings_store": "memory"})
		return
	}

	if err := h.pool.Ping(ctx); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not ready", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true, "settings_store": "postgres"})
}

type feedAccepted struct {
	GenesisHash string `json:"genesis_hash"`
	Upserted    int    `json:"upserted"`
	Removed     int    `json:"removed"`
	Version     uint64 `json:"version"`
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	var req telemetry.Feed
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	req.GenesisHash = strings.TrimSpace(req.GenesisHash)
	if req.GenesisHash == "" {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "genesis_hash is required", nil)
		return
	}
	for i, n := range req.Upserts {
		if strings.TrimSpace(n.ID) == "" {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "every upserted node needs an id", map[string]any{"index": i})
			return
		}
		if !n.CoordinatesInRange() {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "lat must be within [-90, 90] and lon within [-180, 180]", map[string]any{"index": i})
			return
		}
	}

	h.store.Apply(req)
	h.metrics.IncFeedBatch()

	h.writeJSON(w, http.StatusAccepted, feedAccepted{
		GenesisHash: req.GenesisHash,
		Upserted:    len(req.Upserts),
		Removed:     len(req.Removed),
		Version:     h.store.Version(),
	})
}

type columnInfo struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Setting string `json:"setting,omitempty"`
	Width   int    `json:"width"`
	Visible bool   `json:"visible"`
}

type settingsResponse struct {
	Settings settings.Settings `json:"settings"`
	Columns  []columnInfo      `json:"columns"`
}

func (h *Handler) settingsResponse(s settings.Settings) settingsResponse {
	all := columns.All()
	out := settingsResponse{Settings: s, Columns: make([]columnInfo, 0, len(all))}
	for _, d := range all {
		out.Columns = append(out.Columns, columnInfo{
			Key:     d.Key,
			Label:   d.Label,
			Setting: d.Setting,
			Width:   d.Width,
			Visible: d.Setting == "" || s[d.Setting],
		})
	}
	return out
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.settingsResponse(h.settings.Current()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]bool
	if err := decodeJSONStrict(r, &patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	next, err := h.settings.Update(r.Context(), patch)
	if err != nil {
		if errors.Is(err, settings.ErrUnknownSetting) {
			h.writeError(w, http.StatusBadRequest, "unknown_setting", "unknown column setting", map[string]any{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("update settings failed")
		h.writeError(w, http.StatusInternalServerError, "settings_error", "failed to save settings", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, h.settingsResponse(next))
}
