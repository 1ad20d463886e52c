package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/AngelCh415/FUNNEL_GO/internal/compare"
	"github.com/AngelCh415/FUNNEL_GO/internal/metrics"
	"github.com/AngelCh415/FUNNEL_GO/internal/presets"
	"github.com/AngelCh415/FUNNEL_GO/internal/store"
	"github.com/AngelCh415/FUNNEL_GO/internal/telemetry"
	"github.com/AngelCh415/FUNNEL_GO/internal/utils"
)

const maxBody = 4 << 20

type Deps struct {
	Log           zerolog.Logger
	Store         store.Store
	Presets       *presets.Library
	Metrics       *metrics.Service
	Compare       *compare.Service
	Telemetry     *telemetry.Metrics
	DefaultLocale string
	Now           func() time.Time
}

type handler struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Telemetry == nil {
		d.Telemetry = telemetry.NewMetrics()
	}
	h := &handler{Deps: d}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log, d.Telemetry))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", h.ready)
	mux.Method(http.MethodGet, "/metrics", d.Telemetry.Handler())

	mux.Get("/presets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Presets.List())
	})

	mux.Post("/compare", h.compare)

	mux.Route("/workspaces", func(r chi.Router) {
		r.Post("/", h.createWorkspace)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getWorkspace)
			r.Delete("/", h.deleteWorkspace)
			r.Get("/export", h.export)
			r.Get("/metrics", h.metrics)
			r.Get("/tasks", h.tasks)
			r.Put("/state", h.replaceState)
			r.Patch("/meta", h.patchMeta)
			r.Patch("/finances", h.patchFinances)
			r.Put("/scenario", h.setScenario)
			r.Put("/language", h.setLanguage)

			r.Post("/stages", h.addStage)
			r.Patch("/stages/{stageId}", h.patchStage)
			r.Delete("/stages/{stageId}", h.removeStage)
			r.Put("/stages/{stageId}/tasks", h.setTasks)
			r.Put("/stages/{stageId}/note", h.setNote)

			r.Post("/zones", h.addZone)
			r.Patch("/zones/{zoneId}", h.patchZone)
			r.Delete("/zones/{zoneId}", h.removeZone)

			r.Post("/levers/{leverId}/toggle", h.toggleLever)
		})
	})

	return mux
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.Count(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("store not ready")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	h.Telemetry.SetWorkspaces(n)
	w.WriteHeader(200)
	w.Write([]byte("ready"))
}

func (h *handler) compare(w http.ResponseWriter, r *http.Request) {
	var req compare.Request
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.Locale == "" {
		req.Locale = h.DefaultLocale
	}
	res, err := h.Compare.Compare(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validation() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New() })
	return validate
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return newAPIError(http.StatusBadRequest, "empty_body", errors.New("request body is empty"))
		}
		return newAPIError(http.StatusBadRequest, "invalid_json", fmt.Errorf("decode body: %w", err))
	}
	return validation().Struct(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
