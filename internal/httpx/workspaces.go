package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AngelCh415/FUNNEL_GO/internal/ingest"
	"github.com/AngelCh415/FUNNEL_GO/internal/metrics"
	"github.com/AngelCh415/FUNNEL_GO/internal/models"
	"github.com/AngelCh415/FUNNEL_GO/internal/presets"
	"github.com/AngelCh415/FUNNEL_GO/internal/store"
)

type scenarioBody struct {
	ScenarioID string `json:"scenarioId" validate:"required"`
}

type languageBody struct {
	Language string `json:"language" validate:"required,oneof=ru en de zh"`
}

type newStageBody struct {
	ZoneID string `json:"zoneId"`
	Name   string `json:"name" validate:"max=200"`
}

type newZoneBody struct {
	Name  string `json:"name" validate:"max=200"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type tasksBody struct {
	Tasks []models.Task `json:"tasks" validate:"dive"`
}

type noteBody struct {
	Note string `json:"note" validate:"max=10000"`
}

// sourceBody is either {"presetId": ...} or an export payload with a state.
type sourceBody struct {
	PresetID string          `json:"presetId"`
	State    json.RawMessage `json:"state"`
}

// fromSource builds a workspace from a preset id (blank when empty) or an
// import payload.
func (h *handler) fromSource(r *http.Request) (store.Workspace, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return store.Workspace{}, newAPIError(http.StatusBadRequest, "invalid_body", err)
	}
	var src sourceBody
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &src); err != nil {
			return store.Workspace{}, fmt.Errorf("%w: %v", ingest.ErrSyntax, err)
		}
	}

	ws := store.Workspace{Language: h.DefaultLocale, ActiveLevers: []string{}}
	if len(src.State) > 0 && string(src.State) != "null" {
		p, err := ingest.ParseImport(raw, presets.DefaultZones())
		if err != nil {
			return store.Workspace{}, err
		}
		store.ReplaceState(&ws, firstNonEmpty(p.PresetID, p.State.ID), p.State)
		if p.ScenarioID != "" {
			ws.ScenarioID = p.ScenarioID
		}
		if metrics.SupportedLocale(p.Language) {
			ws.Language = p.Language
		}
		ws.ActiveLevers = append(ws.ActiveLevers, p.ActiveLevers...)
	} else {
		id := firstNonEmpty(src.PresetID, presets.BlankID)
		state, ok := h.Presets.Get(id)
		if !ok {
			if src.PresetID != "" {
				return store.Workspace{}, newAPIError(http.StatusNotFound, "preset_not_found", fmt.Errorf("unknown preset %q", id))
			}
			state = h.Presets.Blank()
		}
		store.ReplaceState(&ws, id, state)
	}
	if !metrics.SupportedLocale(ws.Language) {
		ws.Language = h.DefaultLocale
	}
	return ws, nil
}

func (h *handler) createWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.fromSource(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ws, err = h.Store.Create(r.Context(), ws)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.countWorkspaces(r)
	writeJSON(w, http.StatusCreated, ws)
}

func (h *handler) replaceState(w http.ResponseWriter, r *http.Request) {
	next, err := h.fromSource(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.mutate(w, r, func(ws *store.Workspace) error {
		ws.PresetID, ws.ScenarioID, ws.Language = next.PresetID, next.ScenarioID, next.Language
		ws.State, ws.ActiveLevers = next.State, next.ActiveLevers
		return nil
	})
}

func (h *handler) getWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *handler) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	h.countWorkspaces(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	p := ingest.Export(ws.PresetID, ws.ScenarioID, ws.Language, ws.State, ws.ActiveLevers, h.Now())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", firstNonEmpty(ws.PresetID, "funnel")+"-funnel.json"))
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) metrics(w http.ResponseWriter, r *http.Request) {
	res, err := h.Metrics.Workspace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) tasks(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ingest.FlattenTasks(ws.State))
}

func (h *handler) patchMeta(w http.ResponseWriter, r *http.Request) {
	var p store.MetaPatch
	if err := decode(r, &p); err != nil {
		fail(w, r, err)
		return
	}
	h.mutate(w, r, func(ws *store.Workspace) error { store.PatchMeta(ws, p); return nil })
}

func (h *handler) patchFinances(w http.ResponseWriter, r *http.Request) {
	var p store.FinancesPatch
	if err := decode(r, &p); err != nil {
		fail(w, r, err)
		return
	}
	h.mutate(w, r, func(ws *store.Workspace) error { store.PatchFinances(ws, p); return nil })
}

func (h *handler) setScenario(w http.ResponseWriter, r *http.Request) {
	var b scenarioBody
	if err := decode(r, &b); err != nil {
		fail(w, r, err)
		return
	}
	h.mutate(w, r, func(ws *store.Workspace) error { return store.SetScenario(ws, b.ScenarioID) })
}

func (h *handler) setLanguage(w http.ResponseWriter, r *http.Request) {
	var b languageBody
	if err := decode(r, &b); err != nil {
		fail(w, r, err)
		return
	}
	h.mutate(w, r, func(ws *store.Workspace) error { ws.Language = b.Language; return nil })
}

func (h *handler) addStage(w http.ResponseWriter, r *http.Request) {
	var b newStageBody
	if err := decode(r, &b); err != nil {
		fail(w, r, err)
		return
	}
	h.mutateStatus(w, r, http.StatusCreated, func(ws *store.Workspace) error {
		_, err := store.AddStage(ws, b.ZoneID, b.Name)
		return err
	})
}

func (h *handler) patchStage(w http.ResponseWriter, r *http.Request) {
	var p store.StagePatch
	if err := decode(r, &p); err != nil {
		fail(w, r, err)
		return
	}
	stageID := chi.URLParam(r, "stageId")
	h.mutate(w, r, func(ws *store.Workspace) error { return store.PatchStage(ws, stageID, p) })
}

func (h *handler) removeStage(w http.ResponseWriter, r *http.Request) {
	stageID := chi.URLParam(r, "stageId")
	h.mutate(w, r, func(ws *store.Workspace) error { return store.RemoveStage(ws, stageID) })
}

func (h *handler) setTasks(w http.ResponseWriter, r *http.Request) {
	var b tasksBody
	if err := decode(r, &b); err != nil {
		fail(w, r, err)
		return
	}
	stageID := chi.URLParam(r, "stageId")
	h.mutate(w, r, func(ws *store.Workspace) error { return store.SetTasks(ws, stageID, b.Tasks) })
}

func (h *handler) setNote(w http.ResponseWriter, r *http.Request) {
	var b noteBody
	if err := decode(r, &b); err != nil {
		fail(w, r, err)
		return
	}
	stageID := chi.URLParam(r, "stageId")
	h.mutate(w, r, func(ws *store.Workspace) error { return store.SetNote(ws, stageID, b.Note) })
}

func (h *handler) addZone(w http.ResponseWriter, r *http.Request) {
	var b newZoneBody
	if err := decode(r, &b); err != nil {
		fail(w, r, err)
		return
	}
	h.mutateStatus(w, r, http.StatusCreated, func(ws *store.Workspace) error {
		store.AddZone(ws, b.Name, b.Color)
		return nil
	})
}

func (h *handler) patchZone(w http.ResponseWriter, r *http.Request) {
	var p store.ZonePatch
	if err := decode(r, &p); err != nil {
		fail(w, r, err)
		return
	}
	zoneID := chi.URLParam(r, "zoneId")
	h.mutate(w, r, func(ws *store.Workspace) error { return store.PatchZone(ws, zoneID, p) })
}

func (h *handler) removeZone(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneId")
	h.mutate(w, r, func(ws *store.Workspace) error { return store.RemoveZone(ws, zoneID) })
}

func (h *handler) toggleLever(w http.ResponseWriter, r *http.Request) {
	leverID := chi.URLParam(r, "leverId")
	var active bool
	ws, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), func(ws *store.Workspace) error {
		var err error
		active, err = store.ToggleLever(ws, leverID)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leverId": leverID, "active": active, "activeLevers": ws.ActiveLevers})
}

func (h *handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*store.Workspace) error) {
	h.mutateStatus(w, r, http.StatusOK, fn)
}

func (h *handler) mutateStatus(w http.ResponseWriter, r *http.Request, status int, fn func(*store.Workspace) error) {
	ws, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), fn)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, status, ws)
}

func (h *handler) countWorkspaces(r *http.Request) {
	if n, err := h.Store.Count(r.Context()); err == nil {
		h.Telemetry.SetWorkspaces(n)
	}
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}
