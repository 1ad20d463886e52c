package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/AngelCh415/FUNNEL_GO/internal/compare"
	"github.com/AngelCh415/FUNNEL_GO/internal/ingest"
	"github.com/AngelCh415/FUNNEL_GO/internal/store"
)

type apiError struct {
	Status int
	Code   string
	Err    error
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *apiError) Unwrap() error { return e.Err }

func newAPIError(status int, code string, err error) *apiError {
	return &apiError{Status: status, Code: code, Err: err}
}

var errorTable = []struct {
	target error
	status int
	code   string
}{
	{store.ErrNotFound, http.StatusNotFound, "workspace_not_found"},
	{store.ErrStageNotFound, http.StatusNotFound, "stage_not_found"},
	{store.ErrZoneNotFound, http.StatusNotFound, "zone_not_found"},
	{store.ErrLeverNotFound, http.StatusNotFound, "lever_not_found"},
	{store.ErrScenarioNotFound, http.StatusNotFound, "scenario_not_found"},
	{store.ErrLastZone, http.StatusConflict, "last_zone"},
	{compare.ErrUnknownPreset, http.StatusNotFound, "preset_not_found"},
	{compare.ErrSide, http.StatusBadRequest, "invalid_side"},
	{ingest.ErrSyntax, http.StatusBadRequest, "invalid_json"},
	{ingest.ErrStructure, http.StatusUnprocessableEntity, "invalid_structure"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "timeout"},
	{context.Canceled, http.StatusServiceUnavailable, "canceled"},
}

func toAPIError(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", err)
	}
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			return newAPIError(e.status, e.code, err)
		}
	}
	return newAPIError(http.StatusInternalServerError, "internal", err)
}

// fail writes {"error": code, "message": ...}. Internal errors are logged
// and their message is not exposed.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	ae := toAPIError(err)
	msg := ae.Error()
	if ae.Status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("code", ae.Code).Msg("request failed")
		if ae.Status == http.StatusInternalServerError {
			msg = http.StatusText(ae.Status)
		}
	}
	writeJSON(w, ae.Status, map[string]string{"error": ae.Code, "message": msg})
}
