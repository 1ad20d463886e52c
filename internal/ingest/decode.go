package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
)

var (
	// ErrSyntax means the payload is not JSON at all.
	ErrSyntax = errors.New("ingest: payload is not valid JSON")
	// ErrStructure means the JSON has the wrong shape (root not an object,
	// a collection that is not an array). Numeric problems never produce it.
	ErrStructure = errors.New("ingest: malformed funnel structure")
)

var collectionFields = []string{"stages", "zones", "levers", "scenarios", "trafficChannels", "stakeholders"}

// Decode parses and normalizes a raw funnel definition.
func Decode(data []byte, zonesFallback []models.Zone) (models.FunnelState, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.FunnelState{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if err := CheckStructure(raw); err != nil {
		return models.FunnelState{}, err
	}
	return Normalize(raw, zonesFallback), nil
}

// CheckStructure reports collections that are present but not arrays.
func CheckStructure(raw any) error {
	in, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: root must be an object", ErrStructure)
	}
	for _, f := range collectionFields {
		if err := arrayOrAbsent(in, f); err != nil {
			return err
		}
	}
	for i, s := range list(in["stages"]) {
		sm, ok := s.(map[string]any)
		if !ok {
			if s == nil {
				continue
			}
			return fmt.Errorf("%w: stages[%d] must be an object", ErrStructure, i)
		}
		for _, f := range []string{"tasks", "trafficChannels"} {
			if err := arrayOrAbsent(sm, f); err != nil {
				return fmt.Errorf("stages[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func arrayOrAbsent(m map[string]any, field string) error {
	v, ok := m[field]
	if !ok || v == nil {
		return nil
	}
	if _, ok := v.([]any); !ok {
		return fmt.Errorf("%w: %s must be an array", ErrStructure, field)
	}
	return nil
}

// Renormalize pushes an already typed state back through the normalizer,
// e.g. after a hand-built edit.
func Renormalize(s models.FunnelState, zonesFallback []models.Zone) models.FunnelState {
	b, err := json.Marshal(s)
	if err != nil {
		return Normalize(nil, zonesFallback)
	}
	var raw any
	_ = json.Unmarshal(b, &raw)
	return Normalize(raw, zonesFallback)
}

// Payload is the export/import envelope of a workspace.
type Payload struct {
	PresetID     string             `json:"presetId"`
	ScenarioID   string             `json:"scenarioId"`
	Language     string             `json:"language"`
	State        models.FunnelState `json:"state"`
	ActiveLevers []string           `json:"activeLevers"`
	Timestamp    string             `json:"timestamp"`
}

// Export builds the envelope; ts is supplied by the caller.
func Export(presetID, scenarioID, language string, state models.FunnelState, activeLevers []string, ts time.Time) Payload {
	levers := append([]string{}, activeLevers...)
	return Payload{
		PresetID:     presetID,
		ScenarioID:   scenarioID,
		Language:     language,
		State:        state,
		ActiveLevers: levers,
		Timestamp:    ts.UTC().Format(time.RFC3339),
	}
}

// ParseImport decodes an envelope produced by Export (or by hand). The state
// is normalized; a missing scenario id selects the first scenario.
func ParseImport(data []byte, zonesFallback []models.Zone) (Payload, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	in, ok := raw.(map[string]any)
	if !ok {
		return Payload{}, fmt.Errorf("%w: root must be an object", ErrStructure)
	}
	st, ok := in["state"]
	if !ok || st == nil {
		return Payload{}, fmt.Errorf("%w: state is required", ErrStructure)
	}
	if err := CheckStructure(st); err != nil {
		return Payload{}, err
	}
	state := Normalize(st, zonesFallback)
	p := Payload{
		PresetID:     str(in, "presetId", ""),
		ScenarioID:   str(in, "scenarioId", ""),
		Language:     str(in, "language", ""),
		State:        state,
		ActiveLevers: strs(in["activeLevers"]),
		Timestamp:    str(in, "timestamp", ""),
	}
	if p.ScenarioID == "" && len(state.Scenarios) > 0 {
		p.ScenarioID = state.Scenarios[0].ID
	}
	if p.Language == "" {
		p.Language = state.Locale
	}
	return p, nil
}

// TaskRow is one task flattened with its stage.
type TaskRow struct {
	StageID   string `json:"stageId"`
	StageName string `json:"stageName"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
}

// FlattenTasks lists every task in funnel order.
func FlattenTasks(s models.FunnelState) []TaskRow {
	out := []TaskRow{}
	for _, st := range s.Stages {
		for _, t := range st.Tasks {
			out = append(out, TaskRow{StageID: st.ID, StageName: st.Name, Text: t.Text, Done: t.Done})
		}
	}
	return out
}
