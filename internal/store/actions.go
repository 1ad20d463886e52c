package store

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
)

var ErrScenarioNotFound = errors.New("store: scenario not found")

// Defaults for stages and zones created from the editor.
const (
	NewStageName       = "New stage"
	NewStageValue      = 1000
	NewStageConversion = 60
	NewStageShrink     = 0.6
	NewZoneName        = "New zone"
	NewZoneColor       = "#6366f1"
)

type MetaPatch struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Logo        *string `json:"logo" validate:"omitempty,max=32"`
}

type StagePatch struct {
	Name       *string           `json:"name" validate:"omitempty,min=1,max=200"`
	Mode       *models.StageMode `json:"mode" validate:"omitempty,oneof=percent absolute"`
	Value      *float64          `json:"value" validate:"omitempty,gte=0"`
	Conversion *float64          `json:"conversion" validate:"omitempty,gte=0,lte=100"`
	Benchmark  *float64          `json:"benchmark" validate:"omitempty,gte=0,lte=100"`
	ZoneID     *string           `json:"zoneId" validate:"omitempty,min=1"`
}

type ZonePatch struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=200"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

type FinancesPatch struct {
	AvgCheck *float64 `json:"avgCheck" validate:"omitempty,gte=0"`
	CPL      *float64 `json:"cpl" validate:"omitempty,gte=0"`
	CAC      *float64 `json:"cac" validate:"omitempty,gte=0"`
	LTV      *float64 `json:"ltv" validate:"omitempty,gte=0"`
}

func PatchMeta(ws *Workspace, p MetaPatch) {
	set(&ws.State.Name, p.Name)
	set(&ws.State.Description, p.Description)
	set(&ws.State.Logo, p.Logo)
}

func PatchStage(ws *Workspace, stageID string, p StagePatch) error {
	st, err := stage(ws, stageID)
	if err != nil {
		return err
	}
	if p.ZoneID != nil && zoneIndex(ws, *p.ZoneID) < 0 {
		return ErrZoneNotFound
	}
	set(&st.Name, p.Name)
	set(&st.Mode, p.Mode)
	set(&st.Value, p.Value)
	set(&st.ZoneID, p.ZoneID)
	if p.Conversion != nil {
		st.Conversion = models.Float(*p.Conversion)
	}
	if p.Benchmark != nil {
		st.Benchmark = models.Float(*p.Benchmark)
	}
	return nil
}

// AddStage appends a percent stage that keeps 60% of the previous one. An
// empty zoneID means the previous stage's zone, then the first zone.
func AddStage(ws *Workspace, zoneID, name string) (models.Stage, error) {
	stages := ws.State.Stages
	value := float64(NewStageValue)
	if n := len(stages); n > 0 {
		prev := stages[n-1]
		value = math.Round(prev.Value * NewStageShrink)
		if zoneID == "" {
			zoneID = prev.ZoneID
		}
	}
	if zoneID == "" && len(ws.State.Zones) > 0 {
		zoneID = ws.State.Zones[0].ID
	}
	if zoneID != "" && zoneIndex(ws, zoneID) < 0 {
		return models.Stage{}, ErrZoneNotFound
	}
	if name == "" {
		name = NewStageName
	}
	st := models.Stage{
		ID:              "stage-" + uuid.NewString(),
		Name:            name,
		Mode:            models.ModePercent,
		Value:           value,
		Conversion:      models.Float(NewStageConversion),
		Benchmark:       models.Float(NewStageConversion),
		ZoneID:          zoneID,
		Tasks:           []models.Task{},
		TrafficChannels: []models.TrafficChannel{},
	}
	ws.State.Stages = append(ws.State.Stages, st)
	return st, nil
}

func RemoveStage(ws *Workspace, stageID string) error {
	for i, st := range ws.State.Stages {
		if st.ID == stageID {
			ws.State.Stages = append(ws.State.Stages[:i], ws.State.Stages[i+1:]...)
			return nil
		}
	}
	return ErrStageNotFound
}

func PatchZone(ws *Workspace, zoneID string, p ZonePatch) error {
	i := zoneIndex(ws, zoneID)
	if i < 0 {
		return ErrZoneNotFound
	}
	set(&ws.State.Zones[i].Name, p.Name)
	set(&ws.State.Zones[i].Color, p.Color)
	return nil
}

func AddZone(ws *Workspace, name, color string) models.Zone {
	if name == "" {
		name = NewZoneName
	}
	if color == "" {
		color = NewZoneColor
	}
	z := models.Zone{ID: "zone-" + uuid.NewString(), Name: name, Color: color}
	ws.State.Zones = append(ws.State.Zones, z)
	return z
}

// RemoveZone drops a zone and moves its stages to the first remaining zone.
func RemoveZone(ws *Workspace, zoneID string) error {
	i := zoneIndex(ws, zoneID)
	if i < 0 {
		return ErrZoneNotFound
	}
	if len(ws.State.Zones) == 1 {
		return ErrLastZone
	}
	ws.State.Zones = append(ws.State.Zones[:i], ws.State.Zones[i+1:]...)
	fallback := ws.State.Zones[0].ID
	for j := range ws.State.Stages {
		if ws.State.Stages[j].ZoneID == zoneID {
			ws.State.Stages[j].ZoneID = fallback
		}
	}
	return nil
}

// ToggleLever flips a lever and reports whether it is now active.
func ToggleLever(ws *Workspace, leverID string) (bool, error) {
	known := false
	for _, l := range ws.State.Levers {
		if l.ID == leverID {
			known = true
			break
		}
	}
	if !known {
		return false, ErrLeverNotFound
	}
	for i, id := range ws.ActiveLevers {
		if id == leverID {
			ws.ActiveLevers = append(ws.ActiveLevers[:i], ws.ActiveLevers[i+1:]...)
			return false, nil
		}
	}
	ws.ActiveLevers = append(ws.ActiveLevers, leverID)
	return true, nil
}

func SetScenario(ws *Workspace, scenarioID string) error {
	for _, s := range ws.State.Scenarios {
		if s.ID == scenarioID {
			ws.ScenarioID = scenarioID
			return nil
		}
	}
	return ErrScenarioNotFound
}

func PatchFinances(ws *Workspace, p FinancesPatch) {
	f := &ws.State.Finances
	set(&f.AvgCheck, p.AvgCheck)
	set(&f.CPL, p.CPL)
	set(&f.CAC, p.CAC)
	set(&f.LTV, p.LTV)
}

// SetTasks replaces a stage's checklist; tasks without an id get one.
func SetTasks(ws *Workspace, stageID string, tasks []models.Task) error {
	st, err := stage(ws, stageID)
	if err != nil {
		return err
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = stageID + "-task-" + uuid.NewString()
		}
		out = append(out, t)
	}
	st.Tasks = out
	return nil
}

func SetNote(ws *Workspace, stageID, note string) error {
	st, err := stage(ws, stageID)
	if err != nil {
		return err
	}
	st.Note = note
	return nil
}

// ReplaceState swaps the funnel (preset switch or import). The active
// scenario resets to the first one and no lever stays active.
func ReplaceState(ws *Workspace, presetID string, state models.FunnelState) {
	ws.PresetID = presetID
	ws.State = state
	ws.ActiveLevers = []string{}
	ws.ScenarioID = ""
	if len(state.Scenarios) > 0 {
		ws.ScenarioID = state.Scenarios[0].ID
	}
	if state.Locale != "" {
		ws.Language = state.Locale
	}
}

func stage(ws *Workspace, id string) (*models.Stage, error) {
	for i := range ws.State.Stages {
		if ws.State.Stages[i].ID == id {
			return &ws.State.Stages[i], nil
		}
	}
	return nil, ErrStageNotFound
}

func zoneIndex(ws *Workspace, id string) int {
	for i, z := range ws.State.Zones {
		if z.ID == id {
			return i
		}
	}
	return -1
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
