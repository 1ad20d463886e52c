package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
)

var (
	ErrNotFound      = errors.New("store: workspace not found")
	ErrStageNotFound = errors.New("store: stage not found")
	ErrZoneNotFound  = errors.New("store: zone not found")
	ErrLeverNotFound = errors.New("store: lever not found")
	ErrLastZone      = errors.New("store: a funnel needs at least one zone")
)

// Workspace is one editing session: a funnel plus the user's selections.
type Workspace struct {
	ID           string             `json:"id"`
	PresetID     string             `json:"presetId"`
	ScenarioID   string             `json:"scenarioId"`
	Language     string             `json:"language"`
	State        models.FunnelState `json:"state"`
	ActiveLevers []string           `json:"activeLevers"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// Store keeps workspaces. Update runs fn on a private copy and persists it
// only when fn returns nil.
type Store interface {
	Create(ctx context.Context, ws Workspace) (Workspace, error)
	Get(ctx context.Context, id string) (Workspace, error)
	Update(ctx context.Context, id string, fn func(*Workspace) error) (Workspace, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

func clone(ws Workspace) (Workspace, error) {
	b, err := json.Marshal(ws)
	if err != nil {
		return Workspace{}, err
	}
	var out Workspace
	if err := json.Unmarshal(b, &out); err != nil {
		return Workspace{}, err
	}
	return out, nil
}
