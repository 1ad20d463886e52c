package presets

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/FUNNEL_GO/internal/ingest"
	"github.com/AngelCh415/FUNNEL_GO/internal/models"
)

// BlankID is the preset used for "new workspace".
const BlankID = "custom"

//go:embed library.yaml
var builtinYAML []byte

// DefaultZones is the zone set given to funnels that bring none.
func DefaultZones() []models.Zone {
	return []models.Zone{
		{ID: "marketing", Name: "Marketing", Color: "#1d4ed8"},
		{ID: "sales", Name: "Sales", Color: "#16a34a"},
		{ID: models.RetentionZoneID, Name: "Retention", Color: "#f59e0b"},
	}
}

type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
}

// Library is an ordered, id-addressable set of normalized presets.
type Library struct {
	mu      sync.RWMutex
	presets []models.FunnelState
}

// Builtin parses the embedded preset library.
func Builtin() (*Library, error) {
	return Parse(builtinYAML)
}

// Parse reads a YAML (or JSON) list of funnel definitions.
func Parse(data []byte) (*Library, error) {
	var raw []any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	l := &Library{}
	for i, item := range raw {
		if err := ingest.CheckStructure(item); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
		st := ingest.Normalize(item, DefaultZones())
		if l.index(st.ID) >= 0 {
			return nil, fmt.Errorf("preset %d: duplicate id %q", i, st.ID)
		}
		l.presets = append(l.presets, st)
	}
	return l, nil
}

// Get returns a private copy of the preset.
func (l *Library) Get(id string) (models.FunnelState, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.index(id)
	if i < 0 {
		return models.FunnelState{}, false
	}
	return ingest.Renormalize(l.presets[i], DefaultZones()), true
}

// Blank is the empty-workspace template; a normalized empty funnel when the
// library has no blank preset.
func (l *Library) Blank() models.FunnelState {
	if st, ok := l.Get(BlankID); ok {
		return st
	}
	return ingest.Normalize(nil, DefaultZones())
}

func (l *Library) List() []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Summary, 0, len(l.presets))
	for _, p := range l.presets {
		out = append(out, Summary{ID: p.ID, Name: p.Name, Description: p.Description, Logo: p.Logo})
	}
	return out
}

// Merge adds presets; one with a known id replaces the existing entry in
// place. It returns how many were added or replaced.
func (l *Library) Merge(extra []models.FunnelState) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range extra {
		if i := l.index(p.ID); i >= 0 {
			l.presets[i] = p
			continue
		}
		l.presets = append(l.presets, p)
	}
	return len(extra)
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.presets)
}

func (l *Library) index(id string) int {
	for i, p := range l.presets {
		if p.ID == id {
			return i
		}
	}
	return -1
}
