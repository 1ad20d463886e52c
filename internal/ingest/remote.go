package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
	"github.com/AngelCh415/FUNNEL_GO/internal/utils"
)

// RemoteLibrary pulls a preset library (a JSON array of funnel definitions)
// from an HTTP endpoint.
type RemoteLibrary struct {
	c       HTTPClient
	log     zerolog.Logger
	backoff utils.Backoff
	zones   []models.Zone
}

func NewRemoteLibrary(c HTTPClient, log zerolog.Logger, b utils.Backoff, zonesFallback []models.Zone) *RemoteLibrary {
	return &RemoteLibrary{c: c, log: log, backoff: b, zones: zonesFallback}
}

// Fetch downloads and normalizes the library. Entries with a broken
// structure are skipped and logged; the rest are returned in order.
func (r *RemoteLibrary) Fetch(ctx context.Context, url string) ([]models.FunnelState, error) {
	var raw []any
	if err := GetJSONWithRetry(ctx, r.c, url, &raw, r.backoff); err != nil {
		return nil, fmt.Errorf("fetch presets: %w", err)
	}
	out := make([]models.FunnelState, 0, len(raw))
	seen := map[string]struct{}{}
	for i, item := range raw {
		if err := CheckStructure(item); err != nil {
			r.log.Warn().Int("index", i).Err(err).Msg("skipping preset")
			continue
		}
		st := Normalize(item, r.zones)
		if _, dup := seen[st.ID]; dup {
			r.log.Warn().Str("preset_id", st.ID).Msg("duplicate preset id")
			continue
		}
		seen[st.ID] = struct{}{}
		out = append(out, st)
	}
	r.log.Info().Int("presets", len(out)).Str("url", url).Msg("remote presets loaded")
	return out, nil
}
