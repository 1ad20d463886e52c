package compare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/FUNNEL_GO/internal/ingest"
	"github.com/AngelCh415/FUNNEL_GO/internal/metrics"
	"github.com/AngelCh415/FUNNEL_GO/internal/models"
	"github.com/AngelCh415/FUNNEL_GO/internal/presets"
	"github.com/AngelCh415/FUNNEL_GO/internal/scenario"
	"github.com/AngelCh415/FUNNEL_GO/internal/store"
	"github.com/AngelCh415/FUNNEL_GO/internal/telemetry"
)

var (
	// ErrSide means a side names no source, or more than one.
	ErrSide = errors.New("compare: each side needs exactly one of state, presetId, workspaceId")
	// ErrUnknownPreset means the preset id is not in the library.
	ErrUnknownPreset = errors.New("compare: unknown preset")
)

const untitled = "Untitled funnel"

// Side selects a funnel by raw state, preset id or stored workspace.
type Side struct {
	Label       string          `json:"label"`
	State       json.RawMessage `json:"state,omitempty"`
	PresetID    string          `json:"presetId,omitempty"`
	WorkspaceID string          `json:"workspaceId,omitempty"`
}

type Request struct {
	Left   Side   `json:"left"`
	Right  Side   `json:"right"`
	Locale string `json:"locale"`
}

type SideResult struct {
	Evaluation Evaluation     `json:"evaluation"`
	Result     metrics.Result `json:"result"`
}

type Response struct {
	Left    SideResult `json:"left"`
	Right   SideResult `json:"right"`
	Summary []Item     `json:"summary"`
	Overall Winner     `json:"overall"`
}

type Service struct {
	lib    *presets.Library
	st     store.Store
	calc   *metrics.Service
	tel    *telemetry.Metrics
	tracer trace.Tracer
}

func NewService(lib *presets.Library, st store.Store, calc *metrics.Service, tel *telemetry.Metrics) *Service {
	return &Service{lib: lib, st: st, calc: calc, tel: tel, tracer: telemetry.Tracer()}
}

// Compare builds both sides concurrently and lines them up. Each side runs
// its first scenario with no levers active.
func (s *Service) Compare(ctx context.Context, req Request) (Response, error) {
	ctx, span := s.tracer.Start(ctx, "compare.Compare")
	defer span.End()
	start := time.Now()

	var left, right SideResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		left, err = s.side(gctx, req.Left, req.Locale)
		if err != nil {
			return fmt.Errorf("left: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		right, err = s.side(gctx, req.Right, req.Locale)
		if err != nil {
			return fmt.Errorf("right: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	items := Summary(left.Evaluation, right.Evaluation, req.Locale)
	overall := Overall(items)
	s.tel.ObserveCompare(string(overall), time.Since(start))
	span.SetAttributes(attribute.String("compare.overall", string(overall)))
	return Response{Left: left, Right: right, Summary: items, Overall: overall}, nil
}

func (s *Service) side(ctx context.Context, in Side, locale string) (SideResult, error) {
	state, err := s.resolve(ctx, in)
	if err != nil {
		return SideResult{}, err
	}
	sc := scenario.Fallback
	if len(state.Scenarios) > 0 {
		sc = state.Scenarios[0]
	}
	res, err := s.calc.Evaluate(ctx, metrics.Input{State: state, ScenarioID: sc.ID, Locale: locale})
	if err != nil {
		return SideResult{}, err
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = state.Name
	}
	if label == "" {
		label = untitled
	}
	ev := Evaluate(Funnel{Label: label, Scenario: sc, State: state, Metrics: res.Metrics})
	return SideResult{Evaluation: ev, Result: res}, nil
}

func (s *Service) resolve(ctx context.Context, in Side) (models.FunnelState, error) {
	n := 0
	for _, set := range []bool{len(in.State) > 0, in.PresetID != "", in.WorkspaceID != ""} {
		if set {
			n++
		}
	}
	if n != 1 {
		return models.FunnelState{}, ErrSide
	}
	switch {
	case len(in.State) > 0:
		return ingest.Decode(in.State, presets.DefaultZones())
	case in.PresetID != "":
		st, ok := s.lib.Get(in.PresetID)
		if !ok {
			return models.FunnelState{}, fmt.Errorf("%w: %s", ErrUnknownPreset, in.PresetID)
		}
		return st, nil
	default:
		ws, err := s.st.Get(ctx, in.WorkspaceID)
		if err != nil {
			return models.FunnelState{}, err
		}
		return ws.State, nil
	}
}
