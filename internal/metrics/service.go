package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
	"github.com/AngelCh415/FUNNEL_GO/internal/scenario"
	"github.com/AngelCh415/FUNNEL_GO/internal/store"
	"github.com/AngelCh415/FUNNEL_GO/internal/telemetry"
)

// Input is everything needed to evaluate one funnel outside a workspace.
type Input struct {
	State        models.FunnelState
	ScenarioID   string
	ActiveLevers []string
	Locale       string
}

// Result is a computed funnel together with the context it was computed in.
type Result struct {
	WorkspaceID  string              `json:"workspaceId,omitempty"`
	ScenarioID   string              `json:"scenarioId"`
	Archetype    scenario.Archetype  `json:"archetype"`
	Locale       string              `json:"locale"`
	ActiveLevers []string            `json:"activeLevers"`
	Meta         models.ScenarioMeta `json:"scenarioMeta"`
	Metrics      models.Metrics      `json:"metrics"`
	Stakeholders []StakeholderView   `json:"stakeholders"`
}

type Service struct {
	st            store.Store
	tel           *telemetry.Metrics
	sem           *semaphore.Weighted
	tracer        trace.Tracer
	defaultLocale string
}

// NewService bounds concurrent computations to maxConcurrent (at least one).
func NewService(st store.Store, tel *telemetry.Metrics, maxConcurrent int64, defaultLocale string) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if !SupportedLocale(defaultLocale) {
		defaultLocale = DefaultLocale
	}
	return &Service{
		st:            st,
		tel:           tel,
		sem:           semaphore.NewWeighted(maxConcurrent),
		tracer:        telemetry.Tracer(),
		defaultLocale: defaultLocale,
	}
}

// Workspace computes the metrics of a stored workspace.
func (s *Service) Workspace(ctx context.Context, id string) (Result, error) {
	ws, err := s.st.Get(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("load workspace %s: %w", id, err)
	}
	res, err := s.Evaluate(ctx, Input{
		State:        ws.State,
		ScenarioID:   ws.ScenarioID,
		ActiveLevers: ws.ActiveLevers,
		Locale:       ws.Language,
	})
	if err != nil {
		return Result{}, err
	}
	res.WorkspaceID = ws.ID
	return res, nil
}

// Evaluate resolves the active scenario and its meta, then runs Compute.
// It blocks while too many computations are in flight.
func (s *Service) Evaluate(ctx context.Context, in Input) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "metrics.Evaluate")
	defer span.End()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("compute slot: %w", err)
	}
	defer s.sem.Release(1)

	start := time.Now()
	sc := scenario.Find(in.State.Scenarios, in.ScenarioID)
	meta := scenario.Meta(&sc, in.State.TrafficChannels)
	arch := scenario.Classify(&sc)
	locale := in.Locale
	if !SupportedLocale(locale) {
		locale = s.defaultLocale
	}
	active := NewLeverSet(in.ActiveLevers...)

	m := Compute(Params{
		State:        in.State,
		Scenario:     &sc,
		Meta:         &meta,
		ActiveLevers: active,
		Narrator:     NewNarrator(locale),
	})
	s.tel.ObserveCompute(string(arch), time.Since(start))

	span.SetAttributes(
		attribute.String("funnel.id", in.State.ID),
		attribute.String("funnel.scenario", sc.ID),
		attribute.String("funnel.archetype", string(arch)),
		attribute.Int("funnel.stages", len(in.State.Stages)),
		attribute.Int("funnel.levers_active", len(active)),
	)

	return Result{
		ScenarioID:   sc.ID,
		Archetype:    arch,
		Locale:       normLocale(locale),
		ActiveLevers: active.IDs(in.State.Levers),
		Meta:         meta,
		Metrics:      m,
		Stakeholders: ResolveStakeholderKPIs(in.State.Stakeholders, m),
	}, nil
}
