package compare

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/FUNNEL_GO/internal/ingest"
	"github.com/AngelCh415/FUNNEL_GO/internal/metrics"
	"github.com/AngelCh415/FUNNEL_GO/internal/models"
	"github.com/AngelCh415/FUNNEL_GO/internal/presets"
	"github.com/AngelCh415/FUNNEL_GO/internal/store"
	"github.com/AngelCh415/FUNNEL_GO/internal/telemetry"
)

func f(v float64) *float64 { return &v }

func TestPickWinner(t *testing.T) {
	cases := []struct {
		name        string
		left, right *float64
		opt         Options
		want        Winner
	}{
		{"both missing", nil, nil, Options{}, Tie},
		{"left missing", nil, f(1), Options{}, Right},
		{"right missing", f(1), nil, Options{LowerIsBetter: true}, Left},
		{"higher wins", f(120), f(100), Options{Tolerance: 0.05}, Left},
		{"within band", f(104), f(100), Options{Tolerance: 0.05}, Tie},
		{"just outside band", f(106), f(100), Options{Tolerance: 0.05}, Left},
		{"lower wins", f(120), f(100), Options{LowerIsBetter: true, Tolerance: 0.05}, Right},
		{"small values scale by one", f(0.5), f(0.46), Options{Tolerance: 0.05}, Tie},
		{"exact", f(1), f(1.0001), Options{}, Right},
		{"negative numbers", f(-10), f(-20), Options{Tolerance: 0.05}, Left},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, PickWinner(c.left, c.right, c.opt))
		})
	}
}

func TestEvaluate(t *testing.T) {
	state := models.FunnelState{
		Stages: []models.Stage{
			{ID: "a", Tasks: []models.Task{{ID: "1"}, {ID: "2"}}},
			{ID: "b", Tasks: []models.Task{{ID: "3"}, {ID: "4"}}},
		},
		Levers: []models.Lever{{ID: "l1"}, {ID: "l2"}, {ID: "l3"}, {ID: "l4"}, {ID: "l5"}},
	}
	m := models.Metrics{
		SpendImproved:        1000,
		RevenueImproved:      9000,
		PaybackMonths:        3,
		ROIImproved:          200,
		ChurnRate:            f(40),
		ChurnRateImproved:    f(25),
		ScenarioPlays:        []string{"a", "b"},
		MarketingBudgetShare: f(0.1),
		DeltaPercent:         12,
	}
	e := Evaluate(Funnel{Label: "L", Scenario: models.Scenario{Name: "Growth"}, State: state, Metrics: m})

	require.Equal(t, 2, e.StagesCount)
	require.Equal(t, 5, e.LeversCount)
	require.Equal(t, 4, e.TasksCount)
	require.InDelta(t, 2+5*1.6+4*0.25, e.Complexity, 1e-9)
	require.Equal(t, 1000.0, e.Cost)
	require.Equal(t, 0.1, e.BudgetShare)
	require.Equal(t, 25.0, e.Churn)
	// 5 + 200/40 + 2*0.5 - 25/25
	require.InDelta(t, 10.0, e.Confidence, 1e-9)
	require.Equal(t, "Growth", e.ScenarioName)

	m.ChurnRateImproved = nil
	m.ROIImproved = -1000
	e = Evaluate(Funnel{Metrics: m})
	require.Equal(t, 40.0, e.Churn)
	require.Equal(t, 1.0, e.Confidence)

	e = Evaluate(Funnel{})
	require.Equal(t, 0.0, e.Churn)
	require.Equal(t, 5.0, e.Confidence)
}

func TestSummary(t *testing.T) {
	left := Evaluation{Label: "Left", Cost: 1000, Complexity: 10, Result: 5000, Speed: 0.1, Confidence: 6, StagesCount: 4}
	right := Evaluation{Label: "Right", Cost: 1060, Complexity: 12, Result: 5100, Speed: 3, Confidence: 6.2, StagesCount: 5}

	items := Summary(left, right, "en")
	require.Len(t, items, 5)
	got := map[string]Winner{}
	for _, it := range items {
		got[it.ID] = it.Winner
	}
	require.Equal(t, map[string]Winner{
		"cost":       Tie,
		"ease":       Left,
		"result":     Tie,
		"speed":      Left,
		"confidence": Tie,
	}, got)

	require.Equal(t, "Roughly equal", items[0].Description)
	require.Equal(t, "Left wins • Complexity: 10 · Stages: 4 vs Right: Complexity: 12 · Stages: 5", items[1].Description)
	require.Equal(t, "immediate", items[3].LeftText)
	require.Equal(t, "3 mo", items[3].RightText)
	require.Equal(t, Left, Overall(items))
	require.Equal(t, Tie, Overall(nil))
}

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	lib, err := presets.Builtin()
	require.NoError(t, err)
	st := store.NewMemoryStore()
	tel := telemetry.NewMetrics()
	return NewService(lib, st, metrics.NewService(st, tel, 4, "en"), tel), st
}

func TestService_Compare(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	lib, _ := presets.Builtin()
	shop, _ := lib.Get("ecommerce")
	ws, err := st.Create(ctx, store.Workspace{State: shop, ScenarioID: "loyalty", ActiveLevers: []string{"shop-loyalty"}})
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{
		"name":   "Tiny",
		"stages": []any{map[string]any{"value": 100, "mode": "absolute"}, map[string]any{"conversion": 10}},
	})
	require.NoError(t, err)

	res, err := svc.Compare(ctx, Request{
		Left:   Side{PresetID: "saas"},
		Right:  Side{Label: "  ", WorkspaceID: ws.ID},
		Locale: "en",
	})
	require.NoError(t, err)
	require.Equal(t, "B2B SaaS", res.Left.Evaluation.Label)
	require.Equal(t, "E-commerce store", res.Right.Evaluation.Label)
	// comparisons run the first scenario without levers
	require.Equal(t, "base", res.Right.Result.ScenarioID)
	require.Empty(t, res.Right.Result.ActiveLevers)
	require.Len(t, res.Summary, len(Dimensions))
	require.Contains(t, []Winner{Left, Right, Tie}, res.Overall)

	res, err = svc.Compare(ctx, Request{Left: Side{Label: "Mine", State: raw}, Right: Side{PresetID: "custom"}})
	require.NoError(t, err)
	require.Equal(t, "Mine", res.Left.Evaluation.Label)
	require.Equal(t, 2, res.Left.Evaluation.StagesCount)
	require.InDelta(t, 10.0, res.Left.Result.Metrics.FinalBase, 1e-9)
}

func TestService_CompareErrors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Compare(ctx, Request{Left: Side{}, Right: Side{PresetID: "saas"}})
	require.ErrorIs(t, err, ErrSide)

	_, err = svc.Compare(ctx, Request{Left: Side{PresetID: "saas", WorkspaceID: "x"}, Right: Side{PresetID: "saas"}})
	require.ErrorIs(t, err, ErrSide)

	_, err = svc.Compare(ctx, Request{Left: Side{PresetID: "saas"}, Right: Side{PresetID: "nope"}})
	require.ErrorIs(t, err, ErrUnknownPreset)

	_, err = svc.Compare(ctx, Request{Left: Side{WorkspaceID: "missing"}, Right: Side{PresetID: "saas"}})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Compare(ctx, Request{Left: Side{State: json.RawMessage(`{"stages": 3}`)}, Right: Side{PresetID: "saas"}})
	require.ErrorIs(t, err, ingest.ErrStructure)
}
