package metrics

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
	"github.com/AngelCh415/FUNNEL_GO/internal/scenario"
)

type plainFormatter struct{}

func (plainFormatter) Format(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func absStage(id string, value float64, zone string) models.Stage {
	return models.Stage{ID: id, Name: id, Mode: models.ModeAbsolute, Value: value, ZoneID: zone}
}

func pctStage(id string, conv float64, zone string) models.Stage {
	return models.Stage{ID: id, Name: id, Mode: models.ModePercent, Conversion: models.Float(conv), ZoneID: zone}
}

func richState() models.FunnelState {
	return models.FunnelState{
		ID: "saas",
		Stages: []models.Stage{
			absStage("visits", 10000, "marketing"),
			pctStage("leads", 8, "marketing"),
			pctStage("deals", 25, "sales"),
			pctStage("renewals", 70, models.RetentionZoneID),
		},
		Levers: []models.Lever{
			{ID: "l1", StageID: "leads", ConversionBoost: 2},
			{ID: "l2", StageID: "leads", ConversionBoost: 1.5},
			{ID: "l3", StageID: "deals", ConversionBoost: 10},
		},
		Finances: models.Finances{AvgCheck: 1200, CPL: 15, CAC: 300, LTV: 5000},
		TrafficChannels: []models.TrafficChannel{
			{ID: "seo", Name: "SEO", Share: 40},
			{ID: "ads", Name: "Paid ads", Share: 60},
		},
	}
}

func richScenario() models.Scenario {
	return models.Scenario{
		ID:   "growth",
		Name: "Growth push",
		Adjustments: map[string]models.Adjustment{
			"deals": {Conversion: models.Float(5)},
		},
		Zones: map[string]models.Adjustment{
			"marketing": {Value: models.Float(20), Conversion: models.Float(1)},
		},
	}
}

func TestCompute_IsDeterministicAndLeavesInputAlone(t *testing.T) {
	state, sc := richState(), richScenario()
	meta := scenario.Meta(&sc, state.TrafficChannels)
	before, err := json.Marshal(state)
	require.NoError(t, err)

	p := Params{State: state, Scenario: &sc, Meta: &meta, ActiveLevers: NewLeverSet("l1", "l3"), Narrator: NewNarrator("en")}
	first := Compute(p)
	second := Compute(p)
	require.Equal(t, first, second)

	after, err := json.Marshal(state)
	require.NoError(t, err)
	require.JSONEq(t, string(before), string(after))

	first.Stages[0].TrafficChannels = append(first.Stages[0].TrafficChannels, models.TrafficChannel{ID: "x"})
	require.Empty(t, state.Stages[0].TrafficChannels)
}

func TestCompute_PerStagePass(t *testing.T) {
	state, sc := richState(), richScenario()
	m := Compute(Params{State: state, Scenario: &sc, ActiveLevers: NewLeverSet("l1", "l2"), Narrator: Narrator{Format: plainFormatter{}}})

	visits, leads, deals := m.Stages[0], m.Stages[1], m.Stages[2]

	require.Equal(t, 100.0, visits.BaseConversion)
	require.Equal(t, 10000.0, visits.BaseValue)
	// zone value boost 20 on an absolute entry stage
	require.InDelta(t, 120.0, visits.ImprovedConversion, 1e-9)
	require.InDelta(t, 12000.0, visits.ImprovedValue, 1e-9)

	require.Equal(t, 8.0, leads.BaseConversion)
	require.InDelta(t, 800.0, leads.BaseValue, 1e-9)
	require.Equal(t, 1.0, leads.ScenarioBoost)
	require.Equal(t, 3.5, leads.LeverBoost)
	require.InDelta(t, 12.5, leads.ImprovedConversion, 1e-9)
	require.InDelta(t, 1500.0, leads.ImprovedValue, 1e-9)
	require.InDelta(t, 9200.0, leads.Drop, 1e-9)

	// l3 is inactive
	require.Equal(t, 0.0, deals.LeverBoost)
	require.Equal(t, 5.0, deals.ScenarioBoost)
	require.InDelta(t, 30.0, deals.ImprovedConversion, 1e-9)
	require.InDelta(t, 450.0, deals.ImprovedValue, 1e-9)

	require.Equal(t, 10000.0, m.TopValue)
	require.InDelta(t, 140.0, m.FinalBase, 1e-9)
	require.InDelta(t, 315.0, m.FinalImproved, 1e-9)
	require.InDelta(t, 175.0, m.DeltaUnits, 1e-9)
	require.InDelta(t, 125.0, m.DeltaPercent, 1e-9)
	require.Equal(t, 5000.0, m.LTV)
}

func TestCompute_Clamping(t *testing.T) {
	state := models.FunnelState{Stages: []models.Stage{
		absStage("top", 500, "z"),
		pctStage("up", 90, "z"),
		pctStage("down", 10, "z"),
		absStage("abs", 50, "z"),
	}}
	sc := models.Scenario{
		Adjustments: map[string]models.Adjustment{
			"up":   {Conversion: models.Float(500)},
			"down": {Conversion: models.Float(-500)},
			"abs":  {Conversion: models.Float(1000)},
		},
		Zones: map[string]models.Adjustment{"z": {Value: models.Float(300)}},
	}
	m := Compute(Params{State: state, Scenario: &sc})

	// entry multiplier has no ceiling
	require.InDelta(t, 400.0, m.Stages[0].ImprovedConversion, 1e-9)
	for _, st := range m.Stages[1:] {
		require.GreaterOrEqual(t, st.ImprovedConversion, 0.0, st.ID)
		require.LessOrEqual(t, st.ImprovedConversion, 100.0, st.ID)
	}
	require.Equal(t, 100.0, m.Stages[1].ImprovedConversion)
	require.Equal(t, 0.0, m.Stages[2].ImprovedConversion)

	sc.Zones["z"] = models.Adjustment{Value: models.Float(-250)}
	m = Compute(Params{State: state, Scenario: &sc})
	require.Equal(t, 1.0, m.Stages[0].ImprovedConversion)

	// a percent-mode entry stage is a plain percentage
	state.Stages[0] = pctStage("top", 100, "z")
	state.Stages[0].Value = 500
	sc.Zones["z"] = models.Adjustment{Value: models.Float(300)}
	m = Compute(Params{State: state, Scenario: &sc})
	require.Equal(t, 100.0, m.Stages[0].ImprovedConversion)
	require.Equal(t, 100.0, m.Stages[0].BaseConversion)
}

func TestCompute_ZeroGuard(t *testing.T) {
	noConv := models.Stage{ID: "b", Mode: models.ModePercent, Value: 0}
	state := models.FunnelState{Stages: []models.Stage{absStage("a", 0, "z"), noConv, absStage("c", 40, "z")}}

	m := Compute(Params{State: state})
	require.Equal(t, 100.0, m.Stages[0].BaseConversion)
	require.Equal(t, 100.0, m.Stages[1].BaseConversion)
	require.Equal(t, 0.0, m.Stages[1].BaseValue)
	require.Equal(t, 100.0, m.Stages[2].BaseConversion)
	require.Equal(t, 0.0, m.DeltaPercent)
}

func TestCompute_BottleneckTieGoesToFirst(t *testing.T) {
	state := models.FunnelState{Stages: []models.Stage{
		{ID: "a", Name: "A", Value: 1000, Mode: models.ModePercent, Conversion: models.Float(100)},
		absStage("b", 600, "x"),
		absStage("c", 200, "x"),
	}}
	m := Compute(Params{State: state, Narrator: Narrator{Format: plainFormatter{}}})

	require.Equal(t, []float64{0, 400, 400}, []float64{m.Stages[0].Drop, m.Stages[1].Drop, m.Stages[2].Drop})
	require.NotNil(t, m.Bottleneck)
	require.Equal(t, "b", m.Bottleneck.ID)
	require.Equal(t, 1, m.Bottleneck.Index)
	require.Equal(t, "Самая большая потеря (400) на этапе «b». Улучшение конверсии на 5 п.п. даст дополнительно ~50 лидов.", m.Insight)

	en := Compute(Params{State: state, Narrator: Narrator{Locale: "en-US", Format: plainFormatter{}}})
	require.Contains(t, en.Insight, "(400)")
	require.Contains(t, en.Insight, "about 50 leads")
}

func TestCompute_DegenerateFunnels(t *testing.T) {
	empty := Compute(Params{})
	require.Empty(t, empty.Stages)
	require.Nil(t, empty.Bottleneck)
	require.Equal(t, insights["ru"].stable, empty.Insight)
	require.Equal(t, 0.0, empty.TopValue)

	single := Compute(Params{State: models.FunnelState{Stages: []models.Stage{absStage("only", 10, "z")}}, Narrator: NewNarrator("de")})
	require.Nil(t, single.Bottleneck)
	require.Equal(t, insights["de"].stable, single.Insight)
	require.Equal(t, 10.0, single.FinalBase)
}

func TestCompute_NoRetentionZone(t *testing.T) {
	m := Compute(Params{State: richState()})
	require.NotNil(t, m.ChurnRate)

	st := richState()
	st.Stages = st.Stages[:3]
	m = Compute(Params{State: st})
	require.Nil(t, m.ChurnRate)
	require.Nil(t, m.ChurnRateImproved)
	require.Nil(t, m.RetentionSummary)
}

func TestCompute_ChurnEndToEnd(t *testing.T) {
	state := models.FunnelState{Stages: []models.Stage{
		{ID: "s0", Value: 1000, ZoneID: "top", Mode: models.ModePercent, Conversion: models.Float(100)},
		absStage("s1", 400, models.RetentionZoneID),
		absStage("s2", 250, models.RetentionZoneID),
	}}
	m := Compute(Params{State: state})

	rs := m.RetentionSummary
	require.NotNil(t, rs)
	require.Equal(t, 1000.0, rs.BaseCustomers)
	require.Equal(t, 250.0, rs.RetainedBase)
	require.InDelta(t, 75.0, *m.ChurnRate, 1e-9)
	require.InDelta(t, 75.0, rs.ChurnRate, 1e-9)
	require.InDelta(t, 25.0, rs.LoyalShare, 1e-9)
	require.InDelta(t, 41.25, rs.AtRiskShare, 1e-9)
	require.Equal(t, 0.0, rs.SleepingShare)
	require.InDelta(t, 33.75, rs.AtRiskShareImproved, 1e-9)
}

func TestCompute_RetentionAtEntryAndEmptyBase(t *testing.T) {
	state := models.FunnelState{Stages: []models.Stage{
		absStage("r0", 0, models.RetentionZoneID),
		absStage("r1", 10, models.RetentionZoneID),
	}}
	m := Compute(Params{State: state})
	require.Equal(t, 0.0, m.RetentionSummary.BaseCustomers)
	require.Equal(t, 0.0, *m.ChurnRate)
	require.Equal(t, 0.0, m.RetentionSummary.LoyalShare)
	require.Equal(t, 100.0, m.RetentionSummary.SleepingShare)
}

func TestCompute_BudgetSharePath(t *testing.T) {
	state := models.FunnelState{
		Stages:   []models.Stage{absStage("deals", 40, "sales")},
		Finances: models.Finances{AvgCheck: 500},
	}
	sc := models.Scenario{Zones: map[string]models.Adjustment{"sales": {Value: models.Float(25)}}}
	meta := models.ScenarioMeta{ShareOfRevenue: models.Float(0.1), Label: "Moderate growth", Plays: []string{"a"}}

	m := Compute(Params{State: state, Scenario: &sc, Meta: &meta})
	require.InDelta(t, 40.0, m.FinalBase, 1e-9)
	require.InDelta(t, 50.0, m.FinalImproved, 1e-9)
	require.InDelta(t, 20000.0, m.RevenueBase, 1e-9)
	require.InDelta(t, 2000.0, m.SpendBase, 1e-9)
	require.InDelta(t, 25000.0, m.RevenueImproved, 1e-9)
	require.InDelta(t, 2500.0, m.SpendImproved, 1e-9)
	require.InDelta(t, 900.0, m.ROIBase, 1e-9)
	require.Equal(t, 0.0, m.PaybackMonths)
	require.Equal(t, 0.1, *m.MarketingBudgetShare)
	require.Equal(t, "Moderate growth", m.MarketingBudgetLabel)
	require.Equal(t, []string{"a"}, m.ScenarioPlays)
}

func TestCompute_LegacyCPLPath(t *testing.T) {
	state := models.FunnelState{
		Stages:   []models.Stage{absStage("visits", 1000, "m"), pctStage("leads", 10, "m"), pctStage("deals", 50, "s")},
		Levers:   []models.Lever{{ID: "l", StageID: "leads", ConversionBoost: 5}},
		Finances: models.Finances{AvgCheck: 100, CPL: 2, CAC: 25},
	}
	m := Compute(Params{State: state, ActiveLevers: NewLeverSet("l")})

	require.Nil(t, m.MarketingBudgetShare)
	require.InDelta(t, 200.0, m.SpendBase, 1e-9)
	require.InDelta(t, 300.0, m.SpendImproved, 1e-9)
	// revenue 50*100, spend 200, acquisition 50*25
	require.InDelta(t, 3550.0, m.GrossMarginBase, 1e-9)
	require.InDelta(t, 1775.0, m.ROIBase, 1e-9)
	require.Equal(t, 4.0, m.PaybackMonths)
}

func TestLeverSet_IDs(t *testing.T) {
	levers := []models.Lever{{ID: "b"}, {ID: "a"}}
	s := NewLeverSet("a", "zz", "b", "yy")
	require.Equal(t, []string{"b", "a", "yy", "zz"}, s.IDs(levers))
	require.False(t, LeverSet(nil).Has("a"))
}

func TestNumberFormatter(t *testing.T) {
	require.Equal(t, "1,234.6", NewNumberFormatter("en").Format(1234.56))
	require.Equal(t, "12", NewNumberFormatter("en").Format(12))
	require.NotEmpty(t, NewNumberFormatter("not a locale!").Format(1))
}
