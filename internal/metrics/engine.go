package metrics

import (
	"math"
	"sort"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
)

// Heuristic weights splitting churned customers into "at risk" buckets.
const (
	atRiskWeightBase     = 0.55
	atRiskWeightImproved = 0.45
	// insightBoost is the illustrative +5 pp lift quoted in the insight text.
	insightBoost = 0.05
)

// LeverSet is the set of active lever ids. The engine only reads it.
type LeverSet map[string]struct{}

func NewLeverSet(ids ...string) LeverSet {
	s := make(LeverSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s LeverSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the ids in the order they appear in levers; unknown ids last.
func (s LeverSet) IDs(levers []models.Lever) []string {
	out := make([]string, 0, len(s))
	seen := map[string]bool{}
	for _, l := range levers {
		if s.Has(l.ID) && !seen[l.ID] {
			out = append(out, l.ID)
			seen[l.ID] = true
		}
	}
	for id := range s {
		if !seen[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out[len(seen):])
	return out
}

// Params are the inputs of Compute. Scenario nil means no adjustments; Meta
// nil (or a nil ShareOfRevenue) selects the CPL-based spend estimate.
type Params struct {
	State        models.FunnelState
	Scenario     *models.Scenario
	Meta         *models.ScenarioMeta
	ActiveLevers LeverSet
	Narrator     Narrator
}

// Compute derives the full metrics of a funnel. It is pure: the same params
// always give the same result and nothing in params is modified.
func Compute(p Params) models.Metrics {
	state := p.State

	leverBoosts := map[string]float64{}
	for _, l := range state.Levers {
		if p.ActiveLevers.Has(l.ID) {
			leverBoosts[l.StageID] += l.ConversionBoost
		}
	}
	var stageAdj, zoneAdj map[string]models.Adjustment
	if p.Scenario != nil {
		stageAdj, zoneAdj = p.Scenario.Adjustments, p.Scenario.Zones
	}

	stages := make([]models.StageMetrics, 0, len(state.Stages))
	var prevBase, prevImproved float64

	for i, st := range state.Stages {
		sa, za := stageAdj[st.ID], zoneAdj[st.ZoneID]
		scenarioBoost := val(sa.Conversion) + val(za.Conversion)
		valueBoost := val(sa.Value) + val(za.Value)
		leverBoost := leverBoosts[st.ID]
		absolute := st.Mode == models.ModeAbsolute

		baseConv := 100.0
		if i > 0 {
			if !absolute && st.Conversion != nil {
				baseConv = *st.Conversion
			} else {
				baseConv = conversionFromValues(st.Value, prevBase)
			}
		}

		baseValue := st.Value
		if i > 0 && !absolute {
			baseValue = prevBase * (baseConv / 100)
		}

		improvedRaw := baseConv + scenarioBoost + leverBoost
		if i == 0 {
			improvedRaw = 100 + valueBoost
		}
		var improvedConv float64
		if i == 0 && absolute {
			// entry multiplier, not a percentage: floor only
			improvedConv = math.Max(1, improvedRaw)
		} else {
			improvedConv = clamp(improvedRaw, 0, 100)
		}

		improvedValue := st.Value * (1 + valueBoost/100)
		if i > 0 && !absolute {
			improvedValue = prevImproved * (improvedConv / 100)
		}

		var drop, improvedDrop float64
		if i > 0 {
			drop = math.Max(0, prevBase-baseValue)
			improvedDrop = math.Max(0, prevImproved-improvedValue)
		}

		stages = append(stages, models.StageMetrics{
			Stage:              cloneStage(st),
			Index:              i,
			BaseValue:          baseValue,
			BaseConversion:     baseConv,
			ImprovedValue:      improvedValue,
			ImprovedConversion: improvedConv,
			Drop:               drop,
			ImprovedDrop:       improvedDrop,
			ScenarioBoost:      scenarioBoost,
			LeverBoost:         leverBoost,
		})
		prevBase, prevImproved = baseValue, improvedValue
	}

	m := models.Metrics{Stages: stages, LTV: state.Finances.LTV}
	if n := len(stages); n > 0 {
		m.TopValue = stages[0].BaseValue
		m.FinalBase = stages[n-1].BaseValue
		m.FinalImproved = stages[n-1].ImprovedValue
	}
	m.DeltaUnits = m.FinalImproved - m.FinalBase
	if m.FinalBase > 0 {
		m.DeltaPercent = m.DeltaUnits / m.FinalBase * 100
	}

	fillFinance(&m, state.Finances, p.Meta)
	m.Bottleneck = bottleneck(stages)
	m.Insight = p.Narrator.Insight(stages, m.Bottleneck)
	fillRetention(&m, stages)
	return m
}

func fillFinance(m *models.Metrics, fin models.Finances, meta *models.ScenarioMeta) {
	var marketingLeads, improvedMarketingLeads float64
	switch {
	case len(m.Stages) > 1:
		marketingLeads, improvedMarketingLeads = m.Stages[1].BaseValue, m.Stages[1].ImprovedValue
	case len(m.Stages) == 1:
		marketingLeads, improvedMarketingLeads = m.Stages[0].BaseValue, m.Stages[0].ImprovedValue
	}

	dealsBase, dealsImproved := m.FinalBase, m.FinalImproved
	m.RevenueBase = dealsBase * fin.AvgCheck
	m.RevenueImproved = dealsImproved * fin.AvgCheck

	var share *float64
	if meta != nil {
		share = meta.ShareOfRevenue
		m.MarketingBudgetLabel = meta.Label
		m.MarketingBudgetStatus = meta.Status
		m.ScenarioDescription = meta.Description
		m.ScenarioPlays = append([]string(nil), meta.Plays...)
		m.TrafficMix = append([]models.TrafficChannel(nil), meta.TrafficMix...)
	}
	if share != nil {
		v := *share
		m.MarketingBudgetShare = &v
		m.SpendBase = m.RevenueBase * v
		m.SpendImproved = m.RevenueImproved * v
	} else {
		m.SpendBase = marketingLeads * fin.CPL
		m.SpendImproved = improvedMarketingLeads * fin.CPL
	}

	m.GrossMarginBase = m.RevenueBase - m.SpendBase - dealsBase*fin.CAC
	m.GrossMarginImproved = m.RevenueImproved - m.SpendImproved - dealsImproved*fin.CAC
	if m.SpendBase > 0 {
		m.ROIBase = m.GrossMarginBase / m.SpendBase * 100
	}
	if m.SpendImproved > 0 {
		m.ROIImproved = m.GrossMarginImproved / m.SpendImproved * 100
	}
	if fin.CAC > 0 && fin.AvgCheck > 0 {
		m.PaybackMonths = fin.AvgCheck / fin.CAC
	}
}

// bottleneck is the non-entry stage with the largest drop; the first one
// wins a tie.
func bottleneck(stages []models.StageMetrics) *models.StageMetrics {
	if len(stages) < 2 {
		return nil
	}
	worst := 1
	for i := 2; i < len(stages); i++ {
		if stages[i].Drop > stages[worst].Drop {
			worst = i
		}
	}
	b := stages[worst]
	b.Stage = cloneStage(b.Stage)
	return &b
}

func fillRetention(m *models.Metrics, stages []models.StageMetrics) {
	first, last := -1, -1
	for i, st := range stages {
		if st.ZoneID == models.RetentionZoneID {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return
	}

	baseCustomers := stages[first].BaseValue
	if first > 0 {
		baseCustomers = stages[first-1].BaseValue
	}
	retainedBase := stages[last].BaseValue
	retainedImproved := stages[last].ImprovedValue

	var churn, churnImproved, loyal, loyalImproved float64
	if baseCustomers > 0 {
		churn = clamp((baseCustomers-retainedBase)/baseCustomers*100, 0, 100)
		churnImproved = clamp((baseCustomers-retainedImproved)/baseCustomers*100, 0, 100)
		loyal = clamp(retainedBase/baseCustomers*100, 0, 100)
		loyalImproved = clamp(retainedImproved/baseCustomers*100, 0, 100)
	}
	atRisk := clamp(churn*atRiskWeightBase, 0, 100)
	atRiskImproved := clamp(churnImproved*atRiskWeightImproved, 0, 100)
	// not a true partition: the residual may go negative before clamping
	sleeping := clamp(100-loyal-atRisk-churn, 0, 100)
	sleepingImproved := clamp(100-loyalImproved-atRiskImproved-churnImproved, 0, 100)

	m.ChurnRate = models.Float(churn)
	m.ChurnRateImproved = models.Float(churnImproved)
	m.RetentionSummary = &models.RetentionSummary{
		BaseCustomers:         baseCustomers,
		RetainedBase:          retainedBase,
		RetainedImproved:      retainedImproved,
		LoyalShare:            loyal,
		LoyalShareImproved:    loyalImproved,
		AtRiskShare:           atRisk,
		AtRiskShareImproved:   atRiskImproved,
		SleepingShare:         sleeping,
		SleepingShareImproved: sleepingImproved,
		ChurnRate:             churn,
		ChurnRateImproved:     churnImproved,
	}
}

// conversionFromValues is current/previous in percent; a zero previous
// value reads as "no change".
func conversionFromValues(current, previous float64) float64 {
	if previous == 0 {
		return 100
	}
	return current / previous * 100
}

func cloneStage(s models.Stage) models.Stage {
	s.Tasks = append([]models.Task(nil), s.Tasks...)
	s.TrafficChannels = append([]models.TrafficChannel(nil), s.TrafficChannels...)
	if s.Conversion != nil {
		s.Conversion = models.Float(*s.Conversion)
	}
	if s.Benchmark != nil {
		s.Benchmark = models.Float(*s.Benchmark)
	}
	return s
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
