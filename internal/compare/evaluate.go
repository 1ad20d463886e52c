package compare

import (
	"math"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
)

type Winner string

const (
	Left  Winner = "left"
	Right Winner = "right"
	Tie   Winner = "tie"
)

// DefaultTolerance is the relative band used when a dimension names none.
const DefaultTolerance = 0.05

// Weights of the complexity index.
const (
	leverComplexity = 1.6
	taskComplexity  = 0.25
)

type Options struct {
	LowerIsBetter bool
	// Tolerance is relative to max(|left|, |right|, 1); zero means exact.
	Tolerance float64
}

// PickWinner compares two optional values. A missing value loses to a
// present one; values within the tolerance band tie.
func PickWinner(left, right *float64, opt Options) Winner {
	switch {
	case left == nil && right == nil:
		return Tie
	case left == nil:
		return Right
	case right == nil:
		return Left
	}
	l, r := *left, *right
	scale := math.Max(math.Max(math.Abs(l), math.Abs(r)), 1)
	if math.Abs(l-r) <= scale*math.Max(0, opt.Tolerance) {
		return Tie
	}
	if opt.LowerIsBetter {
		if l < r {
			return Left
		}
		return Right
	}
	if l > r {
		return Left
	}
	return Right
}

// Funnel is one computed side of a comparison.
type Funnel struct {
	Label    string
	Scenario models.Scenario
	State    models.FunnelState
	Metrics  models.Metrics
}

// Evaluation condenses a funnel into the figures that are compared.
type Evaluation struct {
	Label        string  `json:"label"`
	ScenarioName string  `json:"scenarioName"`
	StagesCount  int     `json:"stagesCount"`
	LeversCount  int     `json:"leversCount"`
	TasksCount   int     `json:"tasksCount"`
	Complexity   float64 `json:"complexity"`
	Cost         float64 `json:"cost"`
	BudgetShare  float64 `json:"budgetShare"`
	Result       float64 `json:"result"`
	DeltaPercent float64 `json:"deltaPercent"`
	Speed        float64 `json:"speed"`
	ROI          float64 `json:"roi"`
	Churn        float64 `json:"churn"`
	Confidence   float64 `json:"confidence"`
}

func Evaluate(f Funnel) Evaluation {
	m := f.Metrics
	tasks := 0
	for _, st := range f.State.Stages {
		tasks += len(st.Tasks)
	}
	e := Evaluation{
		Label:        f.Label,
		ScenarioName: f.Scenario.Name,
		StagesCount:  len(f.State.Stages),
		LeversCount:  len(f.State.Levers),
		TasksCount:   tasks,
		Cost:         m.SpendImproved,
		Result:       m.RevenueImproved,
		DeltaPercent: m.DeltaPercent,
		Speed:        m.PaybackMonths,
		ROI:          m.ROIImproved,
	}
	e.Complexity = float64(e.StagesCount) + float64(e.LeversCount)*leverComplexity + float64(tasks)*taskComplexity
	if m.MarketingBudgetShare != nil {
		e.BudgetShare = *m.MarketingBudgetShare
	}
	switch {
	case m.ChurnRateImproved != nil:
		e.Churn = *m.ChurnRateImproved
	case m.ChurnRate != nil:
		e.Churn = *m.ChurnRate
	}
	plays := float64(len(m.ScenarioPlays))
	e.Confidence = math.Max(1, math.Min(10, 5+e.ROI/40+plays*0.5-e.Churn/25))
	return e
}
