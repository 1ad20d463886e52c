package compare

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Dimension is one axis of the side-by-side verdict.
type Dimension struct {
	ID            string
	Label         string
	LowerIsBetter bool
	Tolerance     float64
	Value         func(Evaluation) float64
}

// Dimensions are evaluated in this order.
var Dimensions = []Dimension{
	{ID: "cost", Label: "Cost", LowerIsBetter: true, Tolerance: 0.07, Value: func(e Evaluation) float64 { return e.Cost }},
	{ID: "ease", Label: "Ease of launch", LowerIsBetter: true, Tolerance: 0.08, Value: func(e Evaluation) float64 { return e.Complexity }},
	{ID: "result", Label: "Result", Tolerance: 0.05, Value: func(e Evaluation) float64 { return e.Result }},
	{ID: "speed", Label: "Payback speed", LowerIsBetter: true, Tolerance: 0.10, Value: func(e Evaluation) float64 { return e.Speed }},
	{ID: "confidence", Label: "Confidence", Tolerance: 0.05, Value: func(e Evaluation) float64 { return e.Confidence }},
}

type Item struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Winner      Winner  `json:"winner"`
	Left        float64 `json:"left"`
	Right       float64 `json:"right"`
	LeftText    string  `json:"leftText"`
	RightText   string  `json:"rightText"`
	Description string  `json:"description"`
}

// immediatePayback is the payback below which the speed reads "immediate".
const immediatePayback = 0.2

type textFormat struct{ p *message.Printer }

func newTextFormat(locale string) textFormat {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Russian
	}
	return textFormat{p: message.NewPrinter(tag)}
}

func (f textFormat) money(v float64) string {
	return f.p.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
}

func (f textFormat) share(v float64) string {
	return f.p.Sprint(number.Percent(v, number.MaxFractionDigits(1)))
}

func (f textFormat) decimal(v float64) string {
	return f.p.Sprint(number.Decimal(v, number.MaxFractionDigits(1)))
}

func (f textFormat) months(v float64) string {
	if v <= immediatePayback {
		return "immediate"
	}
	return f.decimal(v) + " mo"
}

func (f textFormat) describe(id string, e Evaluation) string {
	switch id {
	case "cost":
		return f.money(e.Cost) + " · " + f.share(max(0, e.BudgetShare))
	case "ease":
		return fmt.Sprintf("Complexity: %s · Stages: %d", f.decimal(max(0, e.Complexity)), e.StagesCount)
	case "result":
		return f.money(e.Result) + " · Δ " + f.decimal(e.DeltaPercent) + "%"
	case "speed":
		return f.months(e.Speed)
	case "confidence":
		return "Confidence: " + f.decimal(max(0, e.Confidence)) + "/10"
	}
	return ""
}

// Summary walks every dimension and explains who wins it.
func Summary(left, right Evaluation, locale string) []Item {
	f := newTextFormat(locale)
	out := make([]Item, 0, len(Dimensions))
	for _, d := range Dimensions {
		l, r := d.Value(left), d.Value(right)
		it := Item{
			ID:        d.ID,
			Label:     d.Label,
			Winner:    PickWinner(&l, &r, Options{LowerIsBetter: d.LowerIsBetter, Tolerance: d.Tolerance}),
			Left:      l,
			Right:     r,
			LeftText:  f.describe(d.ID, left),
			RightText: f.describe(d.ID, right),
		}
		switch it.Winner {
		case Left:
			it.Description = fmt.Sprintf("%s wins • %s vs %s: %s", left.Label, it.LeftText, right.Label, it.RightText)
		case Right:
			it.Description = fmt.Sprintf("%s wins • %s vs %s: %s", right.Label, it.RightText, left.Label, it.LeftText)
		default:
			it.Description = "Roughly equal"
		}
		out = append(out, it)
	}
	return out
}

// Overall is the side that wins more dimensions.
func Overall(items []Item) Winner {
	score := 0
	for _, it := range items {
		switch it.Winner {
		case Left:
			score++
		case Right:
			score--
		}
	}
	switch {
	case score > 0:
		return Left
	case score < 0:
		return Right
	}
	return Tie
}
