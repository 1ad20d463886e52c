package scenario

import (
	"regexp"
	"strings"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
	"github.com/AngelCh415/FUNNEL_GO/internal/traffic"
)

// Fallback is used whenever the active scenario id does not resolve.
var Fallback = models.Scenario{ID: "base", Name: "Base", Adjustments: map[string]models.Adjustment{}}

// Checked in this order; the first match wins.
var patterns = []struct {
	archetype Archetype
	re        *regexp.Regexp
}{
	{Sales, regexp.MustCompile(`(sales|no-marketing|cold|outbound-only|bare|только продаж)`)},
	{Land, regexp.MustCompile(`(land|expand|retention|loyal|aftermarket|referral|alumni|service|telemed|enterprise|partner|grant|success|mastermind|loyalty|alliance)`)},
	{Aggressive, regexp.MustCompile(`(aggressive|hyper|scale|max|rocket|blitz|accelerate)`)},
	{Moderate, regexp.MustCompile(`(growth|improved|evergreen|launch|digitization|promo|telemed|service|boost|expansion|animation|productized)`)},
	{Base, regexp.MustCompile(`(default|base|current|standard|steady|now|текущ)`)},
}

// Classify infers the archetype from "<id> <name>". A nil scenario is Base;
// a scenario matching nothing is Moderate.
func Classify(s *models.Scenario) Archetype {
	if s == nil {
		return Base
	}
	key := strings.ToLower(s.ID + " " + s.Name)
	for _, p := range patterns {
		if p.re.MatchString(key) {
			return p.archetype
		}
	}
	return Moderate
}

// Meta resolves the budget and narrative for a scenario. Explicit values on
// the scenario win over the archetype defaults; fallbackChannels feed the
// archetype's traffic strategy when the scenario has no mix of its own.
func Meta(s *models.Scenario, fallbackChannels []models.TrafficChannel) models.ScenarioMeta {
	if s == nil {
		p := profiles[Base]
		return models.ScenarioMeta{
			ShareOfRevenue: models.Float(p.ShareOfRevenue),
			Label:          p.Label,
			Status:         p.Status,
			Description:    p.Description,
			Plays:          append([]string(nil), p.Plays...),
			TrafficMix:     p.TrafficStrategy(fallbackChannels),
		}
	}
	p := ProfileOf(Classify(s))

	share := p.ShareOfRevenue
	var label, note string
	if s.Budget != nil {
		if s.Budget.ShareOfRevenue != nil {
			share = *s.Budget.ShareOfRevenue
		}
		label, note = s.Budget.Label, s.Budget.Note
	}
	class := BudgetClassification(&share)

	plays := p.Plays
	if len(s.Plays) > 0 {
		plays = s.Plays
	}
	var mix []models.TrafficChannel
	if len(s.TrafficMix) > 0 {
		mix = traffic.NormalizeShares(s.TrafficMix)
	} else {
		mix = p.TrafficStrategy(fallbackChannels)
	}

	return models.ScenarioMeta{
		ShareOfRevenue: models.Float(share),
		Label:          firstNonEmpty(label, p.Label, class.Label),
		Status:         firstNonEmpty(note, p.Status, class.Status),
		Description:    firstNonEmpty(s.Description, p.Description),
		Plays:          append([]string(nil), plays...),
		TrafficMix:     mix,
	}
}

// Find returns the scenario with the given id, or Fallback.
func Find(scenarios []models.Scenario, id string) models.Scenario {
	for _, s := range scenarios {
		if s.ID == id {
			return s
		}
	}
	return Fallback
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
