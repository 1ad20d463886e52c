// Package scenario infers a budget archetype from a scenario's id and name
// and resolves the budget share, narrative and traffic mix that go with it.
package scenario

import (
	"regexp"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
	"github.com/AngelCh415/FUNNEL_GO/internal/traffic"
)

// Archetype is the budget-strategy family of a scenario.
type Archetype string

const (
	Base       Archetype = "base"
	Moderate   Archetype = "moderate"
	Aggressive Archetype = "aggressive"
	Land       Archetype = "land"
	Sales      Archetype = "sales"
)

// Profile is the static default attached to an archetype.
type Profile struct {
	ShareOfRevenue  float64
	Label           string
	Status          string
	Description     string
	Plays           []string
	TrafficStrategy func([]models.TrafficChannel) []models.TrafficChannel
}

var (
	aggressiveChannels = regexp.MustCompile(`(?i)(paid|performance|ads|abm|outbound|events|demand|growth|launch|promo)`)
	landChannels       = regexp.MustCompile(`(?i)(retention|ref|loyal|crm|community|success|customer|advocacy|partner)`)
)

var profiles = map[Archetype]Profile{
	Base: {
		ShareOfRevenue: 0.05,
		Label:          "Holding steady",
		Status:         "5% of revenue: keeping the funnel stable.",
		Description:    "Baseline mode: keep the core channels running and focus on efficiency.",
		Plays:          []string{"Fine-tune unit economics", "Local experiments without sharp spend increases"},
		TrafficStrategy: func(cs []models.TrafficChannel) []models.TrafficChannel {
			return traffic.NormalizeShares(cs)
		},
	},
	Moderate: {
		ShareOfRevenue: 0.1,
		Label:          "Moderate growth",
		Status:         "10% of revenue: activating new segments and experiments.",
		Description:    "Add campaigns and automations on top of the current funnel to grow.",
		Plays:          []string{"Relaunch lead magnets and content", "CRM automation of nurture sequences"},
		TrafficStrategy: func(cs []models.TrafficChannel) []models.TrafficChannel {
			return traffic.EmphasizeByRank(cs, traffic.RankOptions{Top: 2, Boost: 1.18, Tail: 0.95})
		},
	},
	Aggressive: {
		ShareOfRevenue: 0.18,
		Label:          "Aggressive growth",
		Status:         "Investing more than 15% of revenue for fast scaling.",
		Description:    "Accelerate performance marketing, ABM and product-led initiatives.",
		Plays:          []string{"Weekly performance sprints and growth experiments", "Deep CAC/LTV analytics and cohort management"},
		TrafficStrategy: func(cs []models.TrafficChannel) []models.TrafficChannel {
			return traffic.EmphasizeKeywords(cs, traffic.KeywordOptions{
				PositivePattern: aggressiveChannels,
				PositiveWeight:  1.35,
				FallbackWeight:  0.8,
			})
		},
	},
	Land: {
		ShareOfRevenue: 0.12,
		Label:          "Land & Expand",
		Status:         "12% of revenue: retention, loyalty and expansion inside accounts.",
		Description:    "Customer marketing, upsell and referral programs drive growth.",
		Plays:          []string{"Quarterly business reviews and customer marketing", "Loyalty programs and referral loops"},
		TrafficStrategy: func(cs []models.TrafficChannel) []models.TrafficChannel {
			return traffic.EmphasizeKeywords(cs, traffic.KeywordOptions{
				PositivePattern: landChannels,
				PositiveWeight:  1.3,
				FallbackWeight:  0.9,
			})
		},
	},
	Sales: {
		ShareOfRevenue: 0.03,
		Label:          "Sales only",
		Status:         "Marketing below 5%: SDR teams and cold touches carry the pipeline.",
		Description:    "Marketing is practically absent: cold sales and partner deals only.",
		Plays:          []string{"Refresh the SDR playbook and scripts", "Sales enablement instead of marketing activity"},
		TrafficStrategy: func([]models.TrafficChannel) []models.TrafficChannel {
			return []models.TrafficChannel{
				{ID: "cold-outbound", Name: "Cold outbound", Share: 55, Note: "SDR cadences, LinkedIn outreach, calls."},
				{ID: "email-sequences", Name: "Email sequences and nurture", Share: 25, Note: "Multichannel emails, automated follow-ups."},
				{ID: "partner-intros", Name: "Partners and on-site meetings", Share: 20, Note: "Partner intros, demos at the client's site."},
			}
		},
	},
}

// ProfileOf returns the static defaults for an archetype, falling back to Base.
func ProfileOf(a Archetype) Profile {
	if p, ok := profiles[a]; ok {
		return p
	}
	return profiles[Base]
}

// Classification is the label/status pair for a budget share.
type Classification struct {
	Label  string `json:"label"`
	Status string `json:"status"`
}

// BudgetClassification maps a share of revenue (0.1 == 10%) to a ladder step.
func BudgetClassification(share *float64) Classification {
	switch {
	case share == nil || *share != *share:
		return Classification{Label: "—", Status: "No budget data."}
	case *share < 0.05:
		return Classification{Label: "Critical minimum", Status: "Below 5%: marketing is almost absent."}
	case *share < 0.1:
		return Classification{Label: "Holding steady", Status: "5-10% of revenue: supporting sales and awareness."}
	case *share < 0.15:
		return Classification{Label: "Moderate growth", Status: "Around 10% of revenue: growing demand steadily."}
	default:
		return Classification{Label: "Aggressive growth", Status: "Above 15%: betting on scale and market share."}
	}
}
