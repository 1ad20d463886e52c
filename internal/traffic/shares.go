// Package traffic redistributes acquisition channel shares so that a mix
// always adds up to exactly 100.
package traffic

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
)

// RankOptions controls EmphasizeByRank. Zero fields take the defaults
// Top=2, Boost=1.2, Tail=0.9.
type RankOptions struct {
	Top   int
	Boost float64
	Tail  float64
}

// KeywordOptions controls EmphasizeKeywords. Zero weights take the defaults
// PositiveWeight=1.25, FallbackWeight=0.9.
type KeywordOptions struct {
	PositivePattern *regexp.Regexp
	PositiveWeight  float64
	FallbackWeight  float64
}

// NormalizeShares rescales shares to integer percents summing to 100.
// Every channel but the last is rounded; the last one absorbs the remainder,
// so the result depends on input order.
func NormalizeShares(channels []models.TrafficChannel) []models.TrafficChannel {
	out := make([]models.TrafficChannel, 0, len(channels))
	if len(channels) == 0 {
		return out
	}
	total := 0.0
	for _, c := range channels {
		total += nonNeg(c.Share)
	}
	remainder := 100.0
	last := len(channels) - 1
	for i, c := range channels {
		base := 100 / float64(len(channels))
		if total > 0 {
			base = nonNeg(c.Share) / total * 100
		}
		var v float64
		if i == last {
			v = math.Max(0, remainder)
		} else {
			v = math.Min(remainder, roundHalfUp(base))
		}
		remainder -= v
		if c.ID == "" {
			c.ID = fmt.Sprintf("traffic-%d", i)
		}
		c.Share = v
		out = append(out, c)
	}
	return out
}

// EmphasizeByRank boosts the top-N channels by share and damps the rest.
func EmphasizeByRank(channels []models.TrafficChannel, opt RankOptions) []models.TrafficChannel {
	if len(channels) == 0 {
		return []models.TrafficChannel{}
	}
	if opt.Top == 0 {
		opt.Top = 2
	}
	if opt.Boost == 0 {
		opt.Boost = 1.2
	}
	if opt.Tail == 0 {
		opt.Tail = 0.9
	}
	normalized := NormalizeShares(channels)
	order := make([]int, len(normalized))
	for i := range order {
		order[i] = i
	}
	// stable: equal shares keep array order
	sort.SliceStable(order, func(a, b int) bool {
		return normalized[order[a]].Share > normalized[order[b]].Share
	})
	weights := make([]float64, len(normalized))
	for pos, idx := range order {
		if pos < opt.Top {
			weights[idx] = opt.Boost
		} else {
			weights[idx] = opt.Tail
		}
	}
	for i := range normalized {
		normalized[i].Share *= weights[i]
	}
	return NormalizeShares(normalized)
}

// EmphasizeKeywords weights channels whose "id name" matches the pattern.
func EmphasizeKeywords(channels []models.TrafficChannel, opt KeywordOptions) []models.TrafficChannel {
	if len(channels) == 0 {
		return []models.TrafficChannel{}
	}
	if opt.PositiveWeight == 0 {
		opt.PositiveWeight = 1.25
	}
	if opt.FallbackWeight == 0 {
		opt.FallbackWeight = 0.9
	}
	normalized := NormalizeShares(channels)
	for i, c := range normalized {
		key := strings.ToLower(c.ID + " " + c.Name)
		w := opt.FallbackWeight
		if opt.PositivePattern != nil && opt.PositivePattern.MatchString(key) {
			w = opt.PositiveWeight
		}
		normalized[i].Share = c.Share * w
	}
	return NormalizeShares(normalized)
}

// Total sums the shares of a mix.
func Total(channels []models.TrafficChannel) float64 {
	sum := 0.0
	for _, c := range channels {
		sum += c.Share
	}
	return sum
}

func nonNeg(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// roundHalfUp matches the rounding used for displayed percents (2.5 -> 3).
func roundHalfUp(v float64) float64 { return math.Floor(v + 0.5) }
