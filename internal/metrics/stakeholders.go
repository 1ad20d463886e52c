package metrics

import (
	"encoding/json"

	"github.com/spf13/cast"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
)

const (
	KPISourceStage  = "stage"
	KPISourceMetric = "metric"
)

// KPIValue is a stakeholder KPI resolved against computed metrics. Base and
// Improved are nil when the KPI points at something that does not exist.
type KPIValue struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Format      string   `json:"format,omitempty"`
	Suffix      string   `json:"suffix,omitempty"`
	Base        *float64 `json:"base"`
	Improved    *float64 `json:"improved"`
	Delta       *float64 `json:"delta"`
}

type StakeholderView struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Role         string     `json:"role,omitempty"`
	Avatar       string     `json:"avatar,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	KPIs         []KPIValue `json:"kpis"`
	Improvements []string   `json:"improvements"`
}

// ResolveStakeholderKPIs evaluates every stakeholder KPI. Stage KPIs read a
// numeric field of the stage metrics (baseValue/improvedValue by default),
// metric KPIs read a top-level numeric field of m. A missing improved value
// falls back to the base one.
func ResolveStakeholderKPIs(stakeholders []models.Stakeholder, m models.Metrics) []StakeholderView {
	top := fieldsOf(m)
	stages := make(map[string]map[string]any, len(m.Stages))
	for _, st := range m.Stages {
		if _, ok := stages[st.ID]; !ok {
			stages[st.ID] = fieldsOf(st)
		}
	}

	out := make([]StakeholderView, 0, len(stakeholders))
	for _, sh := range stakeholders {
		v := StakeholderView{
			ID:           sh.ID,
			Name:         sh.Name,
			Role:         sh.Role,
			Avatar:       sh.Avatar,
			Summary:      sh.Summary,
			KPIs:         make([]KPIValue, 0, len(sh.KPIs)),
			Improvements: append([]string{}, sh.Improvements...),
		}
		for _, k := range sh.KPIs {
			kv := KPIValue{ID: k.ID, Label: k.Label, Description: k.Description, Format: k.Format, Suffix: k.Suffix}
			switch k.Source {
			case KPISourceStage:
				if fields, ok := stages[k.StageID]; ok && k.StageID != "" {
					kv.Base = numField(fields, firstNonEmpty(k.BaseField, "baseValue"))
					kv.Improved = numField(fields, firstNonEmpty(k.ImprovedField, "improvedValue"))
				}
			case KPISourceMetric:
				if k.BasePath != "" {
					kv.Base = numField(top, k.BasePath)
				}
				if k.ImprovedPath != "" {
					kv.Improved = numField(top, k.ImprovedPath)
				}
			}
			if kv.Improved == nil {
				kv.Improved = kv.Base
			}
			if kv.Base != nil && kv.Improved != nil {
				kv.Delta = models.Float(*kv.Improved - *kv.Base)
			}
			v.KPIs = append(v.KPIs, kv)
		}
		out = append(out, v)
	}
	return out
}

// fieldsOf flattens v into its JSON field map, so KPIs address fields by
// their wire names.
func fieldsOf(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func numField(fields map[string]any, name string) *float64 {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return nil
	}
	switch raw.(type) {
	case float64, string, bool:
	default:
		return nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil
	}
	return &f
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}
