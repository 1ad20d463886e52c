package ingest

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
	"github.com/AngelCh415/FUNNEL_GO/internal/scenario"
)

const (
	defaultStateID   = "custom"
	defaultLogo      = "📈"
	defaultZoneID    = "marketing"
	defaultZoneColor = "#1d4ed8"
)

// Normalize turns loosely typed input (usually decoded JSON) into a complete
// FunnelState. It never fails: missing or malformed numbers become 0 (or the
// documented default), wrong-typed collections become empty, and entities
// without an id get a positional one. Normalizing its own output is a no-op.
func Normalize(raw any, zonesFallback []models.Zone) models.FunnelState {
	in := obj(raw)

	zones := list(in["zones"])
	var outZones []models.Zone
	if len(zones) > 0 {
		outZones = make([]models.Zone, 0, len(zones))
		for i, z := range zones {
			outZones = append(outZones, normalizeZone(obj(z), i))
		}
	} else {
		outZones = make([]models.Zone, 0, len(zonesFallback))
		for i, z := range zonesFallback {
			if z.ID == "" {
				z.ID = fmt.Sprintf("zone-%d", i)
			}
			outZones = append(outZones, z)
		}
	}

	stages := list(in["stages"])
	outStages := make([]models.Stage, 0, len(stages))
	for i, s := range stages {
		outStages = append(outStages, NormalizeStage(s, i))
	}

	levers := list(in["levers"])
	outLevers := make([]models.Lever, 0, len(levers))
	for i, l := range levers {
		outLevers = append(outLevers, normalizeLever(obj(l), i))
	}

	scenarios := list(in["scenarios"])
	outScenarios := make([]models.Scenario, 0, len(scenarios)+1)
	for i, s := range scenarios {
		outScenarios = append(outScenarios, normalizeScenario(obj(s), i))
	}
	if len(outScenarios) == 0 {
		outScenarios = append(outScenarios, normalizeScenario(map[string]any{
			"id":          scenario.Fallback.ID,
			"name":        scenario.Fallback.Name,
			"adjustments": map[string]any{},
		}, 0))
	}

	channels := list(in["trafficChannels"])
	outChannels := make([]models.TrafficChannel, 0, len(channels))
	for i, c := range channels {
		outChannels = append(outChannels, NormalizeChannel(c, i, "traffic"))
	}

	holders := list(in["stakeholders"])
	outHolders := make([]models.Stakeholder, 0, len(holders))
	for i, h := range holders {
		outHolders = append(outHolders, normalizeStakeholder(obj(h), i))
	}

	fin := obj(in["finances"])
	return models.FunnelState{
		ID:          str(in, "id", defaultStateID),
		Name:        str(in, "name", ""),
		Description: str(in, "description", ""),
		Logo:        str(in, "logo", defaultLogo),
		Stages:      outStages,
		Zones:       outZones,
		Levers:      outLevers,
		Finances: models.Finances{
			AvgCheck: num(fin["avgCheck"], 0),
			CPL:      num(fin["cpl"], 0),
			CAC:      num(fin["cac"], 0),
			LTV:      num(fin["ltv"], 0),
		},
		Scenarios:       outScenarios,
		TrafficChannels: outChannels,
		Stakeholders:    outHolders,
		Locale:          str(in, "locale", ""),
	}
}

// NormalizeStage applies the stage defaults. Absolute stages default their
// conversion to 100, percent stages to 0.
func NormalizeStage(raw any, index int) models.Stage {
	in := obj(raw)
	id := str(in, "id", fmt.Sprintf("stage-%d", index))
	mode := models.ModePercent
	if s, _ := in["mode"].(string); s == string(models.ModeAbsolute) {
		mode = models.ModeAbsolute
	}
	convDefault := 0.0
	if mode == models.ModeAbsolute {
		convDefault = 100
	}

	tasks := list(in["tasks"])
	outTasks := make([]models.Task, 0, len(tasks))
	for i, t := range tasks {
		tm := obj(t)
		outTasks = append(outTasks, models.Task{
			ID:   str(tm, "id", fmt.Sprintf("%s-task-%d", id, i)),
			Text: str(tm, "text", ""),
			Done: truthy(tm["done"]),
		})
	}

	channels := list(in["trafficChannels"])
	outChannels := make([]models.TrafficChannel, 0, len(channels))
	for i, c := range channels {
		outChannels = append(outChannels, NormalizeChannel(c, i, id+"-traffic"))
	}

	return models.Stage{
		ID:              id,
		Name:            str(in, "name", fmt.Sprintf("Stage %d", index+1)),
		Mode:            mode,
		Value:           num(in["value"], 0),
		Conversion:      models.Float(num(in["conversion"], convDefault)),
		Benchmark:       optNum(in["benchmark"]),
		ZoneID:          str(in, "zoneId", defaultZoneID),
		Note:            str(in, "note", ""),
		Tasks:           outTasks,
		TrafficChannels: outChannels,
	}
}

// NormalizeChannel applies channel defaults; missing ids become prefix-index.
func NormalizeChannel(raw any, index int, prefix string) models.TrafficChannel {
	in := obj(raw)
	return models.TrafficChannel{
		ID:    str(in, "id", fmt.Sprintf("%s-%d", prefix, index)),
		Name:  str(in, "name", ""),
		Share: num(in["share"], 0),
		Note:  str(in, "note", ""),
	}
}

func normalizeZone(in map[string]any, index int) models.Zone {
	return models.Zone{
		ID:    str(in, "id", fmt.Sprintf("zone-%d", index)),
		Name:  str(in, "name", fmt.Sprintf("Zone %d", index+1)),
		Color: str(in, "color", defaultZoneColor),
	}
}

func normalizeLever(in map[string]any, index int) models.Lever {
	return models.Lever{
		ID:              str(in, "id", fmt.Sprintf("lever-%d", index)),
		StageID:         str(in, "stageId", ""),
		ConversionBoost: num(in["conversionBoost"], 0),
		Name:            str(in, "name", ""),
		Description:     str(in, "description", ""),
		Tactics:         strs(in["tactics"]),
	}
}

func normalizeScenario(in map[string]any, index int) models.Scenario {
	id := str(in, "id", fmt.Sprintf("scenario-%d", index))
	s := models.Scenario{
		ID:          id,
		Name:        str(in, "name", fmt.Sprintf("Scenario %d", index+1)),
		Description: str(in, "description", ""),
		Adjustments: adjustments(in["adjustments"]),
		Zones:       adjustments(in["zones"]),
		Plays:       strs(in["plays"]),
	}
	if b, ok := in["budget"].(map[string]any); ok {
		s.Budget = &models.Budget{
			ShareOfRevenue: optNum(b["shareOfRevenue"]),
			Label:          str(b, "label", ""),
			Note:           str(b, "note", ""),
		}
	}
	if mix := list(in["trafficMix"]); len(mix) > 0 {
		s.TrafficMix = make([]models.TrafficChannel, 0, len(mix))
		for i, c := range mix {
			s.TrafficMix = append(s.TrafficMix, NormalizeChannel(c, i, "traffic"))
		}
	}
	return s
}

func normalizeStakeholder(in map[string]any, index int) models.Stakeholder {
	kpis := list(in["kpis"])
	out := make([]models.StakeholderKPI, 0, len(kpis))
	for _, k := range kpis {
		km := obj(k)
		out = append(out, models.StakeholderKPI{
			ID:            str(km, "id", ""),
			Label:         str(km, "label", ""),
			Description:   str(km, "description", ""),
			Source:        str(km, "source", ""),
			StageID:       str(km, "stageId", ""),
			BaseField:     str(km, "baseField", ""),
			ImprovedField: str(km, "improvedField", ""),
			BasePath:      str(km, "basePath", ""),
			ImprovedPath:  str(km, "improvedPath", ""),
			Format:        str(km, "format", ""),
			Suffix:        str(km, "suffix", ""),
		})
	}
	return models.Stakeholder{
		ID:           str(in, "id", fmt.Sprintf("stakeholder-%d", index)),
		Name:         str(in, "name", ""),
		Role:         str(in, "role", ""),
		Avatar:       str(in, "avatar", ""),
		Summary:      str(in, "summary", ""),
		KPIs:         out,
		Improvements: strs(in["improvements"]),
	}
}

func adjustments(v any) map[string]models.Adjustment {
	in := obj(v)
	out := make(map[string]models.Adjustment, len(in))
	for k, raw := range in {
		a := obj(raw)
		out[k] = models.Adjustment{
			Conversion: optNum(a["conversion"]),
			Value:      optNum(a["value"]),
		}
	}
	return out
}

// helpers de coerción

func obj(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

// str returns def only when the key is absent or null; an empty string is kept.
func str(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}

func strs(v any) []string {
	l := list(v)
	out := make([]string, 0, len(l))
	for _, item := range l {
		if item == nil {
			continue
		}
		out = append(out, cast.ToString(item))
	}
	return out
}

func num(v any, def float64) float64 {
	if v == nil {
		return def
	}
	f, err := cast.ToFloat64E(trimmed(v))
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// optNum is nil when the value is absent, null or not a finite number.
func optNum(v any) *float64 {
	if v == nil {
		return nil
	}
	f, err := cast.ToFloat64E(trimmed(v))
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func trimmed(v any) any {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0
		}
		return s
	}
	return v
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	default:
		return true
	}
}
