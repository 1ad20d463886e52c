package models

type StageMode string

const (
	ModePercent  StageMode = "percent"
	ModeAbsolute StageMode = "absolute"
)

// RetentionZoneID marks the zone whose stages feed the churn summary.
const RetentionZoneID = "retention"

type Task struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type TrafficChannel struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Share float64 `json:"share"`
	Note  string  `json:"note"`
}

// Stage is one funnel step. Conversion is nil only for hand-built states;
// the normalizer always fills it.
type Stage struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Mode            StageMode        `json:"mode"`
	Value           float64          `json:"value"`
	Conversion      *float64         `json:"conversion"`
	Benchmark       *float64         `json:"benchmark"`
	ZoneID          string           `json:"zoneId"`
	Note            string           `json:"note"`
	Tasks           []Task           `json:"tasks"`
	TrafficChannels []TrafficChannel `json:"trafficChannels"`
}

type Zone struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Lever struct {
	ID              string   `json:"id"`
	StageID         string   `json:"stageId"`
	ConversionBoost float64  `json:"conversionBoost"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Tactics         []string `json:"tactics"`
}

// Adjustment holds percentage deltas; absent fields contribute nothing.
type Adjustment struct {
	Conversion *float64 `json:"conversion,omitempty"`
	Value      *float64 `json:"value,omitempty"`
}

type Budget struct {
	ShareOfRevenue *float64 `json:"shareOfRevenue,omitempty"`
	Label          string   `json:"label,omitempty"`
	Note           string   `json:"note,omitempty"`
}

type Scenario struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Adjustments map[string]Adjustment `json:"adjustments"`
	Zones       map[string]Adjustment `json:"zones"`
	Budget      *Budget               `json:"budget,omitempty"`
	Plays       []string              `json:"plays"`
	TrafficMix  []TrafficChannel      `json:"trafficMix,omitempty"`
}

type Finances struct {
	AvgCheck float64 `json:"avgCheck"`
	CPL      float64 `json:"cpl"`
	CAC      float64 `json:"cac"`
	LTV      float64 `json:"ltv"`
}

// StakeholderKPI points either at a stage field (Source "stage") or at a
// top-level metrics field (Source "metric").
type StakeholderKPI struct {
	ID            string `json:"id,omitempty"`
	Label         string `json:"label"`
	Description   string `json:"description,omitempty"`
	Source        string `json:"source,omitempty"`
	StageID       string `json:"stageId,omitempty"`
	BaseField     string `json:"baseField,omitempty"`
	ImprovedField string `json:"improvedField,omitempty"`
	BasePath      string `json:"basePath,omitempty"`
	ImprovedPath  string `json:"improvedPath,omitempty"`
	Format        string `json:"format,omitempty"`
	Suffix        string `json:"suffix,omitempty"`
}

type Stakeholder struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Role         string           `json:"role"`
	Avatar       string           `json:"avatar"`
	Summary      string           `json:"summary"`
	KPIs         []StakeholderKPI `json:"kpis"`
	Improvements []string         `json:"improvements"`
}

// FunnelState is the aggregate root owned by an editing session.
type FunnelState struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Logo            string           `json:"logo"`
	Stages          []Stage          `json:"stages"`
	Zones           []Zone           `json:"zones"`
	Levers          []Lever          `json:"levers"`
	Finances        Finances         `json:"finances"`
	Scenarios       []Scenario       `json:"scenarios"`
	TrafficChannels []TrafficChannel `json:"trafficChannels"`
	Stakeholders    []Stakeholder    `json:"stakeholders"`
	Locale          string           `json:"locale,omitempty"`
}

// ScenarioMeta is the resolved budget/narrative view of the active scenario.
// A nil ShareOfRevenue selects the CPL-based spend estimate.
type ScenarioMeta struct {
	ShareOfRevenue *float64         `json:"shareOfRevenue"`
	Label          string           `json:"label"`
	Status         string           `json:"status"`
	Description    string           `json:"description"`
	Plays          []string         `json:"plays"`
	TrafficMix     []TrafficChannel `json:"trafficMix"`
}

type StageMetrics struct {
	Stage
	Index              int     `json:"index"`
	BaseValue          float64 `json:"baseValue"`
	BaseConversion     float64 `json:"baseConversion"`
	ImprovedValue      float64 `json:"improvedValue"`
	ImprovedConversion float64 `json:"improvedConversion"`
	Drop               float64 `json:"drop"`
	ImprovedDrop       float64 `json:"improvedDrop"`
	ScenarioBoost      float64 `json:"scenarioBoost"`
	LeverBoost         float64 `json:"leverBoost"`
}

type RetentionSummary struct {
	BaseCustomers         float64 `json:"baseCustomers"`
	RetainedBase          float64 `json:"retainedBase"`
	RetainedImproved      float64 `json:"retainedImproved"`
	LoyalShare            float64 `json:"loyalShare"`
	LoyalShareImproved    float64 `json:"loyalShareImproved"`
	AtRiskShare           float64 `json:"atRiskShare"`
	AtRiskShareImproved   float64 `json:"atRiskShareImproved"`
	SleepingShare         float64 `json:"sleepingShare"`
	SleepingShareImproved float64 `json:"sleepingShareImproved"`
	ChurnRate             float64 `json:"churnRate"`
	ChurnRateImproved     float64 `json:"churnRateImproved"`
}

// Metrics is derived from a FunnelState and never persisted.
type Metrics struct {
	Stages                []StageMetrics    `json:"stages"`
	TopValue              float64           `json:"topValue"`
	FinalBase             float64           `json:"finalBase"`
	FinalImproved         float64           `json:"finalImproved"`
	DeltaUnits            float64           `json:"deltaUnits"`
	DeltaPercent          float64           `json:"deltaPercent"`
	SpendBase             float64           `json:"spendBase"`
	SpendImproved         float64           `json:"spendImproved"`
	MarketingBudgetShare  *float64          `json:"marketingBudgetShare"`
	MarketingBudgetLabel  string            `json:"marketingBudgetLabel"`
	MarketingBudgetStatus string            `json:"marketingBudgetStatus"`
	ScenarioDescription   string            `json:"scenarioDescription"`
	ScenarioPlays         []string          `json:"scenarioPlays"`
	TrafficMix            []TrafficChannel  `json:"trafficMix"`
	RevenueBase           float64           `json:"revenueBase"`
	RevenueImproved       float64           `json:"revenueImproved"`
	ROIBase               float64           `json:"roiBase"`
	ROIImproved           float64           `json:"roiImproved"`
	PaybackMonths         float64           `json:"paybackMonths"`
	GrossMarginBase       float64           `json:"grossMarginBase"`
	GrossMarginImproved   float64           `json:"grossMarginImproved"`
	Bottleneck            *StageMetrics     `json:"bottleneck"`
	Insight               string            `json:"insight"`
	ChurnRate             *float64          `json:"churnRate"`
	ChurnRateImproved     *float64          `json:"churnRateImproved"`
	RetentionSummary      *RetentionSummary `json:"retentionSummary"`
	LTV                   float64           `json:"ltv"`
}

// Float returns a pointer to v; handy for optional numeric fields.
func Float(v float64) *float64 { return &v }
