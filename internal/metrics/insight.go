package metrics

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/AngelCh415/FUNNEL_GO/internal/models"
)

// DefaultLocale is used when a narrator has no locale or an unknown one.
const DefaultLocale = "ru"

// Locales lists the languages the insight text is available in.
var Locales = []string{"ru", "en", "de", "zh"}

// Formatter renders a number for humans.
type Formatter interface {
	Format(v float64) string
}

// NumberFormatter groups thousands the way the locale does and keeps at
// most one fractional digit.
type NumberFormatter struct {
	p *message.Printer
}

func NewNumberFormatter(locale string) NumberFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Russian
	}
	return NumberFormatter{p: message.NewPrinter(tag)}
}

func (f NumberFormatter) Format(v float64) string {
	return f.p.Sprint(number.Decimal(v, number.MaxFractionDigits(1)))
}

type insightText struct {
	loss   string // loss, stage name, extra leads
	stable string
}

var insights = map[string]insightText{
	"ru": {
		loss:   "Самая большая потеря (%s) на этапе «%s». Улучшение конверсии на 5 п.п. даст дополнительно ~%s лидов.",
		stable: "Воронка стабильна, улучшайте верх и удержание одновременно.",
	},
	"en": {
		loss:   "The biggest loss (%s) is at the “%s” stage. A 5 pp conversion lift there adds about %s leads.",
		stable: "The funnel is stable: improve the top and retention together.",
	},
	"de": {
		loss:   "Der größte Verlust (%s) liegt in der Stufe „%s“. +5 Prozentpunkte Conversion bringen etwa %s zusätzliche Leads.",
		stable: "Der Funnel ist stabil: Verbessern Sie Einstieg und Bindung gleichzeitig.",
	},
	"zh": {
		loss:   "最大的流失（%s）发生在“%s”阶段。将转化率提升5个百分点可额外获得约%s个线索。",
		stable: "漏斗稳定，请同时优化顶部流量和留存。",
	},
}

// SupportedLocale reports whether an insight template exists for locale.
func SupportedLocale(locale string) bool {
	_, ok := insights[normLocale(locale)]
	return ok
}

// Narrator writes the one-line insight. The zero value speaks Russian.
type Narrator struct {
	Locale string
	Format Formatter
}

func NewNarrator(locale string) Narrator {
	locale = normLocale(locale)
	if !SupportedLocale(locale) {
		locale = DefaultLocale
	}
	return Narrator{Locale: locale, Format: NewNumberFormatter(locale)}
}

// Insight names the bottleneck and the extra leads a 5 pp lift would bring
// from the stage before it. Without a bottleneck the funnel is "stable".
func (n Narrator) Insight(stages []models.StageMetrics, b *models.StageMetrics) string {
	text, ok := insights[normLocale(n.Locale)]
	if !ok {
		text = insights[DefaultLocale]
	}
	if b == nil {
		return text.stable
	}
	f := n.Format
	if f == nil {
		f = NewNumberFormatter(n.Locale)
	}
	var extra float64
	if i := b.Index - 1; i >= 0 && i < len(stages) {
		extra = stages[i].BaseValue * insightBoost
	}
	return fmt.Sprintf(text.loss, f.Format(b.Drop), b.Name, f.Format(extra))
}

func normLocale(l string) string {
	l = strings.ToLower(strings.TrimSpace(l))
	if i := strings.IndexAny(l, "-_"); i > 0 {
		l = l[:i]
	}
	if l == "" {
		return DefaultLocale
	}
	return l
}
