// Package normalize turns the free-text fields of a maintenance requirement
// into usable scheduling values. Every function here is total: unrecognized
// input resolves to a documented default instead of an error.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"maintcal/internal/model"
)

const (
	DefaultFrequencyDays = 90
	DefaultDurationHours = 2.0
	MaxFrequencyDays     = 365
)

// Source records which branch of a normalizer produced its value.
type Source string

const (
	// Known: matched a keyword or an explicit unit pattern.
	Known Source = "known"
	// Inferred: derived from a bare number without a recognized unit.
	Inferred Source = "inferred"
	// Default: nothing matched; the fallback value was used.
	Default Source = "default"
)

// FrequencyResult is a normalized interval between services.
type FrequencyResult struct {
	Days    int    `json:"days"`
	Source  Source `json:"source"`
	Matched string `json:"matched,omitempty"`
}

// DurationResult is a normalized per-unit service duration.
type DurationResult struct {
	Hours  float64 `json:"hours"`
	Source Source  `json:"source"`
}

type keyword struct {
	days  int
	words []string
}

// frequencyKeywords is checked in order. Entries whose words contain another
// entry's word as a substring ("bimensual" ⊃ "mensual", "cuatrimestral" ⊃
// "trimestral", "biweekly" ⊃ "weekly") must come first.
var frequencyKeywords = []keyword{
	{1, []string{"diario", "diaria", "daily"}},
	{15, []string{"quincenal", "bisemanal", "biweekly", "bi-weekly", "fortnightly"}},
	{7, []string{"semanal", "weekly"}},
	{60, []string{"bimestral", "bimensual", "bimonthly", "bi-monthly"}},
	{120, []string{"cuatrimestral", "cuatrimensual", "four-monthly", "every four months"}},
	{90, []string{"trimestral", "quarterly"}},
	{180, []string{"semestral", "semianual", "semiannual", "semi-annual", "half-yearly"}},
	{30, []string{"mensual", "monthly"}},
	{365, []string{"anual", "annual", "yearly"}},
}

var (
	monthsPattern = regexp.MustCompile(`(?:every|cada)?\s*(\d+)\s*(?:months?|mes(?:es)?)\b`)
	daysPattern   = regexp.MustCompile(`(?:every|cada)?\s*(\d+)\s*(?:days?|d[ií]as?)\b`)
	weeksPattern  = regexp.MustCompile(`(?:every|cada)?\s*(\d+)\s*(?:weeks?|semanas?)\b`)

	numberPattern   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	hourIndicator   = regexp.MustCompile(`\d\s*h(?:rs?|s)?\b|\bh\b|horas?|hours?`)
	minuteIndicator = regexp.MustCompile(`min`)

	trailingNumberPattern = regexp.MustCompile(`^(\D*?)(\d+(?:[.,]\d+)?)\s*(h|hrs?|horas?|hours?)?\s*$`)
	unitWordPattern       = regexp.MustCompile(`años?|years?|mes|months?|semanas?|weeks?|d[ií]as?|days?|vez|veces|times`)
)

// Frequency parses a cadence description into days between services.
// The result is always >= 1.
func Frequency(text string) FrequencyResult {
	return FrequencyWithDefault(text, DefaultFrequencyDays)
}

// FrequencyWithDefault is Frequency with a caller-supplied fallback.
func FrequencyWithDefault(text string, fallback int) FrequencyResult {
	if fallback < 1 {
		fallback = DefaultFrequencyDays
	}
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return FrequencyResult{Days: fallback, Source: Default}
	}

	for _, kw := range frequencyKeywords {
		for _, w := range kw.words {
			if strings.Contains(s, w) {
				return FrequencyResult{Days: kw.days, Source: Known, Matched: w}
			}
		}
	}

	if n, ok := matchCount(monthsPattern, s); ok {
		return FrequencyResult{Days: atLeastOne(n * 30), Source: Known, Matched: "months"}
	}
	if n, ok := matchCount(daysPattern, s); ok {
		return FrequencyResult{Days: atLeastOne(n), Source: Known, Matched: "days"}
	}
	if n, ok := matchCount(weeksPattern, s); ok {
		return FrequencyResult{Days: atLeastOne(n * 7), Source: Known, Matched: "weeks"}
	}

	// A bare trailing number counts as days, or as hours with an hour
	// suffix. Any other unit word ("cada 2 años", "2 veces por semana")
	// falls through to the default.
	if m := trailingNumberPattern.FindStringSubmatch(s); m != nil && !unitWordPattern.MatchString(m[1]) {
		v, err := parseNumber(m[2])
		if err == nil {
			if m[3] != "" {
				days := int(math.Round(v / 24))
				return FrequencyResult{Days: atLeastOne(days), Source: Inferred, Matched: "hours"}
			}
			days := int(v)
			if days > MaxFrequencyDays {
				days = MaxFrequencyDays
			}
			return FrequencyResult{Days: atLeastOne(days), Source: Inferred, Matched: "number"}
		}
	}

	return FrequencyResult{Days: fallback, Source: Default}
}

// Duration parses a per-service duration into fractional hours. Empty input,
// input without a number, or a non-positive number yield 2 hours.
func Duration(text string) DurationResult {
	return DurationWithDefault(text, DefaultDurationHours)
}

// DurationWithDefault is Duration with a caller-supplied fallback.
func DurationWithDefault(text string, fallback float64) DurationResult {
	if fallback <= 0 {
		fallback = DefaultDurationHours
	}
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return DurationResult{Hours: fallback, Source: Default}
	}
	raw := numberPattern.FindString(s)
	if raw == "" {
		return DurationResult{Hours: fallback, Source: Default}
	}
	v, err := parseNumber(raw)
	if err != nil || v <= 0 {
		return DurationResult{Hours: fallback, Source: Default}
	}
	if minuteIndicator.MatchString(s) {
		return DurationResult{Hours: v / 60, Source: Known}
	}
	if hourIndicator.MatchString(s) {
		return DurationResult{Hours: v, Source: Known}
	}
	return DurationResult{Hours: v, Source: Inferred}
}

var priorityRules = []struct {
	priority model.Priority
	words    []string
}{
	{model.PriorityCritical, []string{"correctivo", "emergencia", "urgente"}},
	{model.PriorityHigh, []string{"calibracion", "calibración", "metrologia", "metrología"}},
	{model.PriorityMedium, []string{"preventivo", "predictivo"}},
}

// Priority classifies a maintenance-type label.
func Priority(maintenanceType string) model.Priority {
	s := strings.ToLower(maintenanceType)
	for _, rule := range priorityRules {
		for _, w := range rule.words {
			if strings.Contains(s, w) {
				return rule.priority
			}
		}
	}
	return model.PriorityLow
}

func matchCount(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseNumber(raw string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
