package service

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultRecommendationLimit caps the suggestions kept from one response.
	DefaultRecommendationLimit = 5

	degradedSavingsKWh = 10
	degradedSavingsUSD = 1.2
	degradedPriority   = "medium"
)

var (
	jsonArrayPattern     = regexp.MustCompile(`\[[\s\S]*\]`)
	numberedLinePattern  = regexp.MustCompile(`^\d+\.\s*`)
	leadingNumberPattern = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)`)
)

// Suggestion is one energy-saving action proposed by the model.
type Suggestion struct {
	Action     string    `json:"action"`
	SavingsKWh flexFloat `json:"savings_kwh"`
	SavingsUSD flexFloat `json:"savings_usd"`
	Priority   string    `json:"priority"`
	Steps      []string  `json:"steps"`
}

// RecommendationResult is either a StructuredResult or a DegradedResult.
type RecommendationResult interface {
	Suggestions() []Suggestion
	Degraded() bool
}

// StructuredResult was decoded from a JSON array in the response.
type StructuredResult struct {
	Items []Suggestion
}

func (r StructuredResult) Suggestions() []Suggestion { return r.Items }
func (r StructuredResult) Degraded() bool            { return false }

// DegradedResult was recovered from numbered lines with default savings.
type DegradedResult struct {
	Items []Suggestion
}

func (r DegradedResult) Suggestions() []Suggestion { return r.Items }
func (r DegradedResult) Degraded() bool            { return true }

// ParseRecommendations decodes the first JSON array found in text and falls back to the
// numbered-line parser when there is none or it does not decode.
func ParseRecommendations(text string, limit int) RecommendationResult {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	if raw := jsonArrayPattern.FindString(text); raw != "" {
		var items []Suggestion
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			kept := make([]Suggestion, 0, len(items))
			for _, item := range items {
				item.Action = strings.TrimSpace(item.Action)
				if item.Action == "" {
					continue
				}
				if item.Steps == nil {
					item.Steps = []string{}
				}
				kept = append(kept, item)
				if len(kept) == limit {
					break
				}
			}
			return StructuredResult{Items: kept}
		}
	}
	return DegradedResult{Items: ParseDegraded(text, limit)}
}

// ParseDegraded treats every "N." line as a new action and following non-blank lines as
// its steps.
func ParseDegraded(text string, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	items := []Suggestion{}
	var current *Suggestion
	for _, line := range strings.Split(text, "\n") {
		if numberedLinePattern.MatchString(line) {
			if current != nil {
				items = append(items, *current)
			}
			current = &Suggestion{
				Action:     strings.TrimSpace(numberedLinePattern.ReplaceAllString(line, "")),
				SavingsKWh: degradedSavingsKWh,
				SavingsUSD: degradedSavingsUSD,
				Priority:   degradedPriority,
				Steps:      []string{},
			}
			continue
		}
		if current != nil && strings.TrimSpace(line) != "" {
			current.Steps = append(current.Steps, strings.TrimSpace(line))
		}
	}
	if current != nil {
		items = append(items, *current)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// flexFloat accepts a JSON number, a numeric string or null. Strings with a unit such as
// "15 kWh" keep their leading number; anything else decodes as 0 rather than failing the array.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = 0
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*f = flexFloat(leadingNumber(s))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = flexFloat(v)
	}
	return nil
}

func leadingNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, "$", ""))
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return v
	}
	match := leadingNumberPattern.FindString(s)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}
