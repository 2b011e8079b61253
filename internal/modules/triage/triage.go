// Package triage assigns a category and a priority score to a citizen report.
//
// Categorization is a keyword table evaluated in order. Priority comes from an
// LLM completion that is parsed and clamped to 1..10; when the model is
// unavailable the pipeline falls back to a neutral default so a report is never
// blocked on triage.
package triage

import "context"

type Category string

const (
	CategoryGarbage  Category = "Garbage"
	CategoryPothole  Category = "Pothole"
	CategoryLighting Category = "Lighting"
	CategoryWater    Category = "Water"
	CategoryOther    Category = "Other"
)

type Tier string

const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierHigh     Tier = "high"
	TierCritical Tier = "critical"
)

const (
	SourceLLM     = "llm"
	SourceDefault = "default"
)

const (
	MinScore     = 1
	MaxScore     = 10
	DefaultScore = 5
)

type Submission struct {
	Title       string
	Description string
	PhotoURL    string
}

type Score struct {
	Value  int    `json:"value"`
	Tier   Tier   `json:"tier"`
	Source string `json:"source"`
	Raw    string `json:"raw,omitempty"`
}

type Result struct {
	Category Category `json:"category"`
	Score    Score    `json:"score"`
}

type PriorityScorer interface {
	Score(ctx context.Context, sub Submission) (Score, error)
}

// DefaultScoreValue is the neutral score used when no model answer is available.
func DefaultScoreValue() Score {
	return Score{Value: DefaultScore, Tier: TierFor(DefaultScore), Source: SourceDefault}
}
