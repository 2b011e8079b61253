package triage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var scorePattern = regexp.MustCompile(`\b\d{1,2}\b`)

// ParseScore extracts the first standalone one or two digit integer from raw
// model output. Output without a number yields DefaultScore.
func ParseScore(raw string) int {
	m := scorePattern.FindString(raw)
	if m == "" {
		return DefaultScore
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return DefaultScore
	}
	return ClampScore(n)
}

func ClampScore(n int) int {
	if n < MinScore {
		return MinScore
	}
	if n > MaxScore {
		return MaxScore
	}
	return n
}

func TierFor(score int) Tier {
	switch s := ClampScore(score); {
	case s >= 9:
		return TierCritical
	case s >= 7:
		return TierHigh
	case s >= 4:
		return TierMedium
	default:
		return TierLow
	}
}

// guidelines are the scoring bands given to the model, in prompt order.
var guidelines = []string{
	"- Major road, highway, public square, school zone, or accident-prone area -> Very High (8-10).",
	"- Multiple lights out in the same stretch -> High (7-9).",
	"- Safety risks (dark alleys, crime-prone areas, bus stops, crossings) -> High (7-10).",
	"- Single light in a residential area with alternate lighting -> Medium (4-6).",
	"- Minor flickering or cosmetic issues -> Low (1-3).",
}

const promptTemplate = `You are a Streetlight Outage Prioritization AI.
Assign a priority score from 1 (least urgent) to 10 (most urgent)
based ONLY on the complaint details below.

Complaint:
- Title: %s
- Description: %s
- Image URL: %s

Scoring Guidelines:
%s

Return ONLY a single integer between 1 and 10 with no explanation.`

func BuildPrompt(sub Submission) string {
	image := strings.TrimSpace(sub.PhotoURL)
	if image == "" {
		image = "No image provided"
	}
	return fmt.Sprintf(promptTemplate,
		strings.TrimSpace(sub.Title), strings.TrimSpace(sub.Description), image,
		strings.Join(guidelines, "\n"))
}

// Completer is the completion surface the scorer needs from an LLM client.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

var ErrIncompleteSubmission = errors.New("title and description are required")

const scoreMaxTokens = 5

type LLMScorer struct {
	client Completer
}

func NewLLMScorer(client Completer) *LLMScorer {
	return &LLMScorer{client: client}
}

func (s *LLMScorer) Score(ctx context.Context, sub Submission) (Score, error) {
	if strings.TrimSpace(sub.Title) == "" || strings.TrimSpace(sub.Description) == "" {
		return Score{}, ErrIncompleteSubmission
	}
	if s == nil || s.client == nil {
		return Score{}, errors.New("llm scorer not configured")
	}
	raw, err := s.client.Complete(ctx, BuildPrompt(sub), scoreMaxTokens)
	if err != nil {
		return Score{}, fmt.Errorf("priority completion: %w", err)
	}
	v := ParseScore(raw)
	return Score{Value: v, Tier: TierFor(v), Source: SourceLLM, Raw: strings.TrimSpace(raw)}, nil
}
