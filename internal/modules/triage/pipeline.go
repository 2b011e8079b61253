package triage

import (
	"context"
	"time"

	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

// Recorder receives triage outcomes. *observability.Metrics satisfies it.
type Recorder interface {
	ObserveTriage(category, source string)
	ObserveScorer(outcome string, d time.Duration)
}

type Pipeline struct {
	log      *logger.Logger
	rules    Rules
	scorer   PriorityScorer
	recorder Recorder
}

type Option func(*Pipeline)

func WithRules(rules Rules) Option {
	return func(p *Pipeline) {
		if len(rules) > 0 {
			p.rules = rules
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// NewPipeline builds a pipeline. A nil scorer always yields the default score.
func NewPipeline(log *logger.Logger, scorer PriorityScorer, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	p := &Pipeline{
		log:    log.With("service", "TriagePipeline"),
		rules:  DefaultRules(),
		scorer: scorer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run never fails: scorer errors degrade to the default score.
func (p *Pipeline) Run(ctx context.Context, sub Submission) Result {
	cat := p.rules.Categorize(sub.Title, sub.Description)
	score := p.score(ctx, sub)
	if p.recorder != nil {
		p.recorder.ObserveTriage(string(cat), score.Source)
	}
	return Result{Category: cat, Score: score}
}

func (p *Pipeline) score(ctx context.Context, sub Submission) Score {
	if p.scorer == nil {
		return DefaultScoreValue()
	}
	start := time.Now()
	s, err := p.scorer.Score(ctx, sub)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if p.recorder != nil {
		p.recorder.ObserveScorer(outcome, time.Since(start))
	}
	if err != nil {
		p.log.Warn("priority scoring failed, using default", "error", err)
		return DefaultScoreValue()
	}
	s.Value = ClampScore(s.Value)
	s.Tier = TierFor(s.Value)
	if s.Source == "" {
		s.Source = SourceLLM
	}
	return s
}
