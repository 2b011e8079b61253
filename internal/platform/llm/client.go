package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/yungbote/civicpulse-backend/internal/observability"
	"github.com/yungbote/civicpulse-backend/internal/platform/envutil"
	"github.com/yungbote/civicpulse-backend/internal/platform/httpx"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"
)

// ErrNotConfigured is returned by NewClient when no API key is set.
var ErrNotConfigured = errors.New("llm api key not configured")

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	RetryBase   time.Duration
	RetryMax    time.Duration
	RateLimit   float64
	RateBurst   int
	Temperature float32
}

func ConfigFromEnv() Config {
	key := envutil.String("LLM_API_KEY", "")
	if key == "" {
		key = envutil.String("GROQ_API_KEY", "")
	}
	return Config{
		APIKey:      key,
		BaseURL:     envutil.String("LLM_BASE_URL", DefaultBaseURL),
		Model:       envutil.String("LLM_MODEL", DefaultModel),
		Timeout:     envutil.Seconds("LLM_TIMEOUT_SECONDS", 15*time.Second),
		MaxRetries:  envutil.Int("LLM_MAX_RETRIES", 2),
		RetryBase:   500 * time.Millisecond,
		RetryMax:    5 * time.Second,
		RateLimit:   envutil.Float("LLM_RATE_LIMIT_RPS", 5),
		RateBurst:   envutil.Int("LLM_RATE_LIMIT_BURST", 10),
		Temperature: 0,
	}
}

// Client is a thin chat-completion client for OpenAI-compatible endpoints.
type Client interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	Model() string
}

type client struct {
	log     *logger.Logger
	api     *openai.Client
	cfg     Config
	limiter *rate.Limiter
}

func NewClient(log *logger.Logger) (Client, error) {
	return NewClientWithConfig(log, ConfigFromEnv())
}

func NewClientWithConfig(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	c := &client{
		log:     log.With("service", "LLMClient"),
		api:     openai.NewClientWithConfig(oc),
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
	}
	c.log.Info("LLM client initialized", "base_url", oc.BaseURL, "model", cfg.Model)
	return c, nil
}

func (c *client) Model() string { return c.cfg.Model }

func (c *client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature(c.cfg.Temperature),
		MaxTokens:   maxTokens,
	}

	start := time.Now()
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			observe(c.cfg.Model, "200", time.Since(start))
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("llm returned no choices")
			}
			return resp.Choices[0].Message.Content, nil
		}

		err = wrapStatus(err)
		if !httpx.IsRetryableError(err) || attempt >= c.cfg.MaxRetries {
			observe(c.cfg.Model, statusLabel(err), time.Since(start))
			return "", err
		}

		sleepFor := httpx.Backoff(attempt, c.cfg.RetryBase, c.cfg.RetryMax)
		c.log.Warn("LLM request retrying",
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(sleepFor):
		}
	}
}

// go-openai omits a zero temperature from the request body.
func temperature(t float32) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string       { return e.err.Error() }
func (e *statusError) Unwrap() error       { return e.err }
func (e *statusError) HTTPStatusCode() int { return e.status }

func wrapStatus(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &statusError{status: apiErr.HTTPStatusCode, err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &statusError{status: reqErr.HTTPStatusCode, err: err}
	}
	return err
}

func statusLabel(err error) string {
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) {
		return strconv.Itoa(sc.HTTPStatusCode())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	return "error"
}

func observe(model, status string, d time.Duration) {
	if m := observability.Current(); m != nil {
		m.ObserveLLMRequest(model, status, d)
	}
}
