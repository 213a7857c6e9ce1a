package grader

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/phrazzld/lingdou-api/internal/config"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
)

// MinAnswerLength is the shortest transcript, in characters, worth sending to
// a provider. Shorter answers fail without a provider call.
const MinAnswerLength = 10

const systemInstruction = "You grade interview answers. Reply with a single JSON object that matches the requested schema and nothing else."

//go:embed prompt.tmpl
var promptText string

var promptTemplate = template.Must(template.New("grade").Parse(promptText))

// GradeRequest is the material for grading one voice attempt.
type GradeRequest struct {
	QuestionText string
	ModelAnswer  string
	AnswerText   string
}

// Grader judges free-text answers.
type Grader interface {
	Grade(ctx context.Context, req GradeRequest) (domain.GradeResult, error)
}

// provider is one LLM backend. It returns the raw reply text for a prompt.
type provider interface {
	name() string
	complete(ctx context.Context, system, prompt string) (string, error)
}

// LLMGrader grades answers through a provider.
type LLMGrader struct {
	provider provider
	timeout  time.Duration
	logger   *slog.Logger
}

var _ Grader = (*LLMGrader)(nil)

func newLLMGrader(p provider, timeout time.Duration, log *slog.Logger) *LLMGrader {
	if log == nil {
		log = slog.Default()
	}
	return &LLMGrader{
		provider: p,
		timeout:  timeout,
		logger:   log.With(slog.String("component", "grader"), slog.String("provider", p.name())),
	}
}

// Grade asks the provider for a verdict. Each call is bounded by the
// configured timeout and never retried.
func (g *LLMGrader) Grade(ctx context.Context, req GradeRequest) (domain.GradeResult, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	if utf8.RuneCountInString(strings.TrimSpace(req.AnswerText)) < MinAnswerLength {
		log.DebugContext(ctx, "answer too short to grade", slog.Int("length", len(req.AnswerText)))
		return tooShort(), nil
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, req); err != nil {
		return domain.GradeResult{}, fmt.Errorf("render grading prompt: %w", err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := g.provider.complete(ctx, systemInstruction, buf.String())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &ProviderError{Provider: g.provider.name(), Err: ctx.Err()}
		}
		log.WarnContext(ctx, "grading call failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return domain.GradeResult{}, err
	}

	result, err := parseGrade(raw)
	if err != nil {
		log.WarnContext(ctx, "grader returned an unusable reply", slog.String("error", err.Error()))
		return domain.GradeResult{}, err
	}

	log.DebugContext(ctx, "answer graded",
		slog.Bool("passed", result.Passed),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// tooShort is the local verdict for a transcript below MinAnswerLength.
func tooShort() domain.GradeResult {
	rubric := make(map[string]int, len(domain.RubricDimensions))
	for _, d := range domain.RubricDimensions {
		rubric[d] = 1
	}
	return domain.GradeResult{
		Passed:   false,
		Rubric:   rubric,
		Comment:  "The answer is too short to evaluate.",
		Weakness: "Give a complete answer of at least a sentence.",
	}
}

// Unavailable is the grader used when no provider is configured. Every call
// reports domain.ErrGradingUnavailable.
type Unavailable struct{}

var _ Grader = Unavailable{}

// Grade always fails.
func (Unavailable) Grade(context.Context, GradeRequest) (domain.GradeResult, error) {
	return domain.GradeResult{}, fmt.Errorf("%w: no grader configured", domain.ErrGradingUnavailable)
}

// New builds the grader selected by cfg.Provider.
func New(ctx context.Context, cfg config.GraderConfig, log *slog.Logger) (Grader, error) {
	var (
		p   provider
		err error
	)
	switch cfg.Provider {
	case "none", "":
		return Unavailable{}, nil
	case "gemini":
		p, err = newGeminiProvider(ctx, cfg)
	case "openai":
		p, err = newOpenAIProvider(cfg)
	case "anthropic":
		p, err = newAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return newLLMGrader(p, time.Duration(cfg.TimeoutSeconds)*time.Second, log), nil
}

// resolveModel returns model, or fallback when model is empty.
func resolveModel(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}

func maxTokens(cfg config.GraderConfig) int {
	if cfg.MaxOutputTokens <= 0 {
		return 1024
	}
	return cfg.MaxOutputTokens
}
