package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/domain/advice"
	"github.com/phrazzld/agro-api/internal/generation"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/platform/metrics"
	"github.com/phrazzld/agro-api/internal/prompt"
)

// Generator is the generation capability the pipeline depends on.
// *generation.Invoker implements it.
type Generator interface {
	Configure(ctx context.Context) error
	Mode() generation.Mode
	ModelName() string
	Generate(ctx context.Context, prompt string, params generation.Params) (*generation.Response, error)
}

// Service answers advisory queries.
type Service interface {
	// Ask runs the full pipeline for one query.
	Ask(ctx context.Context, q domain.Query) (*domain.ModelAnswer, error)

	// Status reports the generation mode and model without probing the backend.
	Status() Status
}

// Status is a snapshot of the generation backend.
type Status struct {
	Mode     generation.Mode
	Model    string
	MockMode bool
}

// Config holds the pipeline limits.
type Config struct {
	// MaxInputChars bounds the length of a question, in characters.
	MaxInputChars int

	// Ranges is the heuristic reference table. DefaultRanges when nil.
	Ranges advice.RangeTable
}

// Demo answer content served while the backend is unavailable.
const (
	demoSummaryChars = 180

	demoAnswerHead = "[MODO DEMO] Recomendación preliminar para agricultura basada en la información disponible. " +
		"Agrega tu GEMINI_API_KEY en .env para respuestas reales."
	demoAnswerTail = "Siguiente paso: proporciona datos de suelo y clima para ajustar dosis y calendario."
)

// DemoTips are returned with every demo answer.
var DemoTips = []string{
	"Incluye datos de suelo (pH, CE, % humedad) y clima (ET0, precipitación).",
	"Especifica el estado fenológico del cultivo para recomendaciones más precisas.",
}

type serviceImpl struct {
	gen      Generator
	composer *prompt.Composer
	cfg      Config
	logger   *slog.Logger
}

var _ Service = (*serviceImpl)(nil)

// NewService creates the advisory pipeline.
func NewService(gen Generator, composer *prompt.Composer, cfg Config, logger *slog.Logger) (Service, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if gen == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if composer == nil {
		return nil, errors.New("composer cannot be nil")
	}
	if cfg.MaxInputChars <= 0 {
		return nil, fmt.Errorf("max input chars must be positive, got %d", cfg.MaxInputChars)
	}
	if cfg.Ranges == nil {
		cfg.Ranges = advice.DefaultRanges()
	}

	return &serviceImpl{
		gen:      gen,
		composer: composer,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "advisor_service")),
	}, nil
}

// Status implements Service.
func (s *serviceImpl) Status() Status {
	mode := s.gen.Mode()
	return Status{
		Mode:     mode,
		Model:    s.gen.ModelName(),
		MockMode: mode == generation.ModeDegraded,
	}
}

// Ask implements Service.
//
// A question longer than the configured limit fails with
// domain.ErrQuestionTooLong before any backend call. While the generator is
// degraded the answer is a demo answer, with the heuristic recommendation
// when the query carries a reading. Otherwise a reading is resolved into a
// recommendation first; when there is none the free-text path runs, with
// reframes when safe mode is on.
func (s *serviceImpl) Ask(ctx context.Context, q domain.Query) (*domain.ModelAnswer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := q.CheckQuestionLength(s.cfg.MaxInputChars); err != nil {
		return nil, err
	}

	if s.gen.Mode() != generation.ModeReady {
		if err := s.gen.Configure(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.WarnContext(ctx, "generator configuration failed, serving demo answer",
				slog.Any("error", err))
		}
	}

	if s.gen.Mode() != generation.ModeReady {
		return s.demoAnswer(ctx, q), nil
	}

	if q.HasMeasurement() {
		if rec := s.resolve(ctx, q); rec != nil {
			return &domain.ModelAnswer{
				Answer:         Summarize(rec),
				Model:          s.gen.ModelName(),
				Recommendation: rec,
			}, nil
		}
	}

	return s.freeText(ctx, q)
}

// freeText runs the educational path.
func (s *serviceImpl) freeText(ctx context.Context, q domain.Query) (*domain.ModelAnswer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	userPrompt := s.composer.FreeText(q)
	length := q.EffectiveLength()

	resp, err := s.gen.Generate(ctx, userPrompt, generation.ParamsFor(length))
	if err != nil {
		log.ErrorContext(ctx, "initial generation call failed", slog.Any("error", err))
		if errors.Is(err, generation.ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", generation.ErrUpstream, err)
	}

	extraction := generation.Extract(resp)
	if extraction.Issue != generation.IssueNone {
		log.DebugContext(ctx, "initial response had no usable content",
			slog.String("issue", extraction.Issue.String()))
	}

	answer := extraction.Answer()
	if q.SafeMode && needsEscalation(extraction) {
		answer = s.escalate(ctx, userPrompt, length, answer)
	}

	var usage map[string]int64
	if resp != nil {
		usage = resp.Usage
	}

	return &domain.ModelAnswer{
		Answer: strings.TrimSpace(answer),
		Model:  s.gen.ModelName(),
		Usage:  usage,
	}, nil
}

// demoAnswer builds the deterministic answer served in degraded mode.
func (s *serviceImpl) demoAnswer(ctx context.Context, q domain.Query) *domain.ModelAnswer {
	metrics.ObserveDegraded()
	logger.FromContextOrDefault(ctx, s.logger).DebugContext(ctx, "serving demo answer")

	answer := &domain.ModelAnswer{
		Answer: DemoAnswer(q.Question),
		Model:  s.gen.ModelName(),
		Tips:   append([]string(nil), DemoTips...),
	}
	if rec, ok := advice.Recommend(s.cfg.Ranges, q); ok {
		metrics.ObserveRecommendation(sourceHeuristic, string(rec.Action))
		answer.Recommendation = rec
	}
	return answer
}

// DemoAnswer returns the demo-mode answer text, echoing the start of the
// question.
func DemoAnswer(question string) string {
	return demoAnswerHead + "\n\n" +
		"Resumen: " + firstChars(question, demoSummaryChars) + "...\n\n" +
		demoAnswerTail
}

func firstChars(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
