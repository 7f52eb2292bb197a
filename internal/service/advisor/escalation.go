package advisor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/generation"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/platform/metrics"
	"github.com/phrazzld/agro-api/internal/prompt"
)

// Reframe stage names, as reported in logs and metrics.
const (
	StageNeutral = "reframe_neutral"
	StageGeneric = "reframe_generic"
	StageConcise = "reframe_concise"
)

// reframeStage is one rewrite of a blocked prompt.
type reframeStage struct {
	name      string
	shortOnly bool
	prompt    func(original string) string
	params    func(length domain.Length) generation.Params
}

// reframeStages run in order until one produces text.
var reframeStages = []reframeStage{
	{
		name:   StageNeutral,
		prompt: func(original string) string { return original + prompt.Reframe1Suffix },
		params: func(length domain.Length) generation.Params {
			return generation.ParamsFor(length).WithSampling(0.1, 0.7)
		},
	},
	{
		name:   StageGeneric,
		prompt: func(string) string { return prompt.Reframe2Prompt },
		params: func(length domain.Length) generation.Params {
			return generation.ParamsFor(length).WithSampling(0.1, 0.6)
		},
	},
	{
		name:      StageConcise,
		shortOnly: true,
		prompt:    func(original string) string { return original + prompt.Reframe3Suffix },
		params: func(domain.Length) generation.Params {
			return generation.ParamsFor(domain.LengthMedium)
		},
	},
}

// needsEscalation reports whether an initial extraction looks blocked: no
// text, the block placeholder, or an abnormal finish reason.
func needsEscalation(ex generation.Extraction) bool {
	answer := ex.Answer()
	return strings.TrimSpace(answer) == "" ||
		answer == generation.BlockedPlaceholder ||
		!ex.FinishReason.Normal()
}

// escalate tries each reframe stage and returns the first non-empty text.
// Stage failures are logged and skipped. When every stage fails, initial is
// returned unchanged.
func (s *serviceImpl) escalate(ctx context.Context, original string, length domain.Length, initial string) string {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, stage := range reframeStages {
		if stage.shortOnly && length != domain.LengthShort {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		resp, err := s.gen.Generate(ctx, stage.prompt(original), stage.params(length))
		if err != nil {
			metrics.ObserveReframe(stage.name, false)
			log.WarnContext(ctx, "reframe call failed",
				slog.String("stage", stage.name),
				slog.Any("error", err))
			continue
		}

		text := generation.Extract(resp).Text
		metrics.ObserveReframe(stage.name, text != "")
		if text != "" {
			log.InfoContext(ctx, "reframe produced an answer", slog.String("stage", stage.name))
			return text
		}
		log.DebugContext(ctx, "reframe produced no text", slog.String("stage", stage.name))
	}

	log.WarnContext(ctx, "all reframes exhausted, returning initial answer")
	return initial
}
