package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/domain/advice"
	"github.com/phrazzld/agro-api/internal/generation"
	"github.com/phrazzld/agro-api/internal/platform/logger"
	"github.com/phrazzld/agro-api/internal/platform/metrics"
)

// Recommendation sources, as reported in metrics.
const (
	sourceModel     = "model"
	sourceHeuristic = "heuristic"
)

var (
	errEmptyOutput        = errors.New("model returned no output")
	errUnrecognizedAction = errors.New("unrecognized action")
	errParameterMismatch  = errors.New("recommendation is for a different parameter")
)

// modelRecommendation is the JSON object the adjustment prompt asks for.
type modelRecommendation struct {
	Action      string `json:"action"`
	Parameter   string `json:"parameter"`
	TargetRange *struct {
		Min  *float64 `json:"min"`
		Max  *float64 `json:"max"`
		Unit string   `json:"unit"`
	} `json:"target_range"`
	Rationale string   `json:"rationale"`
	Warnings  []string `json:"warnings"`
}

// resolve asks the model for a structured recommendation and falls back to
// the heuristic table when the call fails or its output cannot be used. It
// returns nil when neither source yields a recommendation.
func (s *serviceImpl) resolve(ctx context.Context, q domain.Query) *domain.Recommendation {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rec, err := s.modelRecommendation(ctx, q)
	if err == nil {
		metrics.ObserveRecommendation(sourceModel, string(rec.Action))
		return rec
	}
	log.InfoContext(ctx, "structured recommendation unavailable, using heuristic",
		slog.String("parameter", q.Parameter.String()),
		slog.Any("error", err))

	rec, ok := advice.Recommend(s.cfg.Ranges, q)
	if !ok {
		return nil
	}
	metrics.ObserveRecommendation(sourceHeuristic, string(rec.Action))
	return rec
}

func (s *serviceImpl) modelRecommendation(ctx context.Context, q domain.Query) (*domain.Recommendation, error) {
	params := generation.ParamsFor(q.EffectiveLength()).AsJSON()
	resp, err := s.gen.Generate(ctx, s.composer.Adjustment(q), params)
	if err != nil {
		return nil, err
	}

	text := generation.Extract(resp).Text
	if text == "" {
		return nil, errEmptyOutput
	}
	return ParseRecommendation(text, q, s.cfg.Ranges)
}

// ParseRecommendation decodes the model's JSON answer for q, tolerating a
// fenced code block around it.
//
// The action is canonicalized; an unknown action is an error. The measured
// parameter always comes from q, and a model answer naming a different known
// parameter is an error. A missing
// target range is taken from table. Whenever the range has a bound, the
// action is recomputed from the reading so it always agrees with the range.
func ParseRecommendation(text string, q domain.Query, table advice.RangeTable) (*domain.Recommendation, error) {
	var raw modelRecommendation
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation: %w", err)
	}

	action, ok := domain.ParseAction(raw.Action)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnrecognizedAction, raw.Action)
	}

	param := q.Parameter
	if p, ok := domain.ParseParameter(raw.Parameter); ok && p != domain.ParameterOther &&
		param != domain.ParameterOther && param != "" && p != param {
		return nil, fmt.Errorf("%w: measured %s, got %s", errParameterMismatch, param, p)
	}

	tableRange, inTable := table.Lookup(param)

	var target *domain.TargetRange
	if raw.TargetRange != nil && (raw.TargetRange.Min != nil || raw.TargetRange.Max != nil) {
		target = &domain.TargetRange{
			Min:  raw.TargetRange.Min,
			Max:  raw.TargetRange.Max,
			Unit: strings.TrimSpace(raw.TargetRange.Unit),
		}
	} else if inTable {
		target = &domain.TargetRange{Min: copyBound(tableRange.Min), Max: copyBound(tableRange.Max)}
	}

	if target != nil && target.Unit == "" {
		target.Unit = strings.TrimSpace(q.Unit)
		if target.Unit == "" && inTable {
			target.Unit = tableRange.Unit
		}
	}
	if target != nil && q.Value != nil && (target.Min != nil || target.Max != nil) {
		action = advice.DecideAction(*q.Value, target.Min, target.Max)
	}

	rationale := strings.TrimSpace(raw.Rationale)
	if rationale == "" && target != nil && q.Value != nil {
		rationale = advice.Rationale(action, *q.Value, target.Min, target.Max, target.Unit)
	}

	warnings := make([]string, 0, len(raw.Warnings))
	for _, w := range raw.Warnings {
		if w = strings.TrimSpace(w); w != "" {
			warnings = append(warnings, w)
		}
	}
	if len(warnings) == 0 {
		warnings = advice.Warnings(param)
	}

	return &domain.Recommendation{
		Action:      action,
		Parameter:   param,
		TargetRange: target,
		Rationale:   rationale,
		Warnings:    warnings,
	}, nil
}

func copyBound(b *float64) *float64 {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// StripCodeFence removes a surrounding ``` fence and its optional language
// tag. Text without a fence is returned trimmed.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimLeft(text, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
