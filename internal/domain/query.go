package domain

import (
	"strings"
	"unicode/utf8"
)

// Length controls how long the educational answer should be.
type Length string

// Supported answer lengths.
const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
)

// ParseLength returns the Length for s. An empty string yields LengthMedium.
func ParseLength(s string) (Length, error) {
	switch Length(strings.ToLower(strings.TrimSpace(s))) {
	case "", LengthMedium:
		return LengthMedium, nil
	case LengthShort:
		return LengthShort, nil
	default:
		return "", ErrInvalidLength
	}
}

// Query is a single advisory request. It is created per request and consumed
// once by the advisor pipeline.
type Query struct {
	Question    string
	Crop        string
	Stage       string
	Temperature *float64
	Length      Length
	SafeMode    bool

	// Sensor reading. Parameter is always canonical.
	Parameter Parameter
	Value     *float64
	Unit      string
}

// HasQuestion reports whether the query carries a non-blank question.
func (q Query) HasQuestion() bool {
	return strings.TrimSpace(q.Question) != ""
}

// HasMeasurement reports whether both parameter and value are present.
func (q Query) HasMeasurement() bool {
	return q.Parameter != "" && q.Value != nil
}

// EffectiveLength returns the requested length, defaulting to medium.
func (q Query) EffectiveLength() Length {
	if q.Length == "" {
		return LengthMedium
	}
	return q.Length
}

// Validate checks that the query carries a question or a complete sensor
// reading. Both may be present.
func (q Query) Validate() error {
	if !q.HasQuestion() && !q.HasMeasurement() {
		return ErrMissingInput
	}
	if q.Length != "" && q.Length != LengthShort && q.Length != LengthMedium {
		return ErrInvalidLength
	}
	return nil
}

// CheckQuestionLength returns ErrQuestionTooLong when a non-empty question
// exceeds maxChars characters. Queries without a question always pass.
func (q Query) CheckQuestionLength(maxChars int) error {
	if !q.HasQuestion() {
		return nil
	}
	if utf8.RuneCountInString(q.Question) > maxChars {
		return ErrQuestionTooLong
	}
	return nil
}
