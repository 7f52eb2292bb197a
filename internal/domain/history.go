package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Endpoint names recorded with each conversation.
const (
	EndpointAsk  = "/v1/agro/ask"
	EndpointChat = "/v1/agro/chat"
)

// History validation errors
var (
	ErrEmptyRecordID     = errors.New("record ID cannot be empty")
	ErrEmptyEndpoint     = errors.New("endpoint cannot be empty")
	ErrEmptyReadingParam = errors.New("sensor reading parameter cannot be empty")
	ErrInvalidAction     = errors.New("invalid recommendation action")
)

// ChatRecord is one stored advisory exchange.
type ChatRecord struct {
	ID             uuid.UUID       `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	Endpoint       string          `json:"endpoint"`
	Question       string          `json:"question,omitempty"`
	Crop           string          `json:"crop,omitempty"`
	Stage          string          `json:"stage,omitempty"`
	Parameter      Parameter       `json:"parameter,omitempty"`
	Value          *float64        `json:"value,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	Length         Length          `json:"length,omitempty"`
	Answer         string          `json:"answer"`
	Model          string          `json:"model"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	ResponseTimeMS *int64          `json:"response_time_ms,omitempty"`
	UserIP         string          `json:"user_ip,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// NewChatRecord builds a ChatRecord from a query and its answer.
func NewChatRecord(endpoint string, q Query, answer *ModelAnswer, elapsed time.Duration, userIP string) (*ChatRecord, error) {
	ms := elapsed.Milliseconds()
	rec := &ChatRecord{
		ID:             uuid.New(),
		Timestamp:      time.Now().UTC(),
		Endpoint:       endpoint,
		Question:       q.Question,
		Crop:           q.Crop,
		Stage:          q.Stage,
		Parameter:      q.Parameter,
		Value:          q.Value,
		Unit:           q.Unit,
		Length:         q.EffectiveLength(),
		ResponseTimeMS: &ms,
		UserIP:         userIP,
	}
	if answer != nil {
		rec.Answer = answer.Answer
		rec.Model = answer.Model
		rec.Recommendation = answer.Recommendation
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Validate checks if the ChatRecord has valid data.
func (r *ChatRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRecordID
	}
	if r.Endpoint == "" {
		return ErrEmptyEndpoint
	}
	return nil
}

// SensorReading is a stored sensor measurement together with the
// recommendation produced for it.
type SensorReading struct {
	ID         uuid.UUID `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Crop       string    `json:"crop,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Parameter  Parameter `json:"parameter"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	Action     Action    `json:"action"`
	TargetMin  *float64  `json:"target_min,omitempty"`
	TargetMax  *float64  `json:"target_max,omitempty"`
	TargetUnit string    `json:"target_unit,omitempty"`
	Rationale  string    `json:"rationale,omitempty"`
}

// NewSensorReading builds a SensorReading for a query that produced a
// recommendation. The query must carry a measurement.
func NewSensorReading(q Query, rec *Recommendation) (*SensorReading, error) {
	if !q.HasMeasurement() || rec == nil {
		return nil, ErrEmptyReadingParam
	}
	reading := &SensorReading{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Crop:      q.Crop,
		Stage:     q.Stage,
		Parameter: q.Parameter,
		Value:     *q.Value,
		Unit:      q.Unit,
		Action:    rec.Action,
		Rationale: rec.Rationale,
	}
	if rec.TargetRange != nil {
		reading.TargetMin = rec.TargetRange.Min
		reading.TargetMax = rec.TargetRange.Max
		reading.TargetUnit = rec.TargetRange.Unit
	}

	if err := reading.Validate(); err != nil {
		return nil, err
	}
	return reading, nil
}

// Validate checks if the SensorReading has valid data.
func (s *SensorReading) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptyRecordID
	}
	if s.Parameter == "" {
		return ErrEmptyReadingParam
	}
	if !s.Action.Valid() {
		return ErrInvalidAction
	}
	return nil
}
