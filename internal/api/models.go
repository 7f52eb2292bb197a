package api

import (
	"strings"

	"github.com/phrazzld/agro-api/internal/domain"
)

// AskRequest is the payload of POST /v1/agro/ask. Either a question or a
// sensor reading (parameter and value) is required; both may be sent.
type AskRequest struct {
	Question    string   `json:"question"`
	Crop        string   `json:"crop"        validate:"omitempty,max=100"`
	Stage       string   `json:"stage"       validate:"omitempty,max=100"`
	Temperature *float64 `json:"temperature" validate:"omitempty,gte=-90,lte=70"`
	Length      string   `json:"length"      validate:"omitempty,oneof=short medium"`
	SafeMode    *bool    `json:"safe_mode"`

	// Sensor reading. Parameter accepts Spanish names and the English
	// canonical names.
	Parameter string   `json:"parameter" validate:"omitempty,max=50"`
	Value     *float64 `json:"value"`
	Unit      string   `json:"unit"      validate:"omitempty,max=20"`
}

// Validate checks the question-or-reading rule.
func (r AskRequest) Validate() error {
	return r.ToQuery().Validate()
}

// ToQuery converts the request into a domain query. Unrecognized parameter
// names become domain.ParameterOther so the reading is still described to
// the model.
func (r AskRequest) ToQuery() domain.Query {
	q := domain.Query{
		Question:    r.Question,
		Crop:        strings.TrimSpace(r.Crop),
		Stage:       strings.TrimSpace(r.Stage),
		Temperature: r.Temperature,
		Length:      parseLength(r.Length),
		SafeMode:    r.SafeMode == nil || *r.SafeMode,
		Value:       r.Value,
		Unit:        strings.TrimSpace(r.Unit),
	}
	if raw := strings.TrimSpace(r.Parameter); raw != "" {
		p, ok := domain.ParseParameter(raw)
		if !ok {
			p = domain.ParameterOther
		}
		q.Parameter = p
	}
	return q
}

// parseLength defaults an empty length to medium. Unknown values pass
// through so query validation reports them.
func parseLength(s string) domain.Length {
	l, err := domain.ParseLength(s)
	if err != nil {
		return domain.Length(s)
	}
	return l
}

// ChatRequest is the payload of POST /v1/agro/chat: free text only.
type ChatRequest struct {
	Question string `json:"question"`
	Crop     string `json:"crop"     validate:"omitempty,max=100"`
	Stage    string `json:"stage"    validate:"omitempty,max=100"`
	Length   string `json:"length"   validate:"omitempty,oneof=short medium"`
	SafeMode *bool  `json:"safe_mode"`
}

// Validate requires a non-blank question.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return domain.NewValidationError("question", "is required", domain.ErrMissingInput)
	}
	return nil
}

// ToQuery converts the request into a domain query.
func (r ChatRequest) ToQuery() domain.Query {
	return domain.Query{
		Question: r.Question,
		Crop:     strings.TrimSpace(r.Crop),
		Stage:    strings.TrimSpace(r.Stage),
		Length:   parseLength(r.Length),
		SafeMode: r.SafeMode == nil || *r.SafeMode,
	}
}

// ChatResponse is the body returned by POST /v1/agro/chat.
type ChatResponse struct {
	Answer string   `json:"answer"`
	Model  string   `json:"model"`
	Tips   []string `json:"tips,omitempty"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Mode     string `json:"mode"`
	MockMode bool   `json:"mock_mode"`
	Model    string `json:"model"`
	History  bool   `json:"history"`
}

// ChatHistoryResponse is the body returned by GET /v1/agro/history.
type ChatHistoryResponse struct {
	Count int                  `json:"count"`
	Items []*domain.ChatRecord `json:"items"`
}

// SensorHistoryResponse is the body returned by GET /v1/agro/sensors/history.
type SensorHistoryResponse struct {
	Count int                     `json:"count"`
	Hours int                     `json:"hours"`
	Items []*domain.SensorReading `json:"items"`
}
