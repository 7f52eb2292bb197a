package generation

import "github.com/phrazzld/agro-api/internal/domain"

// HarmCategory names a content-safety hazard category.
type HarmCategory string

// Hazard categories covered by the safety profile.
const (
	HarmDangerousContent HarmCategory = "dangerous_content"
	HarmHarassment       HarmCategory = "harassment"
	HarmHateSpeech       HarmCategory = "hate_speech"
	HarmSexuallyExplicit HarmCategory = "sexually_explicit"
)

// BlockThreshold is the confidence level at which content gets blocked.
type BlockThreshold string

// BlockOnlyHigh blocks only content with a high probability of harm.
const BlockOnlyHigh BlockThreshold = "block_only_high"

// SafetySetting pairs a hazard category with its threshold.
type SafetySetting struct {
	Category  HarmCategory
	Threshold BlockThreshold
}

// JSONMIMEType requests structured JSON output.
const JSONMIMEType = "application/json"

// Params are the decoding parameters of one generation call.
type Params struct {
	Temperature      float32
	TopP             float32
	TopK             float32
	MaxOutputTokens  int32
	ResponseMIMEType string
	Safety           []SafetySetting
}

// SafetyProfile blocks only high-confidence harmful content in the four
// hazard categories, so ordinary agronomic questions about pests and
// chemicals are not refused.
func SafetyProfile() []SafetySetting {
	return []SafetySetting{
		{Category: HarmDangerousContent, Threshold: BlockOnlyHigh},
		{Category: HarmHarassment, Threshold: BlockOnlyHigh},
		{Category: HarmHateSpeech, Threshold: BlockOnlyHigh},
		{Category: HarmSexuallyExplicit, Threshold: BlockOnlyHigh},
	}
}

// ParamsFor returns the fixed decoding parameters for an answer length.
func ParamsFor(length domain.Length) Params {
	p := Params{
		Temperature:     0.2,
		TopP:            0.9,
		TopK:            40,
		MaxOutputTokens: 900,
		Safety:          SafetyProfile(),
	}
	if length == domain.LengthShort {
		p.Temperature = 0.1
		p.TopP = 0.7
		p.MaxOutputTokens = 520
	}
	return p
}

// WithSampling returns a copy of p with temperature and top-p replaced.
func (p Params) WithSampling(temperature, topP float32) Params {
	p.Temperature = temperature
	p.TopP = topP
	p.Safety = append([]SafetySetting(nil), p.Safety...)
	return p
}

// AsJSON returns a copy of p that requests JSON output.
func (p Params) AsJSON() Params {
	p.ResponseMIMEType = JSONMIMEType
	p.Safety = append([]SafetySetting(nil), p.Safety...)
	return p
}
