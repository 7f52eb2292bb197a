package gemini

import (
	"github.com/phrazzld/agro-api/internal/generation"
	"google.golang.org/genai"
)

// Usage counter names reported in generation.Response.Usage.
const (
	UsagePromptTokens     = "prompt_token_count"
	UsageCandidatesTokens = "candidates_token_count"
	UsageTotalTokens      = "total_token_count"
)

var harmCategories = map[generation.HarmCategory]genai.HarmCategory{
	generation.HarmDangerousContent: genai.HarmCategoryDangerousContent,
	generation.HarmHarassment:       genai.HarmCategoryHarassment,
	generation.HarmHateSpeech:       genai.HarmCategoryHateSpeech,
	generation.HarmSexuallyExplicit: genai.HarmCategorySexuallyExplicit,
}

var blockThresholds = map[generation.BlockThreshold]genai.HarmBlockThreshold{
	generation.BlockOnlyHigh: genai.HarmBlockThresholdBlockOnlyHigh,
}

// buildConfig translates generation parameters into the SDK request config.
// Safety settings with an unknown category or threshold are skipped.
func buildConfig(systemInstruction string, p generation.Params) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(p.Temperature),
		TopP:             genai.Ptr(p.TopP),
		MaxOutputTokens:  p.MaxOutputTokens,
		ResponseMIMEType: p.ResponseMIMEType,
	}
	if p.TopK > 0 {
		cfg.TopK = genai.Ptr(p.TopK)
	}
	if systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}}
	}

	for _, s := range p.Safety {
		category, ok := harmCategories[s.Category]
		if !ok {
			continue
		}
		threshold, ok := blockThresholds[s.Threshold]
		if !ok {
			continue
		}
		cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{
			Category:  category,
			Threshold: threshold,
		})
	}

	return cfg
}

// toResponse maps an SDK response into the pipeline's response schema.
// Thought parts are dropped.
func toResponse(resp *genai.GenerateContentResponse) *generation.Response {
	if resp == nil {
		return nil
	}

	out := &generation.Response{}
	for _, c := range resp.Candidates {
		if c == nil {
			out.Candidates = append(out.Candidates, nil)
			continue
		}
		candidate := &generation.Candidate{FinishReason: finishReason(c.FinishReason)}
		if c.Content != nil {
			content := &generation.Content{}
			for _, part := range c.Content.Parts {
				if part == nil || part.Thought {
					continue
				}
				content.Parts = append(content.Parts, &generation.Part{Text: part.Text})
			}
			candidate.Content = content
		}
		out.Candidates = append(out.Candidates, candidate)
	}

	if u := resp.UsageMetadata; u != nil {
		out.Usage = map[string]int64{
			UsagePromptTokens:     int64(u.PromptTokenCount),
			UsageCandidatesTokens: int64(u.CandidatesTokenCount),
			UsageTotalTokens:      int64(u.TotalTokenCount),
		}
	}

	return out
}

func finishReason(r genai.FinishReason) generation.FinishReason {
	if r == genai.FinishReasonUnspecified {
		return generation.FinishReasonUnspecified
	}
	return generation.FinishReason(r)
}
