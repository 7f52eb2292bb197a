package generation

// SchemaVersion identifies the shape of Response. Adapters map their SDK's
// response into this shape exactly once.
const SchemaVersion = 1

// FinishReason says why the model stopped generating. The empty value means
// the backend reported no reason.
type FinishReason string

// Finish reasons the pipeline distinguishes. Adapters pass other values
// through unchanged.
const (
	FinishReasonUnspecified FinishReason = ""
	FinishReasonStop        FinishReason = "STOP"
	FinishReasonMaxTokens   FinishReason = "MAX_TOKENS"
	FinishReasonSafety      FinishReason = "SAFETY"
	FinishReasonOther       FinishReason = "OTHER"
)

// Normal reports whether r signals an ordinary completion.
func (r FinishReason) Normal() bool {
	return r == FinishReasonUnspecified || r == FinishReasonStop
}

// Response is a generation result.
type Response struct {
	Candidates []*Candidate
	// Usage holds token counters, keyed by counter name.
	Usage map[string]int64
}

// Candidate is one generated alternative.
type Candidate struct {
	Content      *Content
	FinishReason FinishReason
}

// Content is the ordered list of parts of a candidate.
type Content struct {
	Parts []*Part
}

// Part is one piece of candidate content. Non-text parts have empty Text.
type Part struct {
	Text string
}
