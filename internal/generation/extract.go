package generation

import "strings"

// BlockedPlaceholder replaces the answer when the model returned no text
// together with a finish reason, which is how safety blocks show up.
const BlockedPlaceholder = "La respuesta fue bloqueada por las políticas de seguridad del modelo. " +
	"Intenta reformular la pregunta con términos neutros y sin información sensible."

// ExtractionIssue describes why extraction produced no text.
type ExtractionIssue int

// Extraction issues.
const (
	IssueNone ExtractionIssue = iota
	IssueNilResponse
	IssueNoCandidates
	IssueNoContent
	IssueRecovered
)

// String returns a short name for logging.
func (i ExtractionIssue) String() string {
	switch i {
	case IssueNone:
		return "none"
	case IssueNilResponse:
		return "nil_response"
	case IssueNoCandidates:
		return "no_candidates"
	case IssueNoContent:
		return "no_content"
	case IssueRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Extraction is the text pulled out of a Response.
type Extraction struct {
	Text         string
	FinishReason FinishReason
	// Blocked is set when Text is empty and the model reported a finish
	// reason.
	Blocked bool
	// Issue is IssueNone when the response had the expected shape, even if
	// its text was empty.
	Issue ExtractionIssue
}

// Answer returns the text shown to the user: Text, or BlockedPlaceholder
// when the response looks blocked.
func (e Extraction) Answer() string {
	if e.Blocked {
		return BlockedPlaceholder
	}
	return e.Text
}

// Extract joins the text parts of the first candidate with newlines and
// records its finish reason. It never panics; malformed responses yield
// empty text with the Issue set.
func Extract(resp *Response) (ex Extraction) {
	defer func() {
		if r := recover(); r != nil {
			ex = Extraction{Issue: IssueRecovered}
		}
	}()

	if resp == nil {
		return Extraction{Issue: IssueNilResponse}
	}
	if len(resp.Candidates) == 0 {
		return Extraction{Issue: IssueNoCandidates}
	}

	cand := resp.Candidates[0]
	if cand == nil {
		return Extraction{Issue: IssueNoContent}
	}
	ex.FinishReason = cand.FinishReason
	if cand.Content == nil {
		ex.Issue = IssueNoContent
	} else {
		texts := make([]string, 0, len(cand.Content.Parts))
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
		ex.Text = strings.TrimSpace(strings.Join(texts, "\n"))
	}

	ex.Blocked = ex.Text == "" && ex.FinishReason != FinishReasonUnspecified
	return ex
}
