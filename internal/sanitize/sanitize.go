// Package sanitize masks personal data and sensitive terms in user input
// before it reaches a prompt, and redacts secrets from strings before they
// are logged or returned in error responses.
package sanitize

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Placeholders substituted for masked input.
const (
	EmailPlaceholder     = "[email]"
	PhonePlaceholder     = "[phone]"
	IDPlaceholder        = "[id]"
	URLPlaceholder       = "[url]"
	SensitivePlaceholder = "[término sensible]"

	// UnserializablePlaceholder is returned by DataPreview when the data
	// cannot be encoded.
	UnserializablePlaceholder = "[datos no serializables]"

	ellipsis = "..."
)

var (
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern  = regexp.MustCompile(`\b(?:\+?\d{1,3}[\s-]?)?(?:\(\d{2,4}\)|\d{2,4})[\s-]?\d{3,4}[\s-]?\d{3,4}\b`)
	idLikePattern = regexp.MustCompile(`\b\d{6,}\b`)
	urlPattern    = regexp.MustCompile(`https?://\S+`)

	// Longer terms come first so "venenoso" is masked whole.
	sensitiveTerms = []*regexp.Regexp{
		regexp.MustCompile(`(?i)venenoso`),
		regexp.MustCompile(`(?i)veneno`),
		regexp.MustCompile(`(?i)matar`),
		regexp.MustCompile(`(?i)expl(?:osiv|osivo)`),
		regexp.MustCompile(`(?i)arma`),
		regexp.MustCompile(`(?i)químico\s+peligroso`),
		regexp.MustCompile(`(?i)gramoxone`),
	}
)

// mask applies every input pattern in a fixed order.
func mask(text string) string {
	text = emailPattern.ReplaceAllString(text, EmailPlaceholder)
	text = phonePattern.ReplaceAllString(text, PhonePlaceholder)
	text = idLikePattern.ReplaceAllString(text, IDPlaceholder)
	text = urlPattern.ReplaceAllString(text, URLPlaceholder)
	for _, term := range sensitiveTerms {
		text = term.ReplaceAllString(text, SensitivePlaceholder)
	}
	return text
}

// truncate shortens text to at most maxLen characters, ending in "..." when
// anything was cut.
func truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	if maxLen <= len(ellipsis) {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// Question trims and masks a free-text question and truncates it to maxLen
// characters.
func Question(text string, maxLen int) string {
	return truncate(mask(strings.TrimSpace(text)), maxLen)
}

// DataPreview renders data as compact JSON (sorted keys, non-ASCII kept as
// is), masks it like Question and truncates it to maxChars characters.
// Data that cannot be encoded yields UnserializablePlaceholder.
func DataPreview(data map[string]any, maxChars int) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return UnserializablePlaceholder
	}
	return truncate(mask(strings.TrimSuffix(buf.String(), "\n")), maxChars)
}
