package advisor

import (
	"strconv"
	"strings"

	"github.com/phrazzld/agro-api/internal/domain"
)

// Summarize renders a recommendation as the answer text.
func Summarize(rec *domain.Recommendation) string {
	if rec == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("Recomendación: ")
	b.WriteString(string(rec.Action))
	b.WriteString(" ")
	b.WriteString(rec.Parameter.String())

	if r := rec.TargetRange; r != nil {
		switch {
		case r.Min != nil && r.Max != nil:
			b.WriteString(" (rango de referencia " + formatNumber(*r.Min) + "–" + formatNumber(*r.Max))
		case r.Min != nil:
			b.WriteString(" (mínimo de referencia " + formatNumber(*r.Min))
		case r.Max != nil:
			b.WriteString(" (máximo de referencia " + formatNumber(*r.Max))
		}
		if r.Min != nil || r.Max != nil {
			if r.Unit != "" {
				b.WriteString(" " + r.Unit)
			}
			b.WriteString(")")
		}
	}
	b.WriteString(".")

	if rec.Rationale != "" {
		b.WriteString("\n\n")
		b.WriteString(rec.Rationale)
	}
	if len(rec.Warnings) > 0 {
		b.WriteString("\n\nAdvertencias:")
		for _, w := range rec.Warnings {
			b.WriteString("\n- ")
			b.WriteString(w)
		}
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
