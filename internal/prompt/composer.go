package prompt

import (
	"strconv"
	"strings"

	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/sanitize"
)

const (
	// questionLimit caps the sanitized question embedded in the free-text
	// prompt, regardless of the configured input limit.
	questionLimit = 800

	// previewLimit caps the serialized sensor data in the adjustment prompt.
	previewLimit = 1200

	blockSeparator = "\n\n"
)

const framingDirective = "Contexto educativo: Esta consulta es únicamente informativa y de ejemplo teórico para agricultura. " +
	"No contiene datos personales ni requiere instrucciones operativas. Evita nombres comerciales o marcas; " +
	"no incluyas cantidades numéricas, calendarios ni instrucciones paso a paso. " +
	"Responde en tono no prescriptivo (podría, en general, como referencia) y con foco en buenas prácticas."

const formatDirective = "Formato de salida: \n" +
	"- 1) Resumen educativo breve\n" +
	"- 2) Pautas generales (bullets, no prescripciones)\n" +
	"- 3) Parámetros de referencia (rangos típicos)\n" +
	"- 4) Monitoreo sugerido\n" +
	"- 5) Riesgos y mitigaciones generales\n" +
	"- 6) Datos extra útiles (si aplican)"

const (
	shortLengthDirective = "Longitud sugerida: 3–5 bullets concisos (~150–220 palabras). " +
		"Evita pasos operativos, imperativos o detalles numéricos."
	mediumLengthDirective = "Mantén la respuesta concisa (≈ 200–350 palabras) y enfocada en bullets; evita redundancias."
)

// AdjustmentInstruction follows the serialized reading in the adjustment
// prompt. The model must answer with a single JSON object.
const AdjustmentInstruction = "Con base en los datos anteriores, evalúa si el parámetro medido está dentro de un rango de referencia general para el cultivo. " +
	"Responde ÚNICAMENTE con un objeto JSON válido, sin texto adicional ni bloques de código, con este esquema:\n" +
	`{"action": "aumentar" | "disminuir" | "mantener", ` +
	`"parameter": string, ` +
	`"target_range": {"min": number | null, "max": number | null, "unit": string}, ` +
	`"rationale": string, ` +
	`"warnings": [string]}` + "\n" +
	"Usa lenguaje educativo y no prescriptivo en rationale y warnings; no incluyas marcas ni productos."

// Composer builds model prompts from a query.
type Composer struct {
	maxInputChars int
}

// NewComposer creates a Composer. maxInputChars further limits the embedded
// question when it is below the fixed cap.
func NewComposer(maxInputChars int) *Composer {
	return &Composer{maxInputChars: maxInputChars}
}

func (c *Composer) questionLimit() int {
	if c.maxInputChars > 0 && c.maxInputChars < questionLimit {
		return c.maxInputChars
	}
	return questionLimit
}

// FreeText builds the educational prompt. Blocks appear in a fixed order and
// are separated by blank lines.
func (c *Composer) FreeText(q domain.Query) string {
	blocks := []string{framingDirective}

	if crop := strings.TrimSpace(q.Crop); crop != "" {
		blocks = append(blocks, "Cultivo: "+crop)
	}

	question := q.Question
	if !q.HasQuestion() {
		question = readingQuestion(q)
	}
	blocks = append(blocks, "Pregunta: "+sanitize.Question(question, c.questionLimit()))

	if q.Temperature != nil {
		blocks = append(blocks, "Temperatura (°C): "+formatNumber(*q.Temperature))
	}

	blocks = append(blocks, formatDirective)

	if q.EffectiveLength() == domain.LengthShort {
		blocks = append(blocks, shortLengthDirective)
	} else {
		blocks = append(blocks, mediumLengthDirective)
	}

	return strings.Join(blocks, blockSeparator)
}

// readingQuestion phrases a neutral question for a sensor-only query.
func readingQuestion(q domain.Query) string {
	if !q.HasMeasurement() {
		return ""
	}
	var b strings.Builder
	b.WriteString("¿Cómo interpretar una lectura de ")
	b.WriteString(q.Parameter.String())
	b.WriteString(" de ")
	b.WriteString(formatNumber(*q.Value))
	if unit := strings.TrimSpace(q.Unit); unit != "" {
		b.WriteString(" ")
		b.WriteString(unit)
	}
	if stage := strings.TrimSpace(q.Stage); stage != "" {
		b.WriteString(" en etapa ")
		b.WriteString(stage)
	}
	b.WriteString("?")
	return b.String()
}

// Adjustment builds the JSON-only prompt for a sensor reading. Absent fields
// are left out of the serialized data.
func (c *Composer) Adjustment(q domain.Query) string {
	data := make(map[string]any, 6)
	putString(data, "crop", q.Crop)
	putString(data, "parameter", q.Parameter.String())
	if q.Value != nil {
		data["value"] = *q.Value
	}
	putString(data, "unit", q.Unit)
	putString(data, "stage", q.Stage)
	if q.Temperature != nil {
		data["temperature"] = *q.Temperature
	}

	return "Datos del sensor: " + sanitize.DataPreview(data, previewLimit) + blockSeparator + AdjustmentInstruction
}

func putString(data map[string]any, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		data[key] = v
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
