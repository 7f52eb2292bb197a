package prompt_test

import (
	"strings"
	"testing"

	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestFreeText_BlockOrder(t *testing.T) {
	t.Parallel()

	c := prompt.NewComposer(12000)
	got := c.FreeText(domain.Query{
		Question:    "¿Cuándo conviene regar el maíz?",
		Crop:        "maíz",
		Temperature: ptr(25.5),
		Length:      domain.LengthShort,
	})

	blocks := strings.Split(got, "\n\n")
	require.Len(t, blocks, 6)
	assert.True(t, strings.HasPrefix(blocks[0], "Contexto educativo:"))
	assert.Equal(t, "Cultivo: maíz", blocks[1])
	assert.Equal(t, "Pregunta: ¿Cuándo conviene regar el maíz?", blocks[2])
	assert.Equal(t, "Temperatura (°C): 25.5", blocks[3])
	assert.True(t, strings.HasPrefix(blocks[4], "Formato de salida:"))
	assert.Contains(t, blocks[4], "- 6) Datos extra útiles (si aplican)")
	assert.True(t, strings.HasPrefix(blocks[5], "Longitud sugerida: 3–5 bullets"))
}

func TestFreeText_OptionalBlocksAndMediumLength(t *testing.T) {
	t.Parallel()

	got := prompt.NewComposer(12000).FreeText(domain.Query{Question: "Manejo del suelo"})

	assert.NotContains(t, got, "Cultivo:")
	assert.NotContains(t, got, "Temperatura (°C):")
	assert.True(t, strings.HasSuffix(got,
		"Mantén la respuesta concisa (≈ 200–350 palabras) y enfocada en bullets; evita redundancias."))
	assert.Len(t, strings.Split(got, "\n\n"), 4)
}

func TestFreeText_SanitizesAndLimitsQuestion(t *testing.T) {
	t.Parallel()

	t.Run("masks personal data", func(t *testing.T) {
		t.Parallel()
		got := prompt.NewComposer(12000).FreeText(domain.Query{
			Question: "Escríbeme a ana@example.com sobre el riego",
		})
		assert.Contains(t, got, "Pregunta: Escríbeme a [email] sobre el riego")
		assert.NotContains(t, got, "ana@example.com")
	})

	t.Run("caps at 800 characters", func(t *testing.T) {
		t.Parallel()
		got := prompt.NewComposer(12000).FreeText(domain.Query{Question: strings.Repeat("a", 2000)})
		assert.Contains(t, got, "Pregunta: "+strings.Repeat("a", 797)+"...\n\n")
	})

	t.Run("caps at a smaller input limit", func(t *testing.T) {
		t.Parallel()
		got := prompt.NewComposer(20).FreeText(domain.Query{Question: strings.Repeat("b", 100)})
		assert.Contains(t, got, "Pregunta: "+strings.Repeat("b", 17)+"...\n\n")
	})
}

func TestFreeText_SensorOnlyQuery(t *testing.T) {
	t.Parallel()

	got := prompt.NewComposer(12000).FreeText(domain.Query{
		Parameter: domain.ParameterOther,
		Value:     ptr(42),
		Unit:      "u",
		Stage:     "floración",
	})

	assert.Contains(t, got, "Pregunta: ¿Cómo interpretar una lectura de other de 42 u en etapa floración?")
}

func TestAdjustment(t *testing.T) {
	t.Parallel()

	got := prompt.NewComposer(12000).Adjustment(domain.Query{
		Crop:      "maíz",
		Parameter: domain.ParameterSoilMoisture,
		Value:     ptr(15),
		Unit:      "%",
	})

	parts := strings.SplitN(got, "\n\n", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, `Datos del sensor: {"crop":"maíz","parameter":"soil_moisture","unit":"%","value":15}`, parts[0])
	assert.Equal(t, prompt.AdjustmentInstruction, parts[1])
	assert.NotContains(t, parts[0], "stage")
	assert.NotContains(t, parts[0], "temperature")
}

func TestAdjustment_IncludesStageAndTemperature(t *testing.T) {
	t.Parallel()

	got := prompt.NewComposer(12000).Adjustment(domain.Query{
		Parameter:   domain.ParameterAirHumidity,
		Value:       ptr(90),
		Stage:       "vegetativa",
		Temperature: ptr(31),
	})

	assert.Contains(t, got, `"stage":"vegetativa"`)
	assert.Contains(t, got, `"temperature":31`)
	assert.NotContains(t, got, `"crop"`)
	assert.NotContains(t, got, `"unit"`)
}

func TestReframeTemplates(t *testing.T) {
	t.Parallel()

	assert.True(t, strings.HasPrefix(prompt.Reframe1Suffix, "\n\nReformulación:"))
	assert.True(t, strings.HasPrefix(prompt.Reframe2Prompt, "Finalidad educativa:"))
	assert.True(t, strings.HasPrefix(prompt.Reframe3Suffix, "\n\nAjuste de formato:"))
}
