package advisor_test

import (
	"testing"

	"github.com/phrazzld/agro-api/internal/domain"
	"github.com/phrazzld/agro-api/internal/domain/advice"
	"github.com/phrazzld/agro-api/internal/service/advisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  {"a":1} `, `{"a":1}`},
		{"fence with language", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, advisor.StripCodeFence(tc.in))
		})
	}
}

func TestParseRecommendation(t *testing.T) {
	t.Parallel()

	table := advice.DefaultRanges()
	reading := func(p domain.Parameter, v float64, unit string) domain.Query {
		return domain.Query{Parameter: p, Value: &v, Unit: unit}
	}

	t.Run("canonicalizes action aliases", func(t *testing.T) {
		t.Parallel()
		for raw, want := range map[string]domain.Action{
			"subir":    domain.ActionIncrease,
			"Reducir":  domain.ActionDecrease,
			"keep":     domain.ActionMaintain,
			"mantain":  domain.ActionMaintain,
			"mantener": domain.ActionMaintain,
		} {
			rec, err := advisor.ParseRecommendation(`{"action":"`+raw+`"}`, reading(domain.ParameterOther, 1, ""), table)
			require.NoError(t, err, raw)
			assert.Equal(t, want, rec.Action, raw)
			assert.Nil(t, rec.TargetRange, raw)
		}
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		t.Parallel()
		rec, err := advisor.ParseRecommendation(`{"action":"regar"}`, reading(domain.ParameterRain, 1, ""), table)
		assert.Error(t, err)
		assert.Nil(t, rec)
	})

	t.Run("invalid json is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := advisor.ParseRecommendation("aumentar", reading(domain.ParameterRain, 1, ""), table)
		assert.Error(t, err)
	})

	t.Run("action is recomputed from the range", func(t *testing.T) {
		t.Parallel()
		rec, err := advisor.ParseRecommendation(
			`{"action":"mantener","target_range":{"min":20,"max":30,"unit":"%"}}`,
			reading(domain.ParameterSoilMoisture, 35, "%"), table)
		require.NoError(t, err)
		assert.Equal(t, domain.ActionDecrease, rec.Action)
		assert.NotEmpty(t, rec.Rationale)
	})

	t.Run("missing range comes from the table", func(t *testing.T) {
		t.Parallel()
		rec, err := advisor.ParseRecommendation(
			`{"action":"aumentar","parameter":"temperatura_aire","target_range":{"min":null,"max":null,"unit":""}}`,
			reading(domain.ParameterAirTemperature, 35, ""), table)
		require.NoError(t, err)

		require.NotNil(t, rec.TargetRange)
		assert.Equal(t, 18.0, *rec.TargetRange.Min)
		assert.Equal(t, 30.0, *rec.TargetRange.Max)
		assert.Equal(t, "°C", rec.TargetRange.Unit)
		assert.Equal(t, domain.ActionDecrease, rec.Action)
		assert.Equal(t, advice.Warnings(domain.ParameterAirTemperature), rec.Warnings)
	})

	t.Run("different parameter from the model is rejected", func(t *testing.T) {
		t.Parallel()
		rec, err := advisor.ParseRecommendation(
			`{"action":"mantener","parameter":"air_temperature"}`,
			reading(domain.ParameterSoilMoisture, 25, "%"), table)
		assert.Error(t, err)
		assert.Nil(t, rec)
	})

	t.Run("measured parameter is kept", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"humedad_suelo", "", "lluvia"} {
			rec, err := advisor.ParseRecommendation(
				`{"action":"mantener","parameter":"`+raw+`"}`,
				reading(domain.ParameterSoilMoisture, 25, "%"), table)
			if raw == "lluvia" {
				assert.Error(t, err, raw)
				continue
			}
			require.NoError(t, err, raw)
			assert.Equal(t, domain.ParameterSoilMoisture, rec.Parameter, raw)
			assert.Equal(t, 20.0, *rec.TargetRange.Min, raw)
			assert.Equal(t, 30.0, *rec.TargetRange.Max, raw)
		}
	})

	t.Run("unknown measured parameter ignores the model parameter", func(t *testing.T) {
		t.Parallel()
		rec, err := advisor.ParseRecommendation(
			`{"action":"aumentar","parameter":"air_temperature"}`,
			reading(domain.ParameterOther, 12, ""), table)
		require.NoError(t, err)
		assert.Equal(t, domain.ParameterOther, rec.Parameter)
		assert.Nil(t, rec.TargetRange)
	})

	t.Run("query unit fills a unitless model range", func(t *testing.T) {
		t.Parallel()
		rec, err := advisor.ParseRecommendation(
			`{"action":"aumentar","target_range":{"min":6}}`,
			reading(domain.ParameterSoilPH, 5.2, "pH"), table)
		require.NoError(t, err)
		assert.Equal(t, "pH", rec.TargetRange.Unit)
		assert.Nil(t, rec.TargetRange.Max)
		assert.Equal(t, domain.ActionIncrease, rec.Action)
		assert.Contains(t, rec.Warnings, advice.WarningContext)
	})

	t.Run("table range is not shared", func(t *testing.T) {
		t.Parallel()
		local := advice.DefaultRanges()
		rec, err := advisor.ParseRecommendation(`{"action":"mantener"}`, reading(domain.ParameterSoilMoisture, 25, ""), local)
		require.NoError(t, err)

		*rec.TargetRange.Min = 0
		r, ok := local.Lookup(domain.ParameterSoilMoisture)
		require.True(t, ok)
		assert.Equal(t, 20.0, *r.Min)
	})
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	lo, hi := 20.0, 30.0
	rec := &domain.Recommendation{
		Action:      domain.ActionIncrease,
		Parameter:   domain.ParameterSoilMoisture,
		TargetRange: &domain.TargetRange{Min: &lo, Max: &hi, Unit: "%"},
		Rationale:   "Por debajo del mínimo.",
		Warnings:    []string{"Verifica el sensor."},
	}

	assert.Equal(t,
		"Recomendación: aumentar soil_moisture (rango de referencia 20–30 %).\n\n"+
			"Por debajo del mínimo.\n\n"+
			"Advertencias:\n- Verifica el sensor.",
		advisor.Summarize(rec))

	light := 10000.0
	assert.Equal(t,
		"Recomendación: mantener light (mínimo de referencia 10000 lux).",
		advisor.Summarize(&domain.Recommendation{
			Action:      domain.ActionMaintain,
			Parameter:   domain.ParameterLight,
			TargetRange: &domain.TargetRange{Min: &light, Unit: "lux"},
		}))

	assert.Empty(t, advisor.Summarize(nil))
}
