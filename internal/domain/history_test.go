package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatRecord(t *testing.T) {
	t.Parallel()

	value := 15.0
	q := Query{Question: "¿Riego?", Crop: "maíz", Parameter: ParameterSoilMoisture, Value: &value, Unit: "%"}
	answer := &ModelAnswer{
		Answer: "respuesta",
		Model:  "gemini-2.5-flash",
		Recommendation: &Recommendation{
			Action:    ActionIncrease,
			Parameter: ParameterSoilMoisture,
		},
	}

	rec, err := NewChatRecord(EndpointAsk, q, answer, 1500*time.Millisecond, "10.0.0.1")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, EndpointAsk, rec.Endpoint)
	assert.Equal(t, LengthMedium, rec.Length)
	assert.Equal(t, "respuesta", rec.Answer)
	assert.Equal(t, int64(1500), *rec.ResponseTimeMS)
	assert.Equal(t, ActionIncrease, rec.Recommendation.Action)
}

func TestNewChatRecord_RequiresEndpoint(t *testing.T) {
	t.Parallel()

	_, err := NewChatRecord("", Query{Question: "x"}, nil, 0, "")
	assert.ErrorIs(t, err, ErrEmptyEndpoint)
}

func TestNewSensorReading(t *testing.T) {
	t.Parallel()

	value := 35.0
	min, max := 18.0, 30.0
	q := Query{Parameter: ParameterAirTemperature, Value: &value, Crop: "tomate"}
	rec := &Recommendation{
		Action:      ActionDecrease,
		Parameter:   ParameterAirTemperature,
		TargetRange: &TargetRange{Min: &min, Max: &max, Unit: "°C"},
		Rationale:   "demasiado alto",
	}

	reading, err := NewSensorReading(q, rec)
	require.NoError(t, err)
	assert.Equal(t, 35.0, reading.Value)
	assert.Equal(t, ActionDecrease, reading.Action)
	assert.Equal(t, 18.0, *reading.TargetMin)
	assert.Equal(t, "°C", reading.TargetUnit)

	_, err = NewSensorReading(Query{Question: "x"}, rec)
	assert.ErrorIs(t, err, ErrEmptyReadingParam)

	_, err = NewSensorReading(q, &Recommendation{Action: "subir"})
	assert.ErrorIs(t, err, ErrInvalidAction)
}
