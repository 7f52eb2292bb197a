package domain

import "strings"

// Parameter is the canonical (non-localized) name of a measured agronomic
// quantity. It is the key into the heuristic range table.
type Parameter string

// Canonical parameter names.
const (
	ParameterSoilMoisture    Parameter = "soil_moisture"
	ParameterAirTemperature  Parameter = "air_temperature"
	ParameterSoilTemperature Parameter = "soil_temperature"
	ParameterAirHumidity     Parameter = "air_humidity"
	ParameterSoilPH          Parameter = "soil_ph"
	ParameterLight           Parameter = "light"
	ParameterRain            Parameter = "rain"
	ParameterNutrients       Parameter = "nutrients"
	ParameterOther           Parameter = "other"
)

// parameterAliases maps every accepted spelling (Spanish first, English as
// identity) to its canonical name.
var parameterAliases = map[string]Parameter{
	"humedad_suelo":     ParameterSoilMoisture,
	"temperatura_aire":  ParameterAirTemperature,
	"temperatura_suelo": ParameterSoilTemperature,
	"humedad_aire":      ParameterAirHumidity,
	"ph_suelo":          ParameterSoilPH,
	"luz":               ParameterLight,
	"lluvia":            ParameterRain,
	"nutrientes":        ParameterNutrients,
	"otro":              ParameterOther,

	"soil_moisture":    ParameterSoilMoisture,
	"air_temperature":  ParameterAirTemperature,
	"soil_temperature": ParameterSoilTemperature,
	"air_humidity":     ParameterAirHumidity,
	"soil_ph":          ParameterSoilPH,
	"light":            ParameterLight,
	"rain":             ParameterRain,
	"nutrients":        ParameterNutrients,
	"other":            ParameterOther,
}

// ParseParameter resolves a localized or canonical parameter name.
// Matching is case-insensitive and treats spaces and dashes as underscores.
func ParseParameter(s string) (Parameter, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	p, ok := parameterAliases[key]
	return p, ok
}

// String returns the canonical name.
func (p Parameter) String() string {
	return string(p)
}
