package advice

import (
	"github.com/phrazzld/agro-api/internal/domain"
)

// Range is the reference interval for one parameter. A nil bound means the
// parameter has no limit on that side.
type Range struct {
	Min  *float64
	Max  *float64
	Unit string
}

// RangeTable maps canonical parameters to their reference ranges.
type RangeTable map[domain.Parameter]Range

func bound(v float64) *float64 { return &v }

// defaultRanges are generic reference ranges, not crop-specific targets.
var defaultRanges = RangeTable{
	domain.ParameterSoilMoisture:    {Min: bound(20), Max: bound(30), Unit: "%"},
	domain.ParameterAirTemperature:  {Min: bound(18), Max: bound(30), Unit: "°C"},
	domain.ParameterSoilTemperature: {Min: bound(15), Max: bound(25), Unit: "°C"},
	domain.ParameterAirHumidity:     {Min: bound(50), Max: bound(80), Unit: "%"},
	domain.ParameterSoilPH:          {Min: bound(6.0), Max: bound(7.0), Unit: "pH"},
	domain.ParameterLight:           {Min: bound(10000), Unit: "lux"},
	domain.ParameterRain:            {Max: bound(50), Unit: "mm"},
	domain.ParameterNutrients:       {Min: bound(1.0), Max: bound(2.5), Unit: "dS/m"},
}

// contextDependent parameters get an extra warning because a generic range
// says little without crop, soil and climate context.
var contextDependent = map[domain.Parameter]bool{
	domain.ParameterSoilPH:    true,
	domain.ParameterLight:     true,
	domain.ParameterRain:      true,
	domain.ParameterNutrients: true,
}

// DefaultRanges returns the process-wide range table. Callers get a copy so
// the shared table stays immutable.
func DefaultRanges() RangeTable {
	out := make(RangeTable, len(defaultRanges))
	for k, v := range defaultRanges {
		out[k] = Range{Min: copyBound(v.Min), Max: copyBound(v.Max), Unit: v.Unit}
	}
	return out
}

// Lookup returns the range for p.
func (t RangeTable) Lookup(p domain.Parameter) (Range, bool) {
	r, ok := t[p]
	return r, ok
}

// IsContextDependent reports whether p needs the extra context warning.
func IsContextDependent(p domain.Parameter) bool {
	return contextDependent[p]
}
