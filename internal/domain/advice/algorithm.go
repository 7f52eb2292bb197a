package advice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phrazzld/agro-api/internal/domain"
)

// Fixed cautionary warnings attached to every heuristic recommendation.
const (
	WarningGenericRange = "Rango de referencia genérico: ajústalo según cultivo, etapa fenológica y condiciones locales."
	WarningSensor       = "Verifica la calibración del sensor y repite la medición antes de realizar cambios."
	WarningContext      = "Este parámetro depende fuertemente del contexto (suelo, clima, manejo); consulta a un especialista local."
)

// DecideAction applies the min/max rule: below min means increase, above max
// means decrease, anything else maintain. A nil bound skips that comparison.
func DecideAction(value float64, min, max *float64) domain.Action {
	if min != nil && value < *min {
		return domain.ActionIncrease
	}
	if max != nil && value > *max {
		return domain.ActionDecrease
	}
	return domain.ActionMaintain
}

// Recommend builds the heuristic recommendation for a query's sensor reading.
// It returns false when the query has no measurement or the parameter has no
// reference range.
//
// The target range unit is the query's unit when given, otherwise the table's.
func Recommend(table RangeTable, q domain.Query) (*domain.Recommendation, bool) {
	if !q.HasMeasurement() {
		return nil, false
	}
	r, ok := table.Lookup(q.Parameter)
	if !ok {
		return nil, false
	}

	value := *q.Value
	unit := strings.TrimSpace(q.Unit)
	if unit == "" {
		unit = r.Unit
	}

	action := DecideAction(value, r.Min, r.Max)

	return &domain.Recommendation{
		Action:    action,
		Parameter: q.Parameter,
		TargetRange: &domain.TargetRange{
			Min:  copyBound(r.Min),
			Max:  copyBound(r.Max),
			Unit: unit,
		},
		Rationale: Rationale(action, value, r.Min, r.Max, unit),
		Warnings:  Warnings(q.Parameter),
	}, true
}

// Warnings returns the cautionary warnings for a recommendation on p.
func Warnings(p domain.Parameter) []string {
	warnings := []string{WarningGenericRange, WarningSensor}
	if IsContextDependent(p) {
		warnings = append(warnings, WarningContext)
	}
	return warnings
}

// Rationale describes which bound the reading was compared against.
func Rationale(action domain.Action, value float64, min, max *float64, unit string) string {
	observed := withUnit(value, unit)
	switch action {
	case domain.ActionIncrease:
		return fmt.Sprintf(
			"El valor observado (%s) está por debajo del mínimo de referencia (%s); en general convendría elevarlo de forma gradual.",
			observed, withUnit(*min, unit))
	case domain.ActionDecrease:
		return fmt.Sprintf(
			"El valor observado (%s) está por encima del máximo de referencia (%s); en general convendría reducirlo de forma gradual.",
			observed, withUnit(*max, unit))
	}

	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("El valor observado (%s) se encuentra dentro del rango de referencia (%s–%s).",
			observed, formatNumber(*min), withUnit(*max, unit))
	case min != nil:
		return fmt.Sprintf("El valor observado (%s) no está por debajo del mínimo de referencia (%s).",
			observed, withUnit(*min, unit))
	case max != nil:
		return fmt.Sprintf("El valor observado (%s) no supera el máximo de referencia (%s).",
			observed, withUnit(*max, unit))
	default:
		return fmt.Sprintf("El valor observado (%s) no tiene un rango de referencia con el que compararse.", observed)
	}
}

func copyBound(b *float64) *float64 {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func withUnit(v float64, unit string) string {
	if unit == "" {
		return formatNumber(v)
	}
	return formatNumber(v) + " " + unit
}
