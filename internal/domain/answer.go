package domain

import "strings"

// Action is the localized direction of a sensor adjustment.
type Action string

// Localized actions. These are the only values a Recommendation may carry.
const (
	ActionIncrease Action = "aumentar"
	ActionDecrease Action = "disminuir"
	ActionMaintain Action = "mantener"
)

// Valid reports whether a is one of the three localized actions.
func (a Action) Valid() bool {
	switch a {
	case ActionIncrease, ActionDecrease, ActionMaintain:
		return true
	default:
		return false
	}
}

// actionAliases maps the vocabulary a model may answer with onto the
// localized actions.
var actionAliases = map[string]Action{
	"increase":    ActionIncrease,
	"aumentar":    ActionIncrease,
	"incrementar": ActionIncrease,
	"subir":       ActionIncrease,
	"decrease":    ActionDecrease,
	"disminuir":   ActionDecrease,
	"reducir":     ActionDecrease,
	"bajar":       ActionDecrease,
	"maintain":    ActionMaintain,
	"mantener":    ActionMaintain,
	"keep":        ActionMaintain,
	"mantain":     ActionMaintain,
}

// ParseAction canonicalizes an action word. Unknown words return false.
func ParseAction(s string) (Action, bool) {
	a, ok := actionAliases[strings.ToLower(strings.TrimSpace(s))]
	return a, ok
}

// TargetRange is the reference interval a reading is compared against.
// Either bound may be absent.
type TargetRange struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Unit string   `json:"unit,omitempty"`
}

// Recommendation is the structured adjustment advice for a sensor reading.
type Recommendation struct {
	Action      Action       `json:"action"`
	Parameter   Parameter    `json:"parameter"`
	TargetRange *TargetRange `json:"target_range,omitempty"`
	Rationale   string       `json:"rationale,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// ModelAnswer is the result of one advisory query. It is built once by the
// pipeline and not mutated afterwards.
type ModelAnswer struct {
	Answer         string           `json:"answer"`
	Model          string           `json:"model"`
	Usage          map[string]int64 `json:"usage,omitempty"`
	Tips           []string         `json:"tips,omitempty"`
	Recommendation *Recommendation  `json:"recommendation,omitempty"`
}
