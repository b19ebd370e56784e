package pettypes

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// AssessmentResult is the prediction payload returned by the symptom checker.
// The client treats it as opaque JSON and only reads the handful of fields it
// needs for rendering and the tracking hand-off.
type AssessmentResult []byte

// Field paths tried in order. The prediction service has renamed several of
// these between releases.
var (
	predictionsPaths    = []string{"predictions", "top_predictions"}
	urgencyPaths        = []string{"urgency_level", "urgency"}
	safetyOverridePaths = []string{"safety_override", "emergency_override"}
)

// NewAssessmentResult copies raw JSON into an AssessmentResult.
// It returns nil for empty, null or non-object payloads.
func NewAssessmentResult(raw []byte) AssessmentResult {
	if !gjson.ValidBytes(raw) {
		return nil
	}
	if parsed := gjson.ParseBytes(raw); !parsed.IsObject() {
		return nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

// IsZero reports whether no assessment is present.
func (a AssessmentResult) IsZero() bool {
	return len(a) == 0
}

// Clone returns an independent copy.
func (a AssessmentResult) Clone() AssessmentResult {
	if a == nil {
		return nil
	}
	out := make([]byte, len(a))
	copy(out, a)
	return out
}

// PetName returns the pet name the assessment was made for.
func (a AssessmentResult) PetName() string {
	return gjson.GetBytes(a, "pet_name").String()
}

// CaseID returns the diagnosis case identifier, or "" when tracking has not started.
func (a AssessmentResult) CaseID() string {
	return gjson.GetBytes(a, "case_id").String()
}

// Urgency returns the urgency classification.
func (a AssessmentResult) Urgency() string {
	return a.first(urgencyPaths).String()
}

// SafetyOverride reports whether the backend forced an emergency recommendation.
func (a AssessmentResult) SafetyOverride() bool {
	return a.first(safetyOverridePaths).Bool()
}

// Prediction is one ranked condition.
type Prediction struct {
	Condition   string
	Probability float64
	Symptoms    []string
}

// Predictions returns the ranked condition predictions in payload order.
func (a AssessmentResult) Predictions() []Prediction {
	var out []Prediction
	a.first(predictionsPaths).ForEach(func(_, value gjson.Result) bool {
		p := Prediction{
			Condition:   value.Get("condition").String(),
			Probability: value.Get("probability").Float(),
		}
		if p.Condition == "" {
			p.Condition = value.Get("name").String()
		}
		if !value.Get("probability").Exists() {
			p.Probability = value.Get("confidence").Float()
		}
		for _, s := range value.Get("symptoms").Array() {
			p.Symptoms = append(p.Symptoms, s.String())
		}
		out = append(out, p)
		return true
	})
	return out
}

// TopSymptoms returns the symptoms associated with the highest ranked prediction,
// falling back to the symptoms echoed at the top level of the payload.
func (a AssessmentResult) TopSymptoms() []string {
	if preds := a.Predictions(); len(preds) > 0 && len(preds[0].Symptoms) > 0 {
		return preds[0].Symptoms
	}
	var out []string
	for _, s := range gjson.GetBytes(a, "symptoms").Array() {
		out = append(out, s.String())
	}
	return out
}

// WithCaseID returns a copy of the payload with case_id set.
func (a AssessmentResult) WithCaseID(caseID string) (AssessmentResult, error) {
	base := a
	if base.IsZero() {
		base = AssessmentResult("{}")
	}
	patched, err := sjson.SetBytes(base.Clone(), "case_id", caseID)
	if err != nil {
		return nil, err
	}
	return patched, nil
}

func (a AssessmentResult) first(paths []string) gjson.Result {
	for _, p := range paths {
		if r := gjson.GetBytes(a, p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

// MarshalJSON emits the raw payload, or null when absent.
func (a AssessmentResult) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte("null"), nil
	}
	return a, nil
}

// UnmarshalJSON stores the raw payload.
func (a *AssessmentResult) UnmarshalJSON(data []byte) error {
	*a = NewAssessmentResult(data)
	return nil
}

// MarshalYAML exposes the payload as a structured value for transcript export.
func (a AssessmentResult) MarshalYAML() (interface{}, error) {
	if a.IsZero() {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(a, &v); err != nil {
		return nil, err
	}
	return v, nil
}
