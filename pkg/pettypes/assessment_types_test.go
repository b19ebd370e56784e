package pettypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewAssessmentResult(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		isZero bool
	}{
		{"object", `{"urgency":"low"}`, false},
		{"empty", ``, true},
		{"null", `null`, true},
		{"array", `[1,2]`, true},
		{"invalid", `{"urgency":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isZero, NewAssessmentResult([]byte(tt.raw)).IsZero())
		})
	}
}

func TestAssessmentResult_Accessors(t *testing.T) {
	a := NewAssessmentResult([]byte(`{
		"pet_name": "Rex",
		"urgency_level": "high",
		"emergency_override": true,
		"top_predictions": [
			{"name": "Pancreatitis", "confidence": 0.71, "symptoms": ["vomiting", "abdominal pain"]},
			{"condition": "Gastritis", "probability": 0.2}
		],
		"symptoms": ["vomiting"]
	}`))

	assert.Equal(t, "Rex", a.PetName())
	assert.Equal(t, "high", a.Urgency())
	assert.True(t, a.SafetyOverride())
	assert.Empty(t, a.CaseID())

	preds := a.Predictions()
	require.Len(t, preds, 2)
	assert.Equal(t, "Pancreatitis", preds[0].Condition)
	assert.InDelta(t, 0.71, preds[0].Probability, 1e-9)
	assert.Equal(t, "Gastritis", preds[1].Condition)
	assert.InDelta(t, 0.2, preds[1].Probability, 1e-9)

	assert.Equal(t, []string{"vomiting", "abdominal pain"}, a.TopSymptoms())
}

func TestAssessmentResult_TopSymptomsFallback(t *testing.T) {
	a := NewAssessmentResult([]byte(`{"predictions":[{"condition":"Otitis"}],"symptoms":["head shaking"]}`))
	assert.Equal(t, []string{"head shaking"}, a.TopSymptoms())

	var zero AssessmentResult
	assert.Empty(t, zero.TopSymptoms())
	assert.Empty(t, zero.Predictions())
	assert.Empty(t, zero.Urgency())
}

func TestAssessmentResult_WithCaseID(t *testing.T) {
	a := NewAssessmentResult([]byte(`{"urgency":"low"}`))

	patched, err := a.WithCaseID("case-9")
	require.NoError(t, err)
	assert.Equal(t, "case-9", patched.CaseID())
	assert.Equal(t, "low", patched.Urgency())
	assert.Empty(t, a.CaseID(), "original is unchanged")

	var zero AssessmentResult
	fromZero, err := zero.WithCaseID("case-1")
	require.NoError(t, err)
	assert.Equal(t, "case-1", fromZero.CaseID())
}

func TestAssessmentResult_JSON(t *testing.T) {
	type envelope struct {
		Assessment AssessmentResult `json:"assessment"`
	}

	out, err := json.Marshal(envelope{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"assessment":null}`, string(out))

	var in envelope
	require.NoError(t, json.Unmarshal([]byte(`{"assessment":{"urgency":"low","predictions":[]}}`), &in))
	assert.Equal(t, "low", in.Assessment.Urgency())

	out, err = json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"assessment":{"urgency":"low","predictions":[]}}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"assessment":null}`), &in))
	assert.True(t, in.Assessment.IsZero())
}

func TestAssessmentResult_YAML(t *testing.T) {
	msg := Message{ID: "m1", Content: "Assessment", Author: AuthorAssistant, IsAssessment: true,
		Assessment: NewAssessmentResult([]byte(`{"urgency":"low"}`))}

	out, err := yaml.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "urgency: low")
}

func TestAssessmentResult_CloneIsIndependent(t *testing.T) {
	a := NewAssessmentResult([]byte(`{"urgency":"low"}`))
	b := a.Clone()
	b[2] = 'X'

	assert.Equal(t, "low", a.Urgency())
	assert.Nil(t, AssessmentResult(nil).Clone())
}
