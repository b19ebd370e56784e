package pettypes

// QuestionnaireAnswers is the completion payload of the symptom questionnaire.
// Extra carries form fields the client does not know about; they are sent
// to the prediction endpoint unchanged.
type QuestionnaireAnswers struct {
	PetName     string                 `json:"pet_name,omitempty"`
	Symptoms    []string               `json:"symptoms"`
	Duration    string                 `json:"duration,omitempty"`
	Severity    string                 `json:"severity,omitempty"`
	Appetite    string                 `json:"appetite,omitempty"`
	EnergyLevel string                 `json:"energy_level,omitempty"`
	Notes       string                 `json:"notes,omitempty"`
	Extra       map[string]interface{} `json:"-"`
}

// TrackingHandoff is what the symptom logger needs to start tracking an assessment.
type TrackingHandoff struct {
	PetName  string   `json:"pet_name"`
	CaseID   string   `json:"case_id"`
	Symptoms []string `json:"symptoms"`
}
