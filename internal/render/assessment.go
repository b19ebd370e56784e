package render

import (
	"fmt"
	"strings"

	"pawcheck/pkg/pettypes"
)

// EmergencyNotice is shown when the backend forced an emergency recommendation.
const EmergencyNotice = "Seek emergency veterinary care now."

// maxConditions is how many ranked conditions the assessment block lists.
const maxConditions = 3

// UrgencySemantic maps an urgency label to its semantic type.
func UrgencySemantic(urgency string) SemanticType {
	switch strings.ToLower(strings.TrimSpace(urgency)) {
	case "low", "routine":
		return SemanticUrgencyLow
	case "moderate", "medium":
		return SemanticUrgencyModerate
	case "high", "urgent":
		return SemanticUrgencyHigh
	case "emergency", "critical":
		return SemanticUrgencyEmergency
	default:
		return SemanticInfo
	}
}

// assessmentLine is one line of the assessment block with its semantic.
type assessmentLine struct {
	semantic SemanticType
	text     string
}

func assessmentLines(a pettypes.AssessmentResult) []assessmentLine {
	if a.IsZero() {
		return nil
	}

	title := "Assessment"
	if name := a.PetName(); name != "" {
		title += " for " + name
	}
	lines := []assessmentLine{{SemanticTitle, title}}

	if urgency := a.Urgency(); urgency != "" {
		lines = append(lines, assessmentLine{UrgencySemantic(urgency), "Urgency: " + urgency})
	}
	if a.SafetyOverride() {
		lines = append(lines, assessmentLine{SemanticUrgencyEmergency, EmergencyNotice})
	}

	preds := a.Predictions()
	if len(preds) > 0 {
		lines = append(lines, assessmentLine{SemanticPlain, "Possible conditions:"})
	}
	for i, p := range preds {
		if i == maxConditions {
			break
		}
		text := fmt.Sprintf("  %d. %s", i+1, p.Condition)
		if p.Probability > 0 {
			text += fmt.Sprintf(" (%.0f%%)", p.Probability*100)
		}
		lines = append(lines, assessmentLine{SemanticPlain, text})
	}

	if caseID := a.CaseID(); caseID != "" {
		lines = append(lines, assessmentLine{SemanticMuted, "Tracking case: " + caseID})
	}
	return lines
}

// AssessmentText renders the assessment block without styling.
func AssessmentText(a pettypes.AssessmentResult) string {
	lines := assessmentLines(a)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.text)
	}
	return strings.Join(out, "\n")
}
