package council

import (
	"fmt"
	"strings"
	"time"
)

// TriageLevel is the discrete urgency classification driving response-time
// expectations.
type TriageLevel string

const (
	TriageLow    TriageLevel = "LOW"
	TriageMedium TriageLevel = "MEDIUM"
	TriageHigh   TriageLevel = "HIGH"
)

// GeneralReferral is the null specialty; it is omitted from insights.
const GeneralReferral = "General Practice"

// ModelVersion identifies the synthesis rule table revision.
const ModelVersion = "council-synthesis-v1"

const maxConfidence = 0.95

// Response is the synthesized clinical answer. Immutable once produced;
// embedded into a report as its assisted draft.
type Response struct {
	Insights        []string    `json:"insights"`
	RiskFlags       []string    `json:"riskFlags"`
	ConfidenceScore float64     `json:"confidenceScore"`
	TriageLevel     TriageLevel `json:"triageLevel"`
	Timestamp       time.Time   `json:"timestamp"`
	ModelVersion    string      `json:"modelVersion"`
}

type triageRule struct {
	keyword           string
	redFlag           string
	severity          int
	triage            TriageLevel
	timeToTreatment   string
	recommendedAction string
	specialty         string
}

// triageRules maps lower-cased symptom substrings to triage outcomes.
// Order is significant: when several rules share the highest severity, the
// earliest one in this table decides triage, treatment window, and
// referral.
var triageRules = []triageRule{
	{"chest pain", "possible acute coronary syndrome", 3, TriageHigh, "immediate", "emergency department evaluation", "Cardiology"},
	{"shortness of breath", "acute respiratory distress", 3, TriageHigh, "immediate", "oxygen saturation check and urgent assessment", "Pulmonology"},
	{"slurred speech", "possible stroke", 3, TriageHigh, "immediate", "activate stroke pathway", "Neurology"},
	{"facial droop", "possible stroke", 3, TriageHigh, "immediate", "activate stroke pathway", "Neurology"},
	{"severe bleeding", "uncontrolled hemorrhage", 3, TriageHigh, "immediate", "hemorrhage control and emergency transport", "Emergency Medicine"},
	{"severe headache", "possible intracranial event", 3, TriageHigh, "within 1 hour", "urgent neurological assessment", "Neurology"},
	{"high fever", "possible systemic infection", 2, TriageMedium, "within 24 hours", "infection workup", "Internal Medicine"},
	{"abdominal pain", "possible acute abdomen", 2, TriageMedium, "within 24 hours", "abdominal examination", "Gastroenterology"},
	{"persistent cough", "possible lower respiratory infection", 2, TriageMedium, "within 48 hours", "chest examination", "Pulmonology"},
	{"headache", "recurrent cephalgia", 2, TriageMedium, "within 48 hours", "neurological screening", "Neurology"},
	{"dizziness", "vertigo or presyncope", 2, TriageMedium, "within 48 hours", "orthostatic and neurological screening", "Neurology"},
	{"rash", "dermatologic reaction", 1, TriageLow, "within 1 week", "topical care and observation", "Dermatology"},
	{"joint pain", "musculoskeletal complaint", 1, TriageLow, "within 1 week", "activity modification", "Rheumatology"},
	{"fatigue", "nonspecific constitutional symptom", 1, TriageLow, "routine", "routine bloodwork", GeneralReferral},
}

var triageWeight = map[TriageLevel]float64{
	TriageHigh:   0.9,
	TriageMedium: 0.7,
	TriageLow:    0.5,
}

// Synthesize reconciles the settled provider results with the deterministic
// rule table. Given identical inputs the output is identical except for the
// emitted timestamp.
func Synthesize(anonymizedSymptoms string, results []Result) Response {
	lower := strings.ToLower(anonymizedSymptoms)

	var matched []triageRule
	for _, rule := range triageRules {
		if strings.Contains(lower, rule.keyword) {
			matched = append(matched, rule)
		}
	}

	triage := TriageLow
	timeToTreatment := "routine"
	specialty := GeneralReferral
	if len(matched) > 0 {
		best := matched[0]
		for _, rule := range matched[1:] {
			if rule.severity > best.severity {
				best = rule
			}
		}
		triage = best.triage
		timeToTreatment = best.timeToTreatment
		specialty = best.specialty
	}

	riskFlags := make([]string, 0, len(matched))
	seen := make(map[string]bool)
	for _, rule := range matched {
		if seen[rule.redFlag] {
			continue
		}
		seen[rule.redFlag] = true
		riskFlags = append(riskFlags, rule.redFlag)
	}
	for _, flag := range providerRiskFlags(results) {
		if seen[flag] {
			continue
		}
		seen[flag] = true
		riskFlags = append(riskFlags, flag)
	}

	top, hasTop := topDifferential(results)
	confidence := triageWeight[triage]
	if hasTop {
		confidence = (top.Confidence + triageWeight[triage]) / 2
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	insights := make([]string, 0, 4)
	if hasTop {
		insights = append(insights, fmt.Sprintf("Top differential: %s (confidence %.2f)", top.Condition, top.Confidence))
	}
	insights = append(insights, fmt.Sprintf("Triage level: %s (time to treatment: %s)", triage, timeToTreatment))
	if specialty != GeneralReferral {
		insights = append(insights, fmt.Sprintf("Specialty referral: %s", specialty))
	}
	if narrative := narrativeOf(results); narrative != "" {
		insights = append(insights, narrative)
	}

	return Response{
		Insights:        insights,
		RiskFlags:       riskFlags,
		ConfidenceScore: confidence,
		TriageLevel:     triage,
		Timestamp:       time.Now().UTC(),
		ModelVersion:    ModelVersion,
	}
}

// SpecialtyFor returns the referral the rule table selects for the symptom
// text. The tokenization assignment path shares this resolution.
func SpecialtyFor(symptoms string) string {
	lower := strings.ToLower(symptoms)
	var best *triageRule
	for i, rule := range triageRules {
		if !strings.Contains(lower, rule.keyword) {
			continue
		}
		if best == nil || rule.severity > best.severity {
			best = &triageRules[i]
		}
	}
	if best == nil {
		return GeneralReferral
	}
	return best.specialty
}

func topDifferential(results []Result) (Differential, bool) {
	for _, r := range results {
		if r.Role != RoleDiagnosis || len(r.Payload.Differentials) == 0 {
			continue
		}
		top := r.Payload.Differentials[0]
		for _, d := range r.Payload.Differentials[1:] {
			if d.Confidence > top.Confidence {
				top = d
			}
		}
		return top, true
	}
	return Differential{}, false
}

func providerRiskFlags(results []Result) []string {
	var flags []string
	for _, r := range results {
		if r.Role != RoleRisk || r.Payload.Risk == nil {
			continue
		}
		flags = append(flags, r.Payload.Risk.Flags...)
	}
	return flags
}

func narrativeOf(results []Result) string {
	for _, r := range results {
		if r.Role == RoleNarrative && r.Payload.Narrative != "" {
			return r.Payload.Narrative
		}
	}
	return ""
}
