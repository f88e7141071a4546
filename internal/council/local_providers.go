package council

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// The local providers are deterministic keyword heuristics. They stand in
// for vendor backends in development and tests, and they define the shape
// live adapters must translate vendor responses into.

// LocalDiagnosisProvider maps symptom keywords to a ranked differential.
type LocalDiagnosisProvider struct{}

func (LocalDiagnosisProvider) Name() string       { return "local-differential" }
func (LocalDiagnosisProvider) Role() ProviderRole { return RoleDiagnosis }

var diagnosisHeuristics = []struct {
	keyword    string
	condition  string
	confidence float64
}{
	{"chest pain", "Acute coronary syndrome", 0.72},
	{"shortness of breath", "Pulmonary embolism", 0.58},
	{"slurred speech", "Cerebrovascular accident", 0.70},
	{"high fever", "Systemic infection", 0.61},
	{"abdominal pain", "Appendicitis", 0.48},
	{"headache", "Migraine", 0.55},
	{"persistent cough", "Bronchitis", 0.52},
	{"rash", "Contact dermatitis", 0.57},
	{"joint pain", "Osteoarthritis", 0.50},
	{"fatigue", "Anemia", 0.40},
}

func (p LocalDiagnosisProvider) Generate(ctx context.Context, anonymizedInput string) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}

	lower := strings.ToLower(anonymizedInput)
	var differentials []Differential
	for _, h := range diagnosisHeuristics {
		if strings.Contains(lower, h.keyword) {
			differentials = append(differentials, Differential{
				Condition:  h.condition,
				Confidence: h.confidence,
				Rationale:  fmt.Sprintf("keyword match: %q", h.keyword),
			})
		}
	}
	if len(differentials) == 0 {
		differentials = append(differentials, Differential{
			Condition:  "Nonspecific presentation",
			Confidence: 0.30,
			Rationale:  "no heuristic matched",
		})
	}
	sort.SliceStable(differentials, func(i, j int) bool {
		return differentials[i].Confidence > differentials[j].Confidence
	})

	return Payload{Kind: RoleDiagnosis, Differentials: differentials}, nil
}

// LocalRiskProvider flags symptom combinations that raise urgency.
type LocalRiskProvider struct{}

func (LocalRiskProvider) Name() string       { return "local-risk" }
func (LocalRiskProvider) Role() ProviderRole { return RoleRisk }

var riskHeuristics = []struct {
	keyword string
	flag    string
	urgency string
}{
	{"chest pain", "cardiac risk: evaluate for acute coronary syndrome", "HIGH"},
	{"shortness of breath", "respiratory compromise risk", "HIGH"},
	{"slurred speech", "stroke risk: time-critical window", "HIGH"},
	{"severe bleeding", "hemorrhage risk", "HIGH"},
	{"high fever", "sepsis screening advised", "MEDIUM"},
	{"dizziness", "fall risk", "MEDIUM"},
}

func (p LocalRiskProvider) Generate(ctx context.Context, anonymizedInput string) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}

	lower := strings.ToLower(anonymizedInput)
	assessment := &RiskAssessment{Urgency: "LOW"}
	for _, h := range riskHeuristics {
		if !strings.Contains(lower, h.keyword) {
			continue
		}
		assessment.Flags = append(assessment.Flags, h.flag)
		if urgencyRank(h.urgency) > urgencyRank(assessment.Urgency) {
			assessment.Urgency = h.urgency
		}
	}

	return Payload{Kind: RoleRisk, Risk: assessment}, nil
}

func urgencyRank(u string) int {
	switch u {
	case "HIGH":
		return 3
	case "MEDIUM":
		return 2
	case "LOW":
		return 1
	default:
		return 0
	}
}

// LocalNarrativeProvider restates the anonymized input as a short summary.
type LocalNarrativeProvider struct{}

func (LocalNarrativeProvider) Name() string       { return "local-narrative" }
func (LocalNarrativeProvider) Role() ProviderRole { return RoleNarrative }

func (p LocalNarrativeProvider) Generate(ctx context.Context, anonymizedInput string) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}

	trimmed := strings.TrimSpace(anonymizedInput)
	if trimmed == "" {
		return Payload{Kind: RoleNarrative, Narrative: "No symptom description provided."}, nil
	}
	return Payload{
		Kind:      RoleNarrative,
		Narrative: fmt.Sprintf("Patient presents with: %s. Assessment generated from anonymized intake text.", trimmed),
	}, nil
}
