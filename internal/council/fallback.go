package council

// FallbackPayload returns the canned, non-random response substituted when
// a provider times out or errors. The council must always produce some
// synthesis, so every role has a deterministic degraded payload.
func FallbackPayload(role ProviderRole) Payload {
	switch role {
	case RoleDiagnosis:
		return Payload{
			Kind: RoleDiagnosis,
			Differentials: []Differential{
				{
					Condition:  "Undifferentiated symptom complex",
					Confidence: 0.35,
					Rationale:  "diagnosis provider unavailable; heuristic placeholder",
				},
			},
		}
	case RoleRisk:
		return Payload{
			Kind: RoleRisk,
			Risk: &RiskAssessment{
				Flags:   []string{"risk assessment degraded: provider unavailable, manual review advised"},
				Urgency: "UNKNOWN",
			},
		}
	case RoleNarrative:
		return Payload{
			Kind:      RoleNarrative,
			Narrative: "Automated narrative unavailable for this submission. Findings below are rule-based; clinician review required.",
		}
	default:
		return Payload{Kind: role}
	}
}
