package council

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const narrativeSystemPrompt = `You are a clinical scribe. Restate the anonymized ` +
	`symptom text as one short, neutral clinical narrative paragraph. Do not ` +
	`diagnose, do not invent details, and never address the patient directly.`

// GeminiNarrativeProvider adapts Google's Gemini API into the council's
// narrative seat.
type GeminiNarrativeProvider struct {
	client  *genai.Client
	modelID string
}

// NewGeminiNarrativeProvider creates a Gemini-backed narrative synthesizer.
func NewGeminiNarrativeProvider(ctx context.Context, apiKey, modelID string) (*GeminiNarrativeProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("council: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("council: failed to create gemini client: %w", err)
	}
	return &GeminiNarrativeProvider{client: client, modelID: modelID}, nil
}

func (p *GeminiNarrativeProvider) Name() string       { return "gemini-narrative" }
func (p *GeminiNarrativeProvider) Role() ProviderRole { return RoleNarrative }

func (p *GeminiNarrativeProvider) Generate(ctx context.Context, anonymizedInput string) (Payload, error) {
	model := p.client.GenerativeModel(p.modelID)
	model.SetTemperature(0)
	model.SystemInstruction = genai.NewUserContent(genai.Text(narrativeSystemPrompt))

	resp, err := model.GenerateContent(ctx, genai.Text(anonymizedInput))
	if err != nil {
		return Payload{}, fmt.Errorf("council: gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return Payload{}, errors.New("council: gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Payload{}, errors.New("council: gemini returned empty content")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	narrative := strings.TrimSpace(sb.String())
	if narrative == "" {
		return Payload{}, errors.New("council: gemini returned no text parts")
	}
	return Payload{Kind: RoleNarrative, Narrative: narrative}, nil
}

// Close releases the underlying API client.
func (p *GeminiNarrativeProvider) Close() error {
	return p.client.Close()
}
