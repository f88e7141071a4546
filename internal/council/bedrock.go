package council

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

const diagnosisSystemPrompt = `You are a differential-diagnosis assistant. ` +
	`Given anonymized symptom text, respond ONLY with a JSON array of objects ` +
	`with fields "condition" (string), "confidence" (number 0-1) and "rationale" (string), ` +
	`ordered from most to least likely. No prose outside the JSON.`

// BedrockDiagnosisProvider adapts the Bedrock Converse API into the
// council's diagnosis seat. The vendor's free-form output is translated to
// the internal payload shape at this boundary.
type BedrockDiagnosisProvider struct {
	api     bedrockConverseAPI
	modelID string
}

// NewBedrockDiagnosisProvider wires a Bedrock runtime client as the
// differential-diagnosis generator.
func NewBedrockDiagnosisProvider(api bedrockConverseAPI, modelID string) (*BedrockDiagnosisProvider, error) {
	if api == nil {
		return nil, errors.New("council: bedrock client is required")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("council: bedrock model id is required")
	}
	return &BedrockDiagnosisProvider{api: api, modelID: modelID}, nil
}

func (p *BedrockDiagnosisProvider) Name() string       { return "bedrock-differential" }
func (p *BedrockDiagnosisProvider) Role() ProviderRole { return RoleDiagnosis }

func (p *BedrockDiagnosisProvider) Generate(ctx context.Context, anonymizedInput string) (Payload, error) {
	out, err := p.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: diagnosisSystemPrompt},
		},
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: anonymizedInput},
				},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(1024),
			Temperature: aws.Float32(0),
		},
	})
	if err != nil {
		return Payload{}, fmt.Errorf("council: bedrock converse: %w", err)
	}

	text, err := bedrockOutputText(out)
	if err != nil {
		return Payload{}, err
	}

	differentials, err := parseDifferentials(text)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Kind: RoleDiagnosis, Differentials: differentials}, nil
}

func bedrockOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok || len(msg.Value.Content) == 0 {
		return "", errors.New("council: bedrock returned no content")
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String(), nil
}

// parseDifferentials tolerates markdown fences around the JSON array.
func parseDifferentials(text string) ([]Differential, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var differentials []Differential
	if err := json.Unmarshal([]byte(trimmed), &differentials); err != nil {
		return nil, fmt.Errorf("council: bedrock payload not parseable: %w", err)
	}
	if len(differentials) == 0 {
		return nil, errors.New("council: bedrock returned empty differential list")
	}
	return differentials, nil
}
