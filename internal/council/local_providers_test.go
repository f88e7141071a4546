package council

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDiagnosisProvider(t *testing.T) {
	p := LocalDiagnosisProvider{}
	ctx := context.Background()

	payload, err := p.Generate(ctx, "crushing chest pain radiating to the arm")
	require.NoError(t, err)
	require.NotEmpty(t, payload.Differentials)
	assert.Equal(t, "Acute coronary syndrome", payload.Differentials[0].Condition)

	payload, err = p.Generate(ctx, "no recognizable symptoms")
	require.NoError(t, err)
	require.Len(t, payload.Differentials, 1)
	assert.Equal(t, "Nonspecific presentation", payload.Differentials[0].Condition)
}

func TestLocalDiagnosisProviderRanksByConfidence(t *testing.T) {
	p := LocalDiagnosisProvider{}

	payload, err := p.Generate(context.Background(), "fatigue and chest pain")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(payload.Differentials), 2)
	for i := 1; i < len(payload.Differentials); i++ {
		assert.GreaterOrEqual(t,
			payload.Differentials[i-1].Confidence,
			payload.Differentials[i].Confidence)
	}
}

func TestLocalRiskProvider(t *testing.T) {
	p := LocalRiskProvider{}
	ctx := context.Background()

	payload, err := p.Generate(ctx, "high fever and dizziness")
	require.NoError(t, err)
	require.NotNil(t, payload.Risk)
	assert.Equal(t, "MEDIUM", payload.Risk.Urgency)
	assert.Len(t, payload.Risk.Flags, 2)

	payload, err = p.Generate(ctx, "chest pain and dizziness")
	require.NoError(t, err)
	assert.Equal(t, "HIGH", payload.Risk.Urgency, "highest urgency wins")

	payload, err = p.Generate(ctx, "mild rash")
	require.NoError(t, err)
	assert.Equal(t, "LOW", payload.Risk.Urgency)
	assert.Empty(t, payload.Risk.Flags)
}

func TestLocalNarrativeProvider(t *testing.T) {
	p := LocalNarrativeProvider{}
	ctx := context.Background()

	payload, err := p.Generate(ctx, "chest pain for two days")
	require.NoError(t, err)
	assert.Contains(t, payload.Narrative, "chest pain for two days")

	payload, err = p.Generate(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, "No symptom description provided.", payload.Narrative)
}

func TestLocalProvidersHonorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	providers := []Provider{LocalDiagnosisProvider{}, LocalRiskProvider{}, LocalNarrativeProvider{}}
	for _, p := range providers {
		_, err := p.Generate(ctx, "chest pain")
		assert.ErrorIs(t, err, context.Canceled, p.Name())
	}
}
