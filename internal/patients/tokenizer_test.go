package patients

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/clinical-core/internal/access"
	"github.com/carelink/clinical-core/internal/council"
	"github.com/carelink/clinical-core/internal/vault"
)

const testKeyHex = "6368616e676520746869732070617373776f726420746f206120736563726574"

func newTestCipher(t *testing.T) *vault.Cipher {
	t.Helper()
	cipher, err := vault.NewCipher(testKeyHex)
	require.NoError(t, err)
	return cipher
}

type allowGate struct {
	mu    sync.Mutex
	calls []string
}

func (g *allowGate) Require(ctx context.Context, actor access.Principal, resource, action string, c access.Context) error {
	g.mu.Lock()
	g.calls = append(g.calls, resource+":"+action)
	g.mu.Unlock()
	return nil
}

type denyGate struct{}

func (denyGate) Require(ctx context.Context, actor access.Principal, resource, action string, c access.Context) error {
	return &access.DeniedError{Actor: actor, Resource: resource, Action: action}
}

var doctor = access.Principal{ID: "doc-1", Role: access.RoleDoctor}

func newTestTokenizer(t *testing.T) (*Tokenizer, *MemoryTokenStore, *allowGate) {
	t.Helper()
	store := NewMemoryTokenStore()
	gate := &allowGate{}
	return NewTokenizer(store, newTestCipher(t), gate, nil), store, gate
}

func TestTokenizer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	tok, _, gate := newTestTokenizer(t)

	payload := Payload{
		Name:     "Jane Roe",
		Symptoms: []string{"chest pain", "shortness of breath"},
		History:  "hypertension",
	}

	token, err := tok.Tokenize(ctx, doctor, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	resolved, err := tok.Resolve(ctx, doctor, token)
	require.NoError(t, err)
	assert.Equal(t, payload, resolved)

	assert.Contains(t, gate.calls, "patients:tokenize")
	assert.Contains(t, gate.calls, "patients:resolve")
}

func TestTokenizer_TokensNeverReused(t *testing.T) {
	ctx := context.Background()
	tok, _, _ := newTestTokenizer(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := tok.Tokenize(ctx, doctor, Payload{Symptoms: []string{"rash"}})
		require.NoError(t, err)
		require.False(t, seen[token], "token issued twice: %s", token)
		seen[token] = true
	}
}

func TestTokenizer_PayloadEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	tok, store, _ := newTestTokenizer(t)

	token, err := tok.Tokenize(ctx, doctor, Payload{Name: "Jane Roe", Symptoms: []string{"rash"}})
	require.NoError(t, err)

	rec, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.NotContains(t, rec.Ciphertext, "Jane")
	assert.NotContains(t, rec.Ciphertext, "rash")
}

func TestTokenizer_ProviderAssignment(t *testing.T) {
	ctx := context.Background()
	tok, _, _ := newTestTokenizer(t)

	token, err := tok.Tokenize(ctx, doctor, Payload{Symptoms: []string{"chest pain"}})
	require.NoError(t, err)

	provider, err := tok.Provider(ctx, doctor, token)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", provider)
}

func TestTokenizer_Denied(t *testing.T) {
	ctx := context.Background()
	tok := NewTokenizer(NewMemoryTokenStore(), newTestCipher(t), denyGate{}, nil)

	_, err := tok.Tokenize(ctx, doctor, Payload{Symptoms: []string{"rash"}})
	assert.ErrorIs(t, err, access.ErrDenied)

	_, err = tok.Resolve(ctx, doctor, "any")
	assert.ErrorIs(t, err, access.ErrDenied)
}

func TestTokenizer_ResolveUnknownToken(t *testing.T) {
	tok, _, _ := newTestTokenizer(t)
	_, err := tok.Resolve(context.Background(), doctor, "missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenizer_ResolveCorruptCiphertext(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	tok := NewTokenizer(store, newTestCipher(t), &allowGate{}, nil)

	require.NoError(t, store.Put(ctx, TokenRecord{Token: "bad", Ciphertext: "not-a-ciphertext"}))

	_, err := tok.Resolve(ctx, doctor, "bad")
	assert.ErrorIs(t, err, vault.ErrDecrypt)
}

func TestAssignProvider(t *testing.T) {
	tests := []struct {
		name     string
		symptoms []string
		want     string
	}{
		{"cardiac keyword", []string{"chest pain"}, "Cardiology"},
		{"highest severity wins across symptoms", []string{"rash", "chest pain"}, "Cardiology"},
		{"no match defaults to general care", []string{"itchy elbow"}, council.GeneralReferral},
		{"empty list defaults to general care", nil, council.GeneralReferral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssignProvider(tt.symptoms))
		})
	}
}

func TestPatient_UpdateStatus(t *testing.T) {
	p := &Patient{ID: "p-1", Status: StatusPending}

	require.NoError(t, p.UpdateStatus(StatusUnderReview))
	assert.Equal(t, StatusUnderReview, p.Status)

	err := p.UpdateStatus(StatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, StatusUnderReview, p.Status, "rejected transition must not mutate")

	require.NoError(t, p.UpdateStatus(StatusCompleted))
	require.NotNil(t, p.CompletedAt)

	err = p.UpdateStatus(StatusUnderReview)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StatusCompleted, se.From)
}

func TestMemoryTokenStore_PutRefusesOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()

	require.NoError(t, store.Put(ctx, TokenRecord{Token: "t-1", Ciphertext: "a"}))
	err := store.Put(ctx, TokenRecord{Token: "t-1", Ciphertext: "b"})
	assert.ErrorIs(t, err, ErrTokenExists)

	rec, err := store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "a", rec.Ciphertext, "original binding untouched")
}
