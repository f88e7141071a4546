package patients

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/clinical-core/internal/access"
	"github.com/carelink/clinical-core/internal/council"
	"github.com/carelink/clinical-core/internal/vault"
	"github.com/carelink/clinical-core/pkg/logging"
)

// Gate authorizes tokenization operations before they run.
type Gate interface {
	Require(ctx context.Context, actor access.Principal, resource, action string, c access.Context) error
}

// Tokenizer exchanges patient submissions for opaque tokens. The payload
// is encrypted before it reaches the store; the token is a fresh UUID on
// every call and is never rebound.
type Tokenizer struct {
	store  TokenStore
	cipher *vault.Cipher
	gate   Gate
	logger *logging.Logger
}

// NewTokenizer wires the tokenization service.
func NewTokenizer(store TokenStore, cipher *vault.Cipher, gate Gate, logger *logging.Logger) *Tokenizer {
	if store == nil {
		panic("patients: token store required")
	}
	if cipher == nil {
		panic("patients: cipher required")
	}
	if gate == nil {
		panic("patients: access gate required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Tokenizer{store: store, cipher: cipher, gate: gate, logger: logger.Component("patients")}
}

// Tokenize encrypts the payload, assigns a provider from the symptom
// list, and stores the record under a fresh token.
func (t *Tokenizer) Tokenize(ctx context.Context, actor access.Principal, payload Payload) (string, error) {
	if err := t.gate.Require(ctx, actor, access.ResourcePatients, access.ActionTokenize, nil); err != nil {
		return "", err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("patients: marshal payload: %w", err)
	}
	ciphertext, err := t.cipher.Encrypt(string(data))
	if err != nil {
		return "", err
	}

	rec := TokenRecord{
		Token:      uuid.NewString(),
		Ciphertext: ciphertext,
		Provider:   AssignProvider(payload.Symptoms),
		CreatedAt:  time.Now().UTC(),
	}
	if err := t.store.Put(ctx, rec); err != nil {
		return "", err
	}

	t.logger.Info("patient submission tokenized", "token", rec.Token, "provider", rec.Provider)
	return rec.Token, nil
}

// Resolve returns the payload bound to token. Decryption failure is
// surfaced as vault.ErrDecrypt so callers treat it as data corruption.
func (t *Tokenizer) Resolve(ctx context.Context, actor access.Principal, token string) (Payload, error) {
	if err := t.gate.Require(ctx, actor, access.ResourcePatients, access.ActionResolve, access.Context{"token": token}); err != nil {
		return Payload{}, err
	}

	rec, err := t.store.Get(ctx, token)
	if err != nil {
		return Payload{}, err
	}
	plaintext, err := t.cipher.Decrypt(rec.Ciphertext)
	if err != nil {
		return Payload{}, err
	}

	var payload Payload
	if err := json.Unmarshal([]byte(plaintext), &payload); err != nil {
		return Payload{}, fmt.Errorf("patients: unmarshal payload: %w", err)
	}
	return payload, nil
}

// Provider returns the provider assigned at tokenization time.
func (t *Tokenizer) Provider(ctx context.Context, actor access.Principal, token string) (string, error) {
	if err := t.gate.Require(ctx, actor, access.ResourcePatients, access.ActionRead, access.Context{"token": token}); err != nil {
		return "", err
	}
	rec, err := t.store.Get(ctx, token)
	if err != nil {
		return "", err
	}
	return rec.Provider, nil
}

// AssignProvider maps a symptom list to a specialty through the triage
// rule table; the first severe match wins and anything unmatched routes
// to general care.
func AssignProvider(symptoms []string) string {
	return council.SpecialtyFor(strings.Join(symptoms, ", "))
}
