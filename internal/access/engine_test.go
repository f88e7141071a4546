package access

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu        sync.Mutex
	decisions []Decision
	fail      error
}

func (s *recordingSink) RecordDecision(_ context.Context, d Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.decisions = append(s.decisions, d)
	return nil
}

func doctorReportRules() []Rule {
	return []Rule{
		{Role: RoleDoctor, Resource: ResourceReports, Actions: []string{ActionRead, ActionCreate, ActionUpdate, ActionLock}},
	}
}

func TestCheckGrantsListedAction(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(doctorReportRules(), sink, nil)
	actor := Principal{ID: "d-1", Role: RoleDoctor}

	granted, err := engine.Check(context.Background(), actor, ResourceReports, ActionLock, nil)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestCheckDeniesUnlistedRoleOrResource(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(doctorReportRules(), sink, nil)

	tests := []struct {
		name     string
		actor    Principal
		resource string
		action   string
	}{
		{"unknown role", Principal{ID: "n-1", Role: RoleNurse}, ResourceReports, ActionRead},
		{"unknown resource", Principal{ID: "d-1", Role: RoleDoctor}, ResourceAudit, ActionQuery},
		{"unlisted action", Principal{ID: "d-1", Role: RoleDoctor}, ResourceReports, "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			granted, err := engine.Check(context.Background(), tt.actor, tt.resource, tt.action, nil)
			require.NoError(t, err)
			assert.False(t, granted)
		})
	}
}

func TestCheckWildcards(t *testing.T) {
	rules := []Rule{
		{Role: Wildcard, Resource: "health", Actions: []string{ActionRead}},
		{Role: RoleAdmin, Resource: Wildcard, Actions: []string{Wildcard}},
	}
	sink := &recordingSink{}
	engine := NewEngine(rules, sink, nil)

	granted, err := engine.Check(context.Background(), Principal{ID: "x", Role: "visitor"}, "health", ActionRead, nil)
	require.NoError(t, err)
	assert.True(t, granted, "wildcard role")

	granted, err = engine.Check(context.Background(), Principal{ID: "a", Role: RoleAdmin}, ResourceReports, "purge", nil)
	require.NoError(t, err)
	assert.True(t, granted, "wildcard resource and action")
}

func TestCheckPredicate(t *testing.T) {
	rules := []Rule{
		{
			Role:     RoleNurse,
			Resource: ResourceReports,
			Actions:  []string{ActionUpdate},
			Predicate: func(c Context) bool {
				ward, _ := c["ward"].(string)
				return ward == "icu"
			},
		},
	}
	sink := &recordingSink{}
	engine := NewEngine(rules, sink, nil)
	actor := Principal{ID: "n-1", Role: RoleNurse}

	granted, err := engine.Check(context.Background(), actor, ResourceReports, ActionUpdate, Context{"ward": "icu"})
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = engine.Check(context.Background(), actor, ResourceReports, ActionUpdate, Context{"ward": "er"})
	require.NoError(t, err)
	assert.False(t, granted)

	granted, err = engine.Check(context.Background(), actor, ResourceReports, ActionUpdate, nil)
	require.NoError(t, err)
	assert.False(t, granted, "missing context fails the predicate")
}

func TestEveryCheckIsRecorded(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(doctorReportRules(), sink, nil)
	actor := Principal{ID: "d-1", Role: RoleDoctor}

	_, err := engine.Check(context.Background(), actor, ResourceReports, ActionRead, nil)
	require.NoError(t, err)
	_, err = engine.Check(context.Background(), actor, ResourceReports, "delete", nil)
	require.NoError(t, err)

	require.Len(t, sink.decisions, 2)
	assert.True(t, sink.decisions[0].Granted)
	assert.False(t, sink.decisions[1].Granted)
	assert.Equal(t, "delete", sink.decisions[1].Action)
}

func TestCheckSurfacesRecorderFailure(t *testing.T) {
	sink := &recordingSink{fail: errors.New("disk full")}
	engine := NewEngine(doctorReportRules(), sink, nil)

	granted, err := engine.Check(context.Background(), Principal{ID: "d-1", Role: RoleDoctor}, ResourceReports, ActionRead, nil)
	assert.Error(t, err)
	assert.False(t, granted)
}

func TestRequire(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(doctorReportRules(), sink, nil)

	err := engine.Require(context.Background(), Principal{ID: "d-1", Role: RoleDoctor}, ResourceReports, ActionLock, nil)
	assert.NoError(t, err)

	err = engine.Require(context.Background(), Principal{ID: "n-1", Role: RoleNurse}, ResourceReports, ActionLock, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDenied)

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, ActionLock, denied.Action)
	assert.Equal(t, ResourceReports, denied.Resource)
}

func TestDefaultRules(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine(DefaultRules(), sink, nil)

	granted, err := engine.Check(context.Background(), Principal{ID: "d-1", Role: RoleDoctor}, ResourceCouncil, ActionSubmit, nil)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = engine.Check(context.Background(), Principal{ID: "n-1", Role: RoleNurse}, ResourceReports, ActionLock, nil)
	require.NoError(t, err)
	assert.False(t, granted, "locking stays doctor-only")

	granted, err = engine.Check(context.Background(), Principal{ID: "a-1", Role: RoleAdmin}, ResourceAudit, ActionQuery, nil)
	require.NoError(t, err)
	assert.True(t, granted)
}
