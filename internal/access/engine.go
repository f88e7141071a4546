// Package access evaluates (role, resource, action, context) requests
// against a static rule table. Every evaluation is recorded through the
// audit trail before the decision is returned, so audit writes cannot be
// skipped by an early return.
package access

import (
	"context"

	"github.com/carelink/clinical-core/pkg/logging"
)

// Wildcard matches any role, resource, or action in a rule.
const Wildcard = "*"

// Principal identifies the caller of a gated operation.
type Principal struct {
	ID   string
	Role string
}

// Context carries request-scoped attributes a rule predicate may inspect.
type Context map[string]any

// Rule grants a set of actions on a resource to a role. A nil Predicate
// means the rule applies unconditionally.
type Rule struct {
	Role      string
	Resource  string
	Actions   []string
	Predicate func(Context) bool
}

// Decision is the outcome of one policy evaluation, as handed to the
// audit recorder.
type Decision struct {
	Actor    Principal
	Resource string
	Action   string
	Granted  bool
}

// Recorder receives every access decision. The audit trail implements it.
type Recorder interface {
	RecordDecision(ctx context.Context, d Decision) error
}

// Observer counts decisions for metrics. Optional.
type Observer interface {
	ObserveDecision(resource, action string, granted bool)
}

// Engine holds the static rule table, loaded once at startup.
type Engine struct {
	rules    []Rule
	recorder Recorder
	observer Observer
	logger   *logging.Logger
}

// NewEngine builds an engine over a static rule set.
func NewEngine(rules []Rule, recorder Recorder, logger *logging.Logger) *Engine {
	if recorder == nil {
		panic("access: recorder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{rules: rules, recorder: recorder, logger: logger.Component("access")}
}

// WithObserver attaches a metrics observer.
func (e *Engine) WithObserver(o Observer) *Engine {
	e.observer = o
	return e
}

// Check evaluates the request against the rule table and records the
// decision. Absence of any matching rule is a deny, not an error; the
// returned error only reflects audit persistence failure.
func (e *Engine) Check(ctx context.Context, actor Principal, resource, action string, c Context) (bool, error) {
	granted := e.evaluate(actor.Role, resource, action, c)

	if e.observer != nil {
		e.observer.ObserveDecision(resource, action, granted)
	}
	if err := e.recorder.RecordDecision(ctx, Decision{
		Actor:    actor,
		Resource: resource,
		Action:   action,
		Granted:  granted,
	}); err != nil {
		e.logger.Error("failed to record access decision",
			"actor", actor.ID,
			"resource", resource,
			"action", action,
			"error", err,
		)
		return false, err
	}

	if !granted {
		e.logger.Warn("access denied",
			"actor", actor.ID,
			"role", actor.Role,
			"resource", resource,
			"action", action,
		)
	}
	return granted, nil
}

// Require wraps Check and returns a *DeniedError when the request is not
// granted.
func (e *Engine) Require(ctx context.Context, actor Principal, resource, action string, c Context) error {
	granted, err := e.Check(ctx, actor, resource, action, c)
	if err != nil {
		return err
	}
	if !granted {
		return &DeniedError{Actor: actor, Resource: resource, Action: action}
	}
	return nil
}

func (e *Engine) evaluate(role, resource, action string, c Context) bool {
	for _, rule := range e.rules {
		if rule.Role != role && rule.Role != Wildcard {
			continue
		}
		if rule.Resource != resource && rule.Resource != Wildcard {
			continue
		}
		if !containsAction(rule.Actions, action) {
			continue
		}
		if rule.Predicate != nil && !rule.Predicate(c) {
			continue
		}
		return true
	}
	return false
}

func containsAction(actions []string, action string) bool {
	for _, a := range actions {
		if a == action || a == Wildcard {
			return true
		}
	}
	return false
}
