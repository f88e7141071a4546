package access

// Roles known to the portal policy.
const (
	RoleDoctor = "doctor"
	RoleNurse  = "nurse"
	RoleAdmin  = "admin"
)

// Resources gated by the engine.
const (
	ResourceReports  = "reports"
	ResourcePatients = "patients"
	ResourceCouncil  = "council"
	ResourceAudit    = "audit"
)

// Actions used across the portal.
const (
	ActionRead     = "read"
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionLock     = "lock"
	ActionSubmit   = "submit"
	ActionTokenize = "tokenize"
	ActionResolve  = "resolve"
	ActionQuery    = "query"
)

// DefaultRules is the static portal policy. Locking is granted separately
// from update so it can be treated as the more privileged action.
func DefaultRules() []Rule {
	return []Rule{
		{Role: RoleDoctor, Resource: ResourceReports, Actions: []string{ActionRead, ActionCreate, ActionUpdate, ActionLock}},
		{Role: RoleDoctor, Resource: ResourceCouncil, Actions: []string{ActionSubmit}},
		{Role: RoleDoctor, Resource: ResourcePatients, Actions: []string{ActionRead, ActionUpdate, ActionTokenize, ActionResolve}},
		{Role: RoleNurse, Resource: ResourceReports, Actions: []string{ActionRead}},
		{Role: RoleNurse, Resource: ResourcePatients, Actions: []string{ActionRead, ActionTokenize}},
		{Role: RoleAdmin, Resource: ResourceAudit, Actions: []string{ActionQuery}},
	}
}
