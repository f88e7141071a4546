package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carelink/clinical-core/internal/access"
)

// PostgresTrail persists audit entries to the audit_trail table.
type PostgresTrail struct {
	db *sql.DB
}

// NewPostgresTrail creates a trail backed by the relational database.
func NewPostgresTrail(db *sql.DB) *PostgresTrail {
	if db == nil {
		panic("audit: db cannot be nil")
	}
	return &PostgresTrail{db: db}
}

var _ Trail = (*PostgresTrail)(nil)

// Append inserts the entry. Persistence failures propagate to the caller.
func (t *PostgresTrail) Append(ctx context.Context, e Entry) error {
	e = normalize(e)

	query := `
		INSERT INTO audit_trail (
			id, ts, actor_id, role, action, resource, decision, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := t.db.ExecContext(ctx, query,
		e.ID,
		e.Timestamp,
		e.ActorID,
		nullString(e.Role),
		e.Action,
		e.Resource,
		string(e.Decision),
		nullString(e.Details),
	)
	if err != nil {
		return fmt.Errorf("audit: failed to append entry: %w", err)
	}
	return nil
}

// RecordDecision appends an access decision as an audit entry.
func (t *PostgresTrail) RecordDecision(ctx context.Context, d access.Decision) error {
	return t.Append(ctx, entryFromDecision(d))
}

// Query retrieves entries matching the filter, newest first, gated through
// the access engine.
func (t *PostgresTrail) Query(ctx context.Context, authz Authorizer, actor access.Principal, f Filter) ([]Entry, error) {
	if authz == nil {
		return nil, fmt.Errorf("audit: authorizer is required")
	}
	if err := authz.Require(ctx, actor, access.ResourceAudit, access.ActionQuery, nil); err != nil {
		return nil, err
	}

	query := `
		SELECT id, ts, actor_id, role, action, resource, decision, details
		FROM audit_trail
		WHERE 1=1
	`
	var args []interface{}
	argIdx := 1

	if f.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id = $%d", argIdx)
		args = append(args, f.ActorID)
		argIdx++
	}
	if f.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, f.Action)
		argIdx++
	}
	if f.Resource != "" {
		query += fmt.Sprintf(" AND resource = $%d", argIdx)
		args = append(args, f.Resource)
		argIdx++
	}
	if f.Decision != "" {
		query += fmt.Sprintf(" AND decision = $%d", argIdx)
		args = append(args, string(f.Decision))
		argIdx++
	}
	if !f.From.IsZero() {
		query += fmt.Sprintf(" AND ts >= $%d", argIdx)
		args = append(args, f.From)
		argIdx++
	}
	if !f.To.IsZero() {
		query += fmt.Sprintf(" AND ts <= $%d", argIdx)
		args = append(args, f.To)
		argIdx++
	}

	query += " ORDER BY ts DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var role, details sql.NullString
		var decision string
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.ActorID, &role, &e.Action, &e.Resource, &decision, &details,
		); err != nil {
			return nil, fmt.Errorf("audit: failed to scan entry: %w", err)
		}
		e.Role = role.String
		e.Details = details.String
		e.Decision = Decision(decision)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
