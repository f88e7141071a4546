package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carelink/clinical-core/internal/council"
	"github.com/carelink/clinical-core/internal/vault"
)

// pgxDB is the subset of pgxpool.Pool the repository uses.
type pgxDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores reports in the relational database with
// content encrypted at rest.
type PostgresRepository struct {
	db     pgxDB
	cipher *vault.Cipher
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db pgxDB, cipher *vault.Cipher) *PostgresRepository {
	if db == nil {
		panic("reports: pgx pool required")
	}
	if cipher == nil {
		panic("reports: cipher required")
	}
	return &PostgresRepository{db: db, cipher: cipher}
}

var _ Repository = (*PostgresRepository)(nil)

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, report *Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	encrypted, err := r.cipher.Encrypt(report.Content)
	if err != nil {
		return err
	}
	draft, err := marshalDraft(report.CouncilDraft)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reports (id, patient_id, provider_id, content, status, council_draft, approved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.Exec(ctx, query,
		report.ID,
		report.PatientID,
		report.ProviderID,
		encrypted,
		string(report.Status),
		draft,
		report.ApprovedAt,
		report.CreatedAt,
		report.UpdatedAt,
	); err != nil {
		return fmt.Errorf("reports: insert failed: %w", err)
	}
	return nil
}

// Get fetches one report by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Report, error) {
	query := `
		SELECT id, patient_id, provider_id, content, status, council_draft, approved_at, created_at, updated_at
		FROM reports
		WHERE id = $1
	`
	report, err := r.scanOne(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("reports: select failed: %w", err)
	}
	return report, nil
}

// Update overwrites the mutable fields of a row.
func (r *PostgresRepository) Update(ctx context.Context, report *Report) error {
	report.UpdatedAt = time.Now().UTC()

	encrypted, err := r.cipher.Encrypt(report.Content)
	if err != nil {
		return err
	}
	draft, err := marshalDraft(report.CouncilDraft)
	if err != nil {
		return err
	}

	query := `
		UPDATE reports
		SET content = $2, status = $3, council_draft = $4, approved_at = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		report.ID,
		encrypted,
		string(report.Status),
		draft,
		report.ApprovedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("reports: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// List returns every stored report.
func (r *PostgresRepository) List(ctx context.Context) ([]*Report, error) {
	query := `
		SELECT id, patient_id, provider_id, content, status, council_draft, approved_at, created_at, updated_at
		FROM reports
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reports: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		report, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("reports: scan failed: %w", err)
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Report, error) {
	var report Report
	var status string
	var encrypted string
	var draft []byte
	if err := row.Scan(
		&report.ID,
		&report.PatientID,
		&report.ProviderID,
		&encrypted,
		&status,
		&draft,
		&report.ApprovedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}

	content, err := r.cipher.Decrypt(encrypted)
	if err != nil {
		return nil, err
	}
	report.Content = content
	report.Status = Status(status)

	if len(draft) > 0 {
		var resp council.Response
		if err := json.Unmarshal(draft, &resp); err != nil {
			return nil, fmt.Errorf("reports: bad council draft: %w", err)
		}
		report.CouncilDraft = &resp
	}
	return &report, nil
}

func marshalDraft(draft *council.Response) ([]byte, error) {
	if draft == nil {
		return nil, nil
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("reports: marshal council draft: %w", err)
	}
	return data, nil
}
