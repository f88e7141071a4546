package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/clinical-core/internal/access"
)

func TestPostgresTrailAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trail := NewPostgresTrail(db)

	mock.ExpectExec("INSERT INTO audit_trail").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = trail.Append(context.Background(), Entry{
		ActorID:  "d-1",
		Role:     access.RoleDoctor,
		Action:   access.ActionLock,
		Resource: access.ResourceReports,
		Decision: DecisionGranted,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailAppendFailurePropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trail := NewPostgresTrail(db)

	mock.ExpectExec("INSERT INTO audit_trail").
		WillReturnError(assert.AnError)

	err = trail.Append(context.Background(), Entry{
		ActorID:  "d-1",
		Action:   access.ActionRead,
		Resource: access.ResourceReports,
		Decision: DecisionGranted,
	})
	assert.Error(t, err)
}

func TestPostgresTrailQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trail := NewPostgresTrail(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "ts", "actor_id", "role", "action", "resource", "decision", "details"}).
		AddRow("e-1", now, "d-1", access.RoleDoctor, access.ActionLock, access.ResourceReports, string(DecisionGranted), nil)

	mock.ExpectQuery("SELECT id, ts, actor_id, role, action, resource, decision, details").
		WithArgs("d-1").
		WillReturnRows(rows)

	admin := access.Principal{ID: "a-1", Role: access.RoleAdmin}
	entries, err := trail.Query(context.Background(), allowAll{}, admin, Filter{ActorID: "d-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, access.ActionLock, entries[0].Action)
	assert.Equal(t, DecisionGranted, entries[0].Decision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrailQueryIsGated(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trail := NewPostgresTrail(db)
	_, err = trail.Query(context.Background(), denyAll{}, access.Principal{ID: "n-1", Role: access.RoleNurse}, Filter{})
	assert.ErrorIs(t, err, access.ErrDenied)
}

func TestPostgresTrailRecordDecision(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trail := NewPostgresTrail(db)

	mock.ExpectExec("INSERT INTO audit_trail").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = trail.RecordDecision(context.Background(), access.Decision{
		Actor:    access.Principal{ID: "d-1", Role: access.RoleDoctor},
		Resource: access.ResourceReports,
		Action:   access.ActionUpdate,
		Granted:  true,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
