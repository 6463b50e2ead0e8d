package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/admitguard-api/internal/models"
)

var batchRowColumns = []string{"id", "name", "program", "start_date", "intake_size", "created_by", "rules_config", "created_at"}

func TestCreateBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectExec("INSERT INTO batches").WillReturnResult(sqlmock.NewResult(0, 1))

	batch := &models.Batch{Name: "Spring", Program: "MBA", StartDate: "2026-07-01", IntakeSize: 30, CreatedBy: "u1", RulesConfig: types.JSONText(`{}`)}
	require.NoError(t, repo.Create(context.Background(), batch))
	assert.NotEmpty(t, batch.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBatchByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	rows := sqlmock.NewRows(batchRowColumns).
		AddRow("b1", "Spring", "MBA", "2026-07-01", 30, "u1", []byte(`{"gpa":{"type":"soft"}}`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM batches WHERE id = $1")).WithArgs("b1").WillReturnRows(rows)

	batch, err := repo.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 30, batch.IntakeSize)
	assert.JSONEq(t, `{"gpa":{"type":"soft"}}`, string(batch.RulesConfig))
}

func TestListBatchesScopedToCreator(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM batches WHERE created_by = $1 ORDER BY created_at DESC")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(batchRowColumns))

	batches, err := repo.List(context.Background(), models.BatchFilter{CreatedBy: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, batches)
	assert.Empty(t, batches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBatchesShared(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	rows := sqlmock.NewRows(batchRowColumns).
		AddRow("b2", "Fall", "MCA", "2026-09-01", 10, "u2", []byte(`{}`), time.Now()).
		AddRow("b1", "Spring", "MBA", "2026-07-01", 30, "u1", []byte(`{}`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM batches ORDER BY created_at DESC")).WillReturnRows(rows)

	batches, err := repo.List(context.Background(), models.BatchFilter{})
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "b2", batches[0].ID)
}
