package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notenpfad-api/internal/models"
)

func TestSubjectRepositoryList(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "weight", "created_at", "updated_at"}).
		AddRow("sub1", "Mathematik", 2.0, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, weight, created_at, updated_at FROM subjects ORDER BY seq")).
		WillReturnRows(rows)

	subjects, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, 2.0, subjects[0].Weight)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects WHERE LOWER(name) = LOWER($1) AND id <> $2 LIMIT 1")).
		WithArgs("mathematik", "sub1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects WHERE LOWER(name) = LOWER($1) LIMIT 1")).
		WithArgs("Deutsch").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "mathematik", "sub1")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsByName(context.Background(), "Deutsch", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("INSERT INTO subjects").
		WithArgs(sqlmock.AnyArg(), "Mathematik", 1.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repo.Create(context.Background(), &models.Subject{Name: "Mathematik", Weight: 1})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("UPDATE subjects SET name").
		WithArgs("Mathematik", 3.0, sqlmock.AnyArg(), "sub1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), &models.Subject{ID: "sub1", Name: "Mathematik", Weight: 3}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryDeleteWithGrades(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE id = $1")).
		WithArgs("sub1").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	assert.ErrorIs(t, repo.Delete(context.Background(), "sub1"), ErrHasDependents)
	assert.NoError(t, mock.ExpectationsWereMet())
}
