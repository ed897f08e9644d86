package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "user_id", "email", "full_name", "active", "created_at", "updated_at"}).
		AddRow("teacher-1", "school-1", "user-1", "ada@school.test", "Ada Obi", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE id = $1")).
		WithArgs("teacher-1").
		WillReturnRows(rows)

	teacher, err := repo.FindByID(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", teacher.FullName)
	require.NotNil(t, teacher.UserID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE id = $1")).
		WithArgs("teacher-404").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), "teacher-404")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
