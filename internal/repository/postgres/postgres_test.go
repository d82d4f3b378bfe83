package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return db, mock, func() { db.Close() }
}

func TestStaffRepoGetByIDScansSkillCodes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := &staffRepo{q: db}

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "employment_type", "job_category", "can_drive", "can_bicycle", "is_active", "skill_codes", "created_at", "updated_at"}).
		AddRow(id, "Dr. Sato", "full_time", "physician", true, false, true, "{injection,triage}", now, now)
	mock.ExpectQuery("SELECT .* FROM staffs WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(rows)

	s, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sato", s.Name)
	assert.ElementsMatch(t, []string{"injection", "triage"}, s.SkillCodes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepoGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := &staffRepo{q: db}

	id := uuid.New()
	mock.ExpectQuery("SELECT .* FROM staffs WHERE id = \\$1").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepoCreateWritesNilSolverResultAsNull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := &scheduleRepo{q: db}

	id := uuid.New()
	now := time.Now()
	s := &entity.Schedule{
		ID:        id,
		YearMonth: "2026-09",
		Status:    entity.ScheduleDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WithArgs(id, "2026-09", entity.ScheduleDraft, nil, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), s)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := &assignmentRepo{q: db}

	a := &entity.ScheduleAssignment{
		ID:         uuid.New(),
		ScheduleID: uuid.New(),
		StaffID:    uuid.New(),
		Date:       time.Now(),
		Block:      entity.BlockAM,
	}

	mock.ExpectExec("INSERT INTO schedule_assignments").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), a)
	require.Error(t, err)
	var ve *repository.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestRequireRowsAffectedReturnsNotFound(t *testing.T) {
	res := sqlmock.NewResult(0, 0)
	err := requireRowsAffected(res, "Staff", "abc")
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))
}
