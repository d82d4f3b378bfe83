//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/clinicroster/scheduler/internal/entity"
)

type postgresTestHelper struct {
	db        *sql.DB
	container testcontainers.Container
	ctx       context.Context
}

func newPostgresTestHelper(ctx context.Context, t *testing.T) *postgresTestHelper {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "scheduler_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/scheduler_test?sslmode=disable", host, port.Port())
	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, createTestSchema(ctx, db))

	return &postgresTestHelper{db: db, container: container, ctx: ctx}
}

func (h *postgresTestHelper) Close(t *testing.T) {
	if err := h.db.Close(); err != nil {
		t.Logf("warning: failed to close database: %v", err)
	}
	if err := h.container.Terminate(h.ctx); err != nil {
		t.Logf("warning: failed to terminate container: %v", err)
	}
}

func createTestSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS staffs (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		employment_type VARCHAR(20) NOT NULL,
		job_category VARCHAR(50),
		can_drive BOOLEAN DEFAULT false,
		can_bicycle BOOLEAN DEFAULT false,
		is_active BOOLEAN DEFAULT true,
		skill_codes TEXT[] DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS task_types (
		code VARCHAR(50) PRIMARY KEY,
		display_name VARCHAR(255) NOT NULL,
		default_blocks TEXT[] DEFAULT '{}',
		required_skills TEXT[] DEFAULT '{}',
		preferred_skills TEXT[] DEFAULT '{}',
		required_resources TEXT[] DEFAULT '{}',
		min_staff INTEGER DEFAULT 0,
		max_staff INTEGER DEFAULT 0,
		location_type VARCHAR(20) NOT NULL,
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS schedules (
		id UUID PRIMARY KEY,
		year_month VARCHAR(7) NOT NULL UNIQUE,
		status VARCHAR(20) NOT NULL,
		solver_result JSONB,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS schedule_assignments (
		id UUID PRIMARY KEY,
		schedule_id UUID NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		staff_id UUID NOT NULL REFERENCES staffs(id),
		date DATE NOT NULL,
		block VARCHAR(10) NOT NULL,
		task_type_code VARCHAR(50),
		status_color VARCHAR(20),
		is_locked BOOLEAN DEFAULT false,
		source VARCHAR(20) NOT NULL,
		event_id UUID,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE (schedule_id, staff_id, date, block)
	);

	CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		type_code VARCHAR(50) NOT NULL,
		subject_name VARCHAR(255),
		subject_anonymous_id VARCHAR(100),
		duration_hours NUMERIC NOT NULL,
		time_constraint_type VARCHAR(20) NOT NULL,
		time_constraint_data JSONB,
		required_skills TEXT[] DEFAULT '{}',
		required_resources TEXT[] DEFAULT '{}',
		priority VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL,
		schedule_id UUID REFERENCES schedules(id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS rules (
		id UUID PRIMARY KEY,
		label VARCHAR(255) NOT NULL,
		template_type VARCHAR(30) NOT NULL,
		hard_or_soft VARCHAR(10) NOT NULL,
		weight INTEGER NOT NULL,
		body JSONB,
		tags TEXT[] DEFAULT '{}',
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS resources (
		id UUID PRIMARY KEY,
		type VARCHAR(50) NOT NULL,
		name VARCHAR(255) NOT NULL,
		capacity INTEGER NOT NULL,
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS resource_bookings (
		id UUID PRIMARY KEY,
		resource_id UUID NOT NULL REFERENCES resources(id),
		assignment_id UUID,
		event_id UUID,
		date DATE NOT NULL,
		block VARCHAR(10) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func TestStaffRepositoryCRUDAgainstRealPostgres(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)

	repo := (&DB{helper.db}).StaffRepository()

	s := &entity.Staff{
		ID:             uuid.New(),
		Name:           "Dr. Tanaka",
		EmploymentType: entity.EmploymentFullTime,
		JobCategory:    "physician",
		SkillCodes:     []string{"injection", "driving"},
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, s))

	fetched, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "Dr. Tanaka", fetched.Name)
	require.ElementsMatch(t, []string{"injection", "driving"}, fetched.SkillCodes)

	skillMap, err := repo.GetSkillsByStaffIDs(ctx, []uuid.UUID{s.ID})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"driving", "injection"}, skillMap[s.ID])

	require.NoError(t, repo.Delete(ctx, s.ID, uuid.New()))
	deleted, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.False(t, deleted.IsActive)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestAssignmentRepositoryClearUnlockedPreservesLocked(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)

	db := &DB{helper.db}
	staffRepo := db.StaffRepository()
	scheduleRepo := db.ScheduleRepository()
	assignRepo := db.AssignmentRepository()

	staff := &entity.Staff{ID: uuid.New(), Name: "Nurse Ito", EmploymentType: entity.EmploymentFullTime, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, staffRepo.Create(ctx, staff))

	sched := &entity.Schedule{ID: uuid.New(), YearMonth: "2026-09", Status: entity.ScheduleDraft, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, scheduleRepo.Create(ctx, sched))

	locked := &entity.ScheduleAssignment{
		ID: uuid.New(), ScheduleID: sched.ID, StaffID: staff.ID,
		Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Block: entity.BlockAM,
		TaskTypeCode: "consult", IsLocked: true, Source: entity.AssignmentSourceManual,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	unlocked := &entity.ScheduleAssignment{
		ID: uuid.New(), ScheduleID: sched.ID, StaffID: staff.ID,
		Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Block: entity.BlockPM,
		TaskTypeCode: "consult", IsLocked: false, Source: entity.AssignmentSourceSolver,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, assignRepo.Create(ctx, locked))
	require.NoError(t, assignRepo.Create(ctx, unlocked))

	n, err := assignRepo.DeleteUnlockedBySchedule(ctx, sched.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	remaining, err := assignRepo.ListBySchedule(ctx, sched.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.True(t, remaining[0].IsLocked)
}
