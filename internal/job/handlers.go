package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/clinicroster/scheduler/internal/applier"
	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/logging"
	"github.com/clinicroster/scheduler/internal/metrics"
	"github.com/clinicroster/scheduler/internal/repository"
	"github.com/clinicroster/scheduler/internal/snapshot"
	"github.com/clinicroster/scheduler/internal/solver"
	"github.com/clinicroster/scheduler/internal/validator"
)

// Handlers executes queued solver/validator/applier work and persists
// each result back onto the owning schedule.
type Handlers struct {
	db      repository.Database
	logger  *zap.SugaredLogger
	metrics *metrics.Registry
}

// NewHandlers wires db, logger, and metrics into one handler set.
func NewHandlers(db repository.Database, logger *zap.SugaredLogger, reg *metrics.Registry) *Handlers {
	return &Handlers{db: db, logger: logger, metrics: reg}
}

// RegisterHandlers mounts every job type on mux.
func (h *Handlers) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSolve, h.HandleSolve)
	mux.HandleFunc(TypeMultiSolve, h.HandleMultiSolve)
	mux.HandleFunc(TypeValidate, h.HandleValidate)
	mux.HandleFunc(TypeApplyPreset, h.HandleApplyPreset)
}

// HandleSolve runs one preset solve and persists the result on the schedule.
func (h *Handlers) HandleSolve(ctx context.Context, t *asynq.Task) error {
	var payload SolvePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	snap, err := snapshot.Load(ctx, h.db, payload.ScheduleID, false)
	if err != nil {
		h.metrics.RecordJobFailed(TypeSolve)
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap.Schedule.Status == entity.ScheduleConfirmed {
		return entity.NewError(entity.CodeForbidden, "schedule is confirmed and cannot accept a solver run", nil)
	}

	res, err := solver.Solve(ctx, snap, payload.MaxTimeSeconds, payload.Seed, payload.WeightScale)
	if err != nil {
		h.metrics.RecordJobFailed(TypeSolve)
		return fmt.Errorf("solve failed: %w", err)
	}

	h.metrics.RecordSolve("single", string(res.Status), res.WallTimeSecs, res.ObjectiveValue, len(res.Assignments))
	logging.LogSolve(h.logger, payload.ScheduleID.String(), "single", string(res.Status), res.WallTimeSecs, len(res.Assignments))

	snap.Schedule.SolverResult = &entity.SolverResultRecord{
		Status:         string(res.Status),
		ObjectiveValue: res.ObjectiveValue,
		WallTimeSecs:   res.WallTimeSecs,
		SolutionsData:  map[string][]entity.AssignmentDraft{"single": res.Assignments},
	}
	snap.Schedule.UpdatedAt = entity.Now()
	if err := h.db.ScheduleRepository().Update(ctx, snap.Schedule); err != nil {
		return fmt.Errorf("failed to persist solver result: %w", err)
	}
	return nil
}

// HandleMultiSolve runs presets A, B, C and persists the combined result.
func (h *Handlers) HandleMultiSolve(ctx context.Context, t *asynq.Task) error {
	var payload MultiSolvePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	snap, err := snapshot.Load(ctx, h.db, payload.ScheduleID, false)
	if err != nil {
		h.metrics.RecordJobFailed(TypeMultiSolve)
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap.Schedule.Status == entity.ScheduleConfirmed {
		return entity.NewError(entity.CodeForbidden, "schedule is confirmed and cannot accept a solver run", nil)
	}

	summaries, solutions, err := solver.MultiSolve(ctx, snap, payload.MaxTimeSecondsPerPreset)
	if err != nil {
		h.metrics.RecordJobFailed(TypeMultiSolve)
		return fmt.Errorf("multi-solve failed: %w", err)
	}
	for _, sm := range summaries {
		h.metrics.RecordSolve(sm.Preset, sm.Status, 0, sm.ObjectiveValue, sm.NumAssignments)
		logging.LogSolve(h.logger, payload.ScheduleID.String(), sm.Preset, sm.Status, 0, sm.NumAssignments)
	}

	snap.Schedule.SolverResult = &entity.SolverResultRecord{
		MultiSolutions: summaries,
		SolutionsData:  solutions,
	}
	snap.Schedule.UpdatedAt = entity.Now()
	if err := h.db.ScheduleRepository().Update(ctx, snap.Schedule); err != nil {
		return fmt.Errorf("failed to persist multi-solve result: %w", err)
	}
	return nil
}

// HandleValidate runs the independent validator and logs the outcome.
func (h *Handlers) HandleValidate(ctx context.Context, t *asynq.Task) error {
	var payload ValidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	violations, err := validator.Run(ctx, h.db, payload.ScheduleID)
	if err != nil {
		h.metrics.RecordJobFailed(TypeValidate)
		return fmt.Errorf("validation failed: %w", err)
	}

	hardCount, softCount := 0, 0
	for _, v := range violations {
		if v.Type == entity.Hard {
			hardCount++
		} else {
			softCount++
		}
	}
	h.metrics.RecordViolations(hardCount, softCount)
	logging.LogViolations(h.logger, payload.ScheduleID.String(), hardCount, softCount)
	return nil
}

// HandleApplyPreset commits a previously computed preset solution to
// the schedule via the result applier.
func (h *Handlers) HandleApplyPreset(ctx context.Context, t *asynq.Task) error {
	var payload ApplyPresetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	sched, err := h.db.ScheduleRepository().GetByID(ctx, payload.ScheduleID)
	if err != nil {
		h.metrics.RecordJobFailed(TypeApplyPreset)
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	if sched.SolverResult == nil {
		return fmt.Errorf("schedule has no solver result to apply: %w", asynq.SkipRetry)
	}
	drafts, ok := sched.SolverResult.SolutionsData[payload.Preset]
	if !ok {
		return fmt.Errorf("preset %q not found in stored solver result: %w", payload.Preset, asynq.SkipRetry)
	}

	start := time.Now()
	count, err := applier.Apply(ctx, h.db, payload.ScheduleID, drafts, payload.ClearUnlocked)
	if err != nil {
		h.metrics.RecordJobFailed(TypeApplyPreset)
		h.metrics.RecordApply("error", time.Since(start).Seconds())
		return fmt.Errorf("apply failed: %w", err)
	}
	h.metrics.RecordApply("success", time.Since(start).Seconds())
	h.logger.Infow("applied preset result", "schedule_id", payload.ScheduleID.String(), "preset", payload.Preset, "assignments_written", count)
	return nil
}
