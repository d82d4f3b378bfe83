// Package job wires C5 (solver), C6 (applier), and C7 (validator)
// into asynq task types, so a caller can enqueue solver-bound work
// instead of blocking an API request on it, per §5's "offload it to a
// worker thread or subprocess" guidance.
package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/clinicroster/scheduler/internal/metrics"
)

// Scheduler enqueues solver/validator/applier work onto the asynq
// broker for cmd/worker to pick up.
type Scheduler struct {
	client  *asynq.Client
	metrics *metrics.Registry
}

// NewScheduler dials redisAddr and verifies connectivity before
// returning. reg may be nil, in which case enqueue calls skip metrics.
func NewScheduler(redisAddr string, reg *metrics.Registry) (*Scheduler, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	if err := client.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Scheduler{client: client, metrics: reg}, nil
}

// Task types dispatched by cmd/worker's mux.
const (
	TypeSolve       = "schedule:solve"
	TypeMultiSolve  = "schedule:multi_solve"
	TypeValidate    = "schedule:validate"
	TypeApplyPreset = "schedule:apply_preset"
)

// SolvePayload is the payload for a single-preset solve.
type SolvePayload struct {
	ScheduleID     uuid.UUID `json:"schedule_id"`
	MaxTimeSeconds float64   `json:"max_time_seconds"`
	Seed           int64     `json:"seed"`
	WeightScale    float64   `json:"weight_scale"`
}

// EnqueueSolve enqueues a single solve run against scheduleID.
func (s *Scheduler) EnqueueSolve(ctx context.Context, scheduleID uuid.UUID, maxTimeSeconds float64, seed int64, weightScale float64) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(SolvePayload{ScheduleID: scheduleID, MaxTimeSeconds: maxTimeSeconds, Seed: seed, WeightScale: weightScale})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeSolve, payload)
	timeout := time.Duration(maxTimeSeconds*2+10) * time.Second
	info, err := s.client.EnqueueContext(ctx, task, asynq.Queue("critical"), asynq.MaxRetry(1), asynq.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue solve job: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordJobEnqueued(TypeSolve)
	}
	return info, nil
}

// MultiSolvePayload is the payload for a three-preset multi-solve.
type MultiSolvePayload struct {
	ScheduleID              uuid.UUID `json:"schedule_id"`
	MaxTimeSecondsPerPreset float64   `json:"max_time_seconds_per_preset"`
}

// EnqueueMultiSolve enqueues a multi-solve run across presets A, B, C.
func (s *Scheduler) EnqueueMultiSolve(ctx context.Context, scheduleID uuid.UUID, maxTimeSecondsPerPreset float64) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(MultiSolvePayload{ScheduleID: scheduleID, MaxTimeSecondsPerPreset: maxTimeSecondsPerPreset})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeMultiSolve, payload)
	timeout := time.Duration(maxTimeSecondsPerPreset*3*2+30) * time.Second
	info, err := s.client.EnqueueContext(ctx, task, asynq.Queue("critical"), asynq.MaxRetry(1), asynq.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue multi-solve job: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordJobEnqueued(TypeMultiSolve)
	}
	return info, nil
}

// ValidatePayload is the payload for a validator run.
type ValidatePayload struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
}

// EnqueueValidate enqueues a validator run against scheduleID.
func (s *Scheduler) EnqueueValidate(ctx context.Context, scheduleID uuid.UUID) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(ValidatePayload{ScheduleID: scheduleID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeValidate, payload)
	info, err := s.client.EnqueueContext(ctx, task, asynq.Queue("default"), asynq.MaxRetry(2), asynq.Timeout(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue validate job: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordJobEnqueued(TypeValidate)
	}
	return info, nil
}

// ApplyPresetPayload is the payload for applying one multi-solve
// preset's result to a schedule.
type ApplyPresetPayload struct {
	ScheduleID    uuid.UUID `json:"schedule_id"`
	Preset        string    `json:"preset"`
	ClearUnlocked bool      `json:"clear_unlocked"`
}

// EnqueueApplyPreset enqueues an apply of preset's stored solution
// onto scheduleID.
func (s *Scheduler) EnqueueApplyPreset(ctx context.Context, scheduleID uuid.UUID, preset string, clearUnlocked bool) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(ApplyPresetPayload{ScheduleID: scheduleID, Preset: preset, ClearUnlocked: clearUnlocked})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeApplyPreset, payload)
	info, err := s.client.EnqueueContext(ctx, task, asynq.Queue("default"), asynq.MaxRetry(2), asynq.Timeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue apply-preset job: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordJobEnqueued(TypeApplyPreset)
	}
	return info, nil
}

// Close releases the underlying asynq client.
func (s *Scheduler) Close() error {
	return s.client.Close()
}
