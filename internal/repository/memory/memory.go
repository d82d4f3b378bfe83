// Package memory provides an in-memory implementation of
// internal/repository, used by unit tests that need a full Database
// without a running Postgres instance.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
	"github.com/google/uuid"
)

// DB is an in-memory Database. Every accessor is backed by a single
// RWMutex-guarded store shared across the repository facets, mirroring
// the teacher's sync.RWMutex-guarded map pattern.
type DB struct {
	mu sync.RWMutex

	staff     map[uuid.UUID]*entity.Staff
	skills    map[uuid.UUID][]string
	taskTypes map[string]*entity.TaskType
	schedules map[uuid.UUID]*entity.Schedule
	assigns   map[uuid.UUID]*entity.ScheduleAssignment
	events    map[uuid.UUID]*entity.Event
	rules     map[uuid.UUID]*entity.Rule
	resources map[uuid.UUID]*entity.Resource
	bookings  map[uuid.UUID]*entity.ResourceBooking

	queryCount int
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		staff:     make(map[uuid.UUID]*entity.Staff),
		skills:    make(map[uuid.UUID][]string),
		taskTypes: make(map[string]*entity.TaskType),
		schedules: make(map[uuid.UUID]*entity.Schedule),
		assigns:   make(map[uuid.UUID]*entity.ScheduleAssignment),
		events:    make(map[uuid.UUID]*entity.Event),
		rules:     make(map[uuid.UUID]*entity.Rule),
		resources: make(map[uuid.UUID]*entity.Resource),
		bookings:  make(map[uuid.UUID]*entity.ResourceBooking),
	}
}

// Reset clears all data and the query counter, used between test cases.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	fresh := New()
	db.staff, db.skills, db.taskTypes = fresh.staff, fresh.skills, fresh.taskTypes
	db.schedules, db.assigns, db.events = fresh.schedules, fresh.assigns, fresh.events
	db.rules, db.resources, db.bookings = fresh.rules, fresh.resources, fresh.bookings
	db.queryCount = 0
}

// QueryCount reports how many repository calls were made, for tests
// asserting on batch-loading discipline (no N+1 queries).
func (db *DB) QueryCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.queryCount
}

func (db *DB) bump() { db.queryCount++ }

func (db *DB) BeginTx(ctx context.Context) (repository.Transaction, error) {
	return &tx{db: db}, nil
}

func (db *DB) StaffRepository() repository.StaffRepository { return &staffRepo{db: db} }
func (db *DB) TaskTypeRepository() repository.TaskTypeRepository { return &taskTypeRepo{db: db} }
func (db *DB) ScheduleRepository() repository.ScheduleRepository { return &scheduleRepo{db: db} }
func (db *DB) AssignmentRepository() repository.AssignmentRepository { return &assignmentRepo{db: db} }
func (db *DB) EventRepository() repository.EventRepository { return &eventRepo{db: db} }
func (db *DB) RuleRepository() repository.RuleRepository { return &ruleRepo{db: db} }
func (db *DB) ResourceRepository() repository.ResourceRepository { return &resourceRepo{db: db} }
func (db *DB) ResourceBookingRepository() repository.ResourceBookingRepository {
	return &bookingRepo{db: db}
}

func (db *DB) Close() error { return nil }

func (db *DB) Health(ctx context.Context) error { return nil }

// tx is a no-op transaction wrapper: the in-memory store has no
// rollback log, matching the teacher's memory repository's stance
// that transactional semantics are exercised against Postgres only.
type tx struct {
	db *DB
}

func (t *tx) Commit() error   { return nil }
func (t *tx) Rollback() error { return nil }

func (t *tx) StaffRepository() repository.StaffRepository { return t.db.StaffRepository() }
func (t *tx) TaskTypeRepository() repository.TaskTypeRepository { return t.db.TaskTypeRepository() }
func (t *tx) ScheduleRepository() repository.ScheduleRepository { return t.db.ScheduleRepository() }
func (t *tx) AssignmentRepository() repository.AssignmentRepository {
	return t.db.AssignmentRepository()
}
func (t *tx) EventRepository() repository.EventRepository       { return t.db.EventRepository() }
func (t *tx) RuleRepository() repository.RuleRepository         { return t.db.RuleRepository() }
func (t *tx) ResourceRepository() repository.ResourceRepository { return t.db.ResourceRepository() }
func (t *tx) ResourceBookingRepository() repository.ResourceBookingRepository {
	return t.db.ResourceBookingRepository()
}

type staffRepo struct{ db *DB }

func (r *staffRepo) Create(ctx context.Context, s *entity.Staff) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	r.db.staff[s.ID] = s
	r.db.skills[s.ID] = append([]string{}, s.SkillCodes...)
	return nil
}

func (r *staffRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Staff, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	s, ok := r.db.staff[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Staff", ResourceID: id.String()}
	}
	return s, nil
}

func (r *staffRepo) ListActive(ctx context.Context) ([]*entity.Staff, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	out := make([]*entity.Staff, 0, len(r.db.staff))
	for _, s := range r.db.staff {
		if s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *staffRepo) Update(ctx context.Context, s *entity.Staff) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	if _, ok := r.db.staff[s.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "Staff", ResourceID: s.ID.String()}
	}
	r.db.staff[s.ID] = s
	return nil
}

func (r *staffRepo) Delete(ctx context.Context, id uuid.UUID, deleterID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	s, ok := r.db.staff[id]
	if !ok {
		return &repository.NotFoundError{ResourceType: "Staff", ResourceID: id.String()}
	}
	s.SoftDelete(deleterID)
	return nil
}

func (r *staffRepo) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.staff)), nil
}

func (r *staffRepo) GetSkillsByStaffIDs(ctx context.Context, staffIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump() // a single batch call, not one per staff member
	out := make(map[uuid.UUID][]string, len(staffIDs))
	for _, id := range staffIDs {
		out[id] = append([]string{}, r.db.skills[id]...)
	}
	return out, nil
}

type taskTypeRepo struct{ db *DB }

func (r *taskTypeRepo) Create(ctx context.Context, t *entity.TaskType) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	r.db.taskTypes[t.Code] = t
	return nil
}

func (r *taskTypeRepo) GetByCode(ctx context.Context, code string) (*entity.TaskType, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	t, ok := r.db.taskTypes[code]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "TaskType", ResourceID: code}
	}
	return t, nil
}

func (r *taskTypeRepo) ListActive(ctx context.Context) ([]*entity.TaskType, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	out := make([]*entity.TaskType, 0, len(r.db.taskTypes))
	for _, t := range r.db.taskTypes {
		if t.IsActive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *taskTypeRepo) Update(ctx context.Context, t *entity.TaskType) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	if _, ok := r.db.taskTypes[t.Code]; !ok {
		return &repository.NotFoundError{ResourceType: "TaskType", ResourceID: t.Code}
	}
	r.db.taskTypes[t.Code] = t
	return nil
}

func (r *taskTypeRepo) Delete(ctx context.Context, code string, deleterID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	t, ok := r.db.taskTypes[code]
	if !ok {
		return &repository.NotFoundError{ResourceType: "TaskType", ResourceID: code}
	}
	t.SoftDelete(deleterID)
	return nil
}

func (r *taskTypeRepo) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.taskTypes)), nil
}

type scheduleRepo struct{ db *DB }

func (r *scheduleRepo) Create(ctx context.Context, s *entity.Schedule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	for _, existing := range r.db.schedules {
		if existing.YearMonth == s.YearMonth {
			return &repository.ValidationError{Field: "year_month", Message: "already exists"}
		}
	}
	r.db.schedules[s.ID] = s
	return nil
}

func (r *scheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	s, ok := r.db.schedules[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Schedule", ResourceID: id.String()}
	}
	return s, nil
}

func (r *scheduleRepo) GetByYearMonth(ctx context.Context, yearMonth string) (*entity.Schedule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	for _, s := range r.db.schedules {
		if s.YearMonth == yearMonth {
			return s, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Schedule", ResourceID: yearMonth}
}

func (r *scheduleRepo) Update(ctx context.Context, s *entity.Schedule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	if _, ok := r.db.schedules[s.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "Schedule", ResourceID: s.ID.String()}
	}
	r.db.schedules[s.ID] = s
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	delete(r.db.schedules, id)
	for aid, a := range r.db.assigns {
		if a.ScheduleID == id {
			delete(r.db.assigns, aid)
		}
	}
	return nil
}

func (r *scheduleRepo) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.schedules)), nil
}

type assignmentRepo struct{ db *DB }

func (r *assignmentRepo) Create(ctx context.Context, a *entity.ScheduleAssignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	for _, existing := range r.db.assigns {
		if existing.ScheduleID == a.ScheduleID && existing.StaffID == a.StaffID &&
			existing.Date.Equal(a.Date) && existing.Block == a.Block {
			return &repository.ValidationError{Message: "duplicate (schedule, staff, date, block) slot"}
		}
	}
	r.db.assigns[a.ID] = a
	return nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ScheduleAssignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	a, ok := r.db.assigns[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "ScheduleAssignment", ResourceID: id.String()}
	}
	return a, nil
}

func (r *assignmentRepo) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.ScheduleAssignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	out := make([]*entity.ScheduleAssignment, 0)
	for _, a := range r.db.assigns {
		if a.ScheduleID == scheduleID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *assignmentRepo) ListLockedBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.ScheduleAssignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	out := make([]*entity.ScheduleAssignment, 0)
	for _, a := range r.db.assigns {
		if a.ScheduleID == scheduleID && a.IsLocked {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *assignmentRepo) Update(ctx context.Context, a *entity.ScheduleAssignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	if _, ok := r.db.assigns[a.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "ScheduleAssignment", ResourceID: a.ID.String()}
	}
	r.db.assigns[a.ID] = a
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	delete(r.db.assigns, id)
	return nil
}

func (r *assignmentRepo) DeleteUnlockedBySchedule(ctx context.Context, scheduleID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	var n int64
	for id, a := range r.db.assigns {
		if a.ScheduleID == scheduleID && !a.IsLocked {
			delete(r.db.assigns, id)
			n++
		}
	}
	return n, nil
}

func (r *assignmentRepo) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.assigns)), nil
}

type eventRepo struct{ db *DB }

func (r *eventRepo) Create(ctx context.Context, e *entity.Event) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	r.db.events[e.ID] = e
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	e, ok := r.db.events[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Event", ResourceID: id.String()}
	}
	return e, nil
}

func (r *eventRepo) ListActiveForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.Event, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	out := make([]*entity.Event, 0)
	for _, e := range r.db.events {
		if e.ScheduleID == nil || *e.ScheduleID != scheduleID {
			continue
		}
		if e.Status == entity.EventUnassigned || e.Status == entity.EventAssigned {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *eventRepo) Update(ctx context.Context, e *entity.Event) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	if _, ok := r.db.events[e.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "Event", ResourceID: e.ID.String()}
	}
	r.db.events[e.ID] = e
	return nil
}

func (r *eventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	delete(r.db.events, id)
	return nil
}

func (r *eventRepo) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.events)), nil
}

type ruleRepo struct{ db *DB }

func (r *ruleRepo) Create(ctx context.Context, rule *entity.Rule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	r.db.rules[rule.ID] = rule
	return nil
}

func (r *ruleRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Rule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	rule, ok := r.db.rules[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Rule", ResourceID: id.String()}
	}
	return rule, nil
}

func (r *ruleRepo) ListActive(ctx context.Context) ([]*entity.Rule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	out := make([]*entity.Rule, 0)
	for _, rule := range r.db.rules {
		if rule.IsActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *ruleRepo) Update(ctx context.Context, rule *entity.Rule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	if _, ok := r.db.rules[rule.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "Rule", ResourceID: rule.ID.String()}
	}
	r.db.rules[rule.ID] = rule
	return nil
}

func (r *ruleRepo) Delete(ctx context.Context, id uuid.UUID, deleterID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	rule, ok := r.db.rules[id]
	if !ok {
		return &repository.NotFoundError{ResourceType: "Rule", ResourceID: id.String()}
	}
	rule.SoftDelete(deleterID)
	return nil
}

func (r *ruleRepo) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.rules)), nil
}

type resourceRepo struct{ db *DB }

func (r *resourceRepo) Create(ctx context.Context, res *entity.Resource) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	r.db.resources[res.ID] = res
	return nil
}

func (r *resourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Resource, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	res, ok := r.db.resources[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Resource", ResourceID: id.String()}
	}
	return res, nil
}

func (r *resourceRepo) ListActiveByType(ctx context.Context) (map[string][]*entity.Resource, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	out := make(map[string][]*entity.Resource)
	for _, res := range r.db.resources {
		if res.IsActive {
			out[res.Type] = append(out[res.Type], res)
		}
	}
	return out, nil
}

func (r *resourceRepo) Update(ctx context.Context, res *entity.Resource) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	if _, ok := r.db.resources[res.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "Resource", ResourceID: res.ID.String()}
	}
	r.db.resources[res.ID] = res
	return nil
}

func (r *resourceRepo) Delete(ctx context.Context, id uuid.UUID, deleterID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	res, ok := r.db.resources[id]
	if !ok {
		return &repository.NotFoundError{ResourceType: "Resource", ResourceID: id.String()}
	}
	res.SoftDelete(deleterID)
	return nil
}

func (r *resourceRepo) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.resources)), nil
}

type bookingRepo struct{ db *DB }

func (r *bookingRepo) Create(ctx context.Context, b *entity.ResourceBooking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	r.db.bookings[b.ID] = b
	return nil
}

func (r *bookingRepo) ListByResourceAndWindow(ctx context.Context, resourceID uuid.UUID, start, end time.Time) ([]*entity.ResourceBooking, error) {
	return nil, nil // unused by in-memory tests; kept to satisfy the interface shape during fixture seeding
}

func (r *bookingRepo) ListByScheduleWindow(ctx context.Context, scheduleID uuid.UUID, start, end time.Time) ([]*entity.ResourceBooking, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	r.db.bump()
	out := make([]*entity.ResourceBooking, 0, len(r.db.bookings))
	for _, b := range r.db.bookings {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		inSchedule := false
		if b.AssignmentID != nil {
			a, ok := r.db.assigns[*b.AssignmentID]
			inSchedule = ok && a.ScheduleID == scheduleID
		}
		if !inSchedule && b.EventID != nil {
			e, ok := r.db.events[*b.EventID]
			inSchedule = ok && e.ScheduleID != nil && *e.ScheduleID == scheduleID
		}
		if inSchedule {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *bookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bump()
	delete(r.db.bookings, id)
	return nil
}
