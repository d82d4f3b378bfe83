package entity

import (
	"time"

	"github.com/google/uuid"
)

// Type aliases for domain IDs and temporal types
type (
	StaffID          = uuid.UUID
	TaskTypeCode     = string
	ScheduleID       = uuid.UUID
	AssignmentID     = uuid.UUID
	EventID          = uuid.UUID
	RuleID           = uuid.UUID
	ResourceID       = uuid.UUID
	ResourceBookingID = uuid.UUID
)

// Now returns the current UTC time, used for every timestamped mutation.
func Now() time.Time {
	return time.Now().UTC()
}

// NowPtr returns a pointer to the current UTC time, convenient for
// optional timestamp fields such as DeletedAt.
func NowPtr() *time.Time {
	now := time.Now().UTC()
	return &now
}

// EmploymentType is a closed vocabulary for Staff.EmploymentType.
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full_time"
	EmploymentPartTime EmploymentType = "part_time"
)

// Staff represents a clinic worker eligible for roster assignment.
type Staff struct {
	ID             uuid.UUID
	Name           string
	EmploymentType EmploymentType
	JobCategory    string
	CanDrive       bool
	CanBicycle     bool
	IsActive       bool
	SkillCodes     []string // set semantics enforced by AddSkill/HasSkill
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasSkill reports whether the staff holds the given skill code.
func (s *Staff) HasSkill(code string) bool {
	for _, c := range s.SkillCodes {
		if c == code {
			return true
		}
	}
	return false
}

// AddSkill adds a skill code, preserving set semantics (no duplicates).
func (s *Staff) AddSkill(code string) {
	if s.HasSkill(code) {
		return
	}
	s.SkillCodes = append(s.SkillCodes, code)
}

// IsDeleted reports soft-deletion for a Staff (via IsActive=false).
func (s *Staff) IsDeleted() bool {
	return !s.IsActive
}

// SoftDelete deactivates a staff member without losing history.
func (s *Staff) SoftDelete(deleterID uuid.UUID) {
	s.IsActive = false
	s.UpdatedAt = Now()
}

// LocationType is a closed vocabulary for TaskType.LocationType.
type LocationType string

const (
	LocationInClinic LocationType = "in_clinic"
	LocationOuting   LocationType = "outing"
	LocationVisit    LocationType = "visit"
)

// TaskType is master data keyed by Code, describing one kind of work cell.
type TaskType struct {
	Code              string
	DisplayName       string
	DefaultBlocks     []BlockCode
	RequiredSkills    []string
	PreferredSkills   []string
	RequiredResources []string // resource type vocabulary, e.g. "car", "bicycle"
	MinStaff          int
	MaxStaff          *int
	LocationType      LocationType
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RequiresSkill reports whether the task type requires the given skill.
func (t *TaskType) RequiresSkill(code string) bool {
	for _, c := range t.RequiredSkills {
		if c == code {
			return true
		}
	}
	return false
}

// RequiresResource reports whether the task type requires a resource type.
func (t *TaskType) RequiresResource(resourceType string) bool {
	for _, c := range t.RequiredResources {
		if c == resourceType {
			return true
		}
	}
	return false
}

// IsDeleted reports soft-deletion for a TaskType.
func (t *TaskType) IsDeleted() bool {
	return !t.IsActive
}

// SoftDelete deactivates a task type.
func (t *TaskType) SoftDelete(deleterID uuid.UUID) {
	t.IsActive = false
	t.UpdatedAt = Now()
}

// BlockCode is the closed vocabulary for the seven canonical time blocks.
type BlockCode string

const (
	BlockAM      BlockCode = "am"
	BlockLunch   BlockCode = "lunch"
	BlockPM      BlockCode = "pm"
	Block15      BlockCode = "15"
	Block16      BlockCode = "16"
	Block17      BlockCode = "17"
	Block18Plus  BlockCode = "18plus"
)

// BlockOrder is the canonical ordering of time blocks within a day.
var BlockOrder = []BlockCode{BlockAM, BlockLunch, BlockPM, Block15, Block16, Block17, Block18Plus}

// BlockDurationHours gives the fixed duration, in hours, of each block.
var BlockDurationHours = map[BlockCode]int{
	BlockAM:     3,
	BlockLunch:  1,
	BlockPM:     2,
	Block15:     1,
	Block16:     1,
	Block17:     1,
	Block18Plus: 2,
}

// BlockIndex returns the canonical position of a block code, or -1 if unknown.
func BlockIndex(b BlockCode) int {
	for i, c := range BlockOrder {
		if c == b {
			return i
		}
	}
	return -1
}

// ValidBlockCode reports whether a string is one of the seven canonical codes.
func ValidBlockCode(s string) bool {
	return BlockIndex(BlockCode(s)) >= 0
}

// ScheduleStatus is the closed vocabulary for Schedule.Status.
type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "draft"
	ScheduleReviewing ScheduleStatus = "reviewing"
	ScheduleConfirmed ScheduleStatus = "confirmed"
)

// Schedule is the monthly roster container: unique per YearMonth.
type Schedule struct {
	ID           uuid.UUID
	YearMonth    string // "YYYY-MM"
	Status       ScheduleStatus
	SolverResult *SolverResultRecord
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SolverResultRecord is the opaque structured value persisted on a
// Schedule after a solve or multi-solve run (§6 "Persisted state").
type SolverResultRecord struct {
	Status         string
	ObjectiveValue *float64
	WallTimeSecs   float64
	MultiSolutions []SolverRunSummary          // set only for multi-solve
	SolutionsData  map[string][]AssignmentDraft // preset code (A/B/C), or "single" for a single solve -> drafts
}

// SolverRunSummary is one preset's headline result inside a multi-solve record.
type SolverRunSummary struct {
	Preset         string
	Status         string
	ObjectiveValue *float64
	NumAssignments int
}

// Promote advances draft -> reviewing or reviewing -> confirmed.
func (s *Schedule) Promote() error {
	switch s.Status {
	case ScheduleDraft:
		s.Status = ScheduleReviewing
	case ScheduleReviewing:
		s.Status = ScheduleConfirmed
	default:
		return ErrInvalidScheduleStateTransition
	}
	s.UpdatedAt = Now()
	return nil
}

// Reopen moves reviewing back to draft. Confirmed is terminal.
func (s *Schedule) Reopen() error {
	if s.Status != ScheduleReviewing {
		return ErrInvalidScheduleStateTransition
	}
	s.Status = ScheduleDraft
	s.UpdatedAt = Now()
	return nil
}

// RequireWritable returns Forbidden when the schedule is confirmed;
// every mutating operation (assignment write, lock toggle, solver run,
// apply-preset) must call this first.
func (s *Schedule) RequireWritable() error {
	if s.Status == ScheduleConfirmed {
		return NewError(CodeForbidden, "schedule is confirmed and cannot be mutated", nil)
	}
	return nil
}

// AssignmentSource records where an assignment originated.
type AssignmentSource string

const (
	AssignmentSourceManual   AssignmentSource = "manual"
	AssignmentSourceSolver   AssignmentSource = "solver"
	AssignmentSourceImported AssignmentSource = "imported"
)

// StatusColor is the closed vocabulary for non-task assignment markers.
type StatusColor string

const (
	StatusOff       StatusColor = "off"
	StatusPreWork   StatusColor = "pre_work"
	StatusPostWork  StatusColor = "post_work"
	StatusVisit     StatusColor = "visit"
	StatusCustom    StatusColor = "custom"
)

// ScheduleAssignment is one filled (staff, date, block) cell.
// Unique on (ScheduleID, StaffID, Date, Block); at most one row per slot.
type ScheduleAssignment struct {
	ID           uuid.UUID
	ScheduleID   uuid.UUID
	StaffID      uuid.UUID
	Date         time.Time
	Block        BlockCode
	TaskTypeCode string      // empty when StatusColor is set instead
	StatusColor  StatusColor // e.g. "off"; empty when TaskTypeCode is set
	IsLocked     bool
	Source       AssignmentSource
	EventID      *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AssignmentDraft is the wire shape produced by the solver extractor
// and consumed by the result applier — a plain value, not an entity.
type AssignmentDraft struct {
	StaffID      uuid.UUID
	Date         time.Time
	Block        BlockCode
	TaskTypeCode string
	Source       AssignmentSource
	EventID      *uuid.UUID
	IsLocked     bool
}

// EventPriority is the closed vocabulary for Event.Priority.
type EventPriority string

const (
	PriorityRequired EventPriority = "required"
	PriorityHigh     EventPriority = "high"
	PriorityMedium   EventPriority = "medium"
	PriorityLow      EventPriority = "low"
)

// EventStatus is the closed vocabulary for Event.Status.
type EventStatus string

const (
	EventUnassigned EventStatus = "unassigned"
	EventAssigned   EventStatus = "assigned"
	EventHold       EventStatus = "hold"
	EventDone       EventStatus = "done"
)

// TimeConstraintType is the closed vocabulary for Event.TimeConstraintType.
type TimeConstraintType string

const (
	TimeConstraintFixed      TimeConstraintType = "fixed"
	TimeConstraintRange      TimeConstraintType = "range"
	TimeConstraintCandidates TimeConstraintType = "candidates"
)

// Event is a discrete appointment or visit to be placed on the grid.
type Event struct {
	ID                 uuid.UUID
	TypeCode           string // optional TaskType reference, may be ""
	SubjectName        string
	SubjectAnonymousID string // "ANON-xxxxxxxx" when SubjectName is set but must not be displayed
	DurationHours      int
	TimeConstraintType TimeConstraintType
	TimeConstraintData map[string]interface{} // shape per §6, parsed by internal/eventslot
	RequiredSkills     []string
	RequiredResources  []string
	Priority           EventPriority
	Status             EventStatus
	ScheduleID         *uuid.UUID // weak back-reference; orphaned on schedule deletion
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RequiresSkill reports whether the event requires the given skill.
func (e *Event) RequiresSkill(code string) bool {
	for _, c := range e.RequiredSkills {
		if c == code {
			return true
		}
	}
	return false
}

// Anonymize sets SubjectAnonymousID from a fresh UUID fragment and
// clears SubjectName, matching the display-anonymization behavior of
// the original system's subject handling.
func (e *Event) Anonymize() {
	if e.SubjectName == "" {
		return
	}
	e.SubjectAnonymousID = "ANON-" + uuid.New().String()[:8]
	e.SubjectName = ""
}

// MarkAssigned transitions an event to assigned, used by the result applier.
func (e *Event) MarkAssigned() {
	e.Status = EventAssigned
	e.UpdatedAt = Now()
}

// MarkUnassigned reverts an event to unassigned unless it is held or done.
func (e *Event) MarkUnassigned() {
	if e.Status == EventHold || e.Status == EventDone {
		return
	}
	e.Status = EventUnassigned
	e.UpdatedAt = Now()
}

// RuleTemplateType is the closed vocabulary for Rule.TemplateType.
type RuleTemplateType string

const (
	TemplateHeadcount    RuleTemplateType = "headcount"
	TemplateAvailability RuleTemplateType = "availability"
	TemplateSkillReq     RuleTemplateType = "skill_req"
	TemplateResourceReq  RuleTemplateType = "resource_req"
	TemplatePreference   RuleTemplateType = "preference"
	TemplateRecurring    RuleTemplateType = "recurring"
	TemplateSpecificDate RuleTemplateType = "specific_date"
)

// Hardness is the closed vocabulary for Rule.HardOrSoft and Violation.Type.
type Hardness string

const (
	Hard Hardness = "hard"
	Soft Hardness = "soft"
)

// Rule is an operator-authored declarative constraint.
type Rule struct {
	ID           uuid.UUID
	Label        string
	TemplateType RuleTemplateType
	HardOrSoft   Hardness
	Weight       int // valid range [1,1000] (see ClampWeight); stored as given, not clamped
	Body         map[string]interface{}
	Tags         []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsDeleted reports soft-deletion for a Rule.
func (r *Rule) IsDeleted() bool {
	return !r.IsActive
}

// SoftDelete deactivates a rule.
func (r *Rule) SoftDelete(deleterID uuid.UUID) {
	r.IsActive = false
	r.UpdatedAt = Now()
}

// Resource is a shared capacity-bound asset (car, room, bicycle, ...).
type Resource struct {
	ID        uuid.UUID
	Type      string
	Name      string
	Capacity  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDeleted reports soft-deletion for a Resource.
func (r *Resource) IsDeleted() bool {
	return !r.IsActive
}

// SoftDelete deactivates a resource.
func (r *Resource) SoftDelete(deleterID uuid.UUID) {
	r.IsActive = false
	r.UpdatedAt = Now()
}

// ResourceBooking records one (resource, date, block) consumption,
// owned by the assignment or event placement that produced it.
type ResourceBooking struct {
	ID           uuid.UUID
	ResourceID   uuid.UUID
	AssignmentID *uuid.UUID
	EventID      *uuid.UUID
	Date         time.Time
	Block        BlockCode
	CreatedAt    time.Time
}
