// Package eventslot expands an Event's time_constraint payload into the
// set of (day_index, block_index) start positions where it may begin,
// and computes the block span an event of a given duration covers from
// a start position. All functions here are pure: no I/O, no mutation
// of their arguments.
package eventslot

import (
	"time"

	"github.com/clinicroster/scheduler/internal/entity"
)

// Slot is one candidate start position for an event placement.
type Slot struct {
	DayIndex   int
	BlockIndex int
}

// fixedStartHourToBlock maps the integer "start" hour used by fixed and
// candidates payloads to a canonical block, per the §4.3 table.
var fixedStartHourToBlock = map[int]entity.BlockCode{
	9:  entity.BlockAM,
	12: entity.BlockLunch,
	13: entity.BlockPM,
	15: entity.Block15,
	16: entity.Block16,
	17: entity.Block17,
	18: entity.Block18Plus,
}

// periodBlocks maps a range payload's "period" field to the blocks it covers.
var periodBlocks = map[string][]entity.BlockCode{
	"am": {entity.BlockAM},
	"pm": {entity.BlockPM, entity.Block15, entity.Block16},
}

var defaultPeriodBlocks = []entity.BlockCode{entity.BlockAM, entity.BlockPM, entity.Block15, entity.Block16, entity.Block17}

// AllowedSlots computes the candidate start positions for ev given the
// month's ordered date list, per §4.3's time_constraint_type dispatch.
func AllowedSlots(ev *entity.Event, dates []time.Time) []Slot {
	switch ev.TimeConstraintType {
	case entity.TimeConstraintFixed:
		return fixedSlots(ev.TimeConstraintData, dates)
	case entity.TimeConstraintRange:
		return rangeSlots(ev.TimeConstraintData, dates)
	case entity.TimeConstraintCandidates:
		return candidateSlots(ev.TimeConstraintData, dates)
	default:
		return nil
	}
}

func fixedSlots(data map[string]interface{}, dates []time.Time) []Slot {
	slot, ok := fixedSlotFrom(data, dates)
	if !ok {
		return nil
	}
	return []Slot{slot}
}

// fixedSlotFrom resolves one {date, start} payload to a Slot, used by
// both the fixed and candidates dispatchers.
func fixedSlotFrom(data map[string]interface{}, dates []time.Time) (Slot, bool) {
	dateStr, ok := data["date"].(string)
	if !ok {
		return Slot{}, false
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return Slot{}, false
	}
	dayIndex := indexOfDate(dates, date)
	if dayIndex < 0 {
		return Slot{}, false
	}

	startHour, ok := intFromAny(data["start"])
	if !ok {
		return Slot{}, false
	}
	block, ok := fixedStartHourToBlock[startHour]
	if !ok {
		return Slot{}, false
	}
	return Slot{DayIndex: dayIndex, BlockIndex: entity.BlockIndex(block)}, true
}

func candidateSlots(data map[string]interface{}, dates []time.Time) []Slot {
	raw, ok := data["slots"].([]interface{})
	if !ok {
		return nil
	}
	var out []Slot
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if slot, ok := fixedSlotFrom(m, dates); ok {
			out = append(out, slot)
		}
	}
	return out
}

func rangeSlots(data map[string]interface{}, dates []time.Time) []Slot {
	weekdays := weekdaySetFrom(data["weekdays"])
	blocks := blocksForPeriod(data["period"])
	month, hasMonth := monthFrom(data["month"])

	var out []Slot
	for dayIndex, d := range dates {
		if hasMonth && int(d.Month()) != month {
			continue
		}
		if !weekdays[entity.WeekdayMon0(d)] {
			continue
		}
		for _, b := range blocks {
			out = append(out, Slot{DayIndex: dayIndex, BlockIndex: entity.BlockIndex(b)})
		}
	}
	return out
}

// weekdaySetFrom parses the "weekdays" field (a set of §6 weekday
// indices) defaulting to Mon-Fri when absent.
func weekdaySetFrom(raw interface{}) map[int]bool {
	set := map[int]bool{}
	items, ok := raw.([]interface{})
	if !ok {
		for i := 0; i <= 4; i++ {
			set[i] = true
		}
		return set
	}
	for _, item := range items {
		if n, ok := intFromAny(item); ok {
			set[n] = true
		}
	}
	return set
}

func blocksForPeriod(raw interface{}) []entity.BlockCode {
	period, ok := raw.(string)
	if !ok {
		return defaultPeriodBlocks
	}
	blocks, ok := periodBlocks[period]
	if !ok {
		return defaultPeriodBlocks
	}
	return blocks
}

// monthFrom accepts either "YYYY-MM" or a bare integer month.
func monthFrom(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case string:
		t, err := time.Parse("2006-01", v)
		if err != nil {
			return 0, false
		}
		return int(t.Month()), true
	default:
		return intFromAny(raw)
	}
}

func intFromAny(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func indexOfDate(dates []time.Time, target time.Time) int {
	for i, d := range dates {
		if d.Year() == target.Year() && d.Month() == target.Month() && d.Day() == target.Day() {
			return i
		}
	}
	return -1
}

// Span walks the block order from startBlock and consumes durations
// until durationHours is exhausted, returning the block codes the
// event covers. Spans may cross lunch, matching §4.3.
func Span(startBlock entity.BlockCode, durationHours int) []entity.BlockCode {
	startIdx := entity.BlockIndex(startBlock)
	if startIdx < 0 {
		return nil
	}
	var out []entity.BlockCode
	remaining := durationHours
	for i := startIdx; i < len(entity.BlockOrder) && remaining > 0; i++ {
		b := entity.BlockOrder[i]
		out = append(out, b)
		remaining -= entity.BlockDurationHours[b]
	}
	return out
}

// SpanIndices is Span expressed as canonical block indices.
func SpanIndices(startBlockIndex int, durationHours int) []int {
	if startBlockIndex < 0 || startBlockIndex >= len(entity.BlockOrder) {
		return nil
	}
	blocks := Span(entity.BlockOrder[startBlockIndex], durationHours)
	out := make([]int, len(blocks))
	for i, b := range blocks {
		out[i] = entity.BlockIndex(b)
	}
	return out
}
