package solver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validateFixture(t *testing.T) *Solution {
	t.Helper()
	return &Solution{
		Timeslots: GenerateTimeslots(),
		Classrooms: []Classroom{
			{ID: "room-1", Name: "SL-301", Capacity: 40, Type: "Science Laboratory"},
			{ID: "room-2", Name: "LR-101", Capacity: 40, Type: "Lecture Room"},
		},
		Teachers: []Teacher{
			{ID: "teacher-1", Name: "Reyes"},
		},
		Sections: []Section{
			{ID: "section-1", Program: "BSED", Label: "A", Students: 30},
			{ID: "section-2", Program: "BSED", Label: "B", Students: 30},
		},
	}
}

func TestFindViolationsCrossSectionSameDay(t *testing.T) {
	s := validateFixture(t)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Monday, MorningStart), RoomIdx: 0},
		{ID: 2, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Monday, AfternoonStart), RoomIdx: 0},
	}

	violations := FindViolations(s)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationCrossSectionDay, violations[0].Kind)
	assert.Equal(t, int64(1), violations[0].A.ID)
	assert.Equal(t, int64(2), violations[0].B.ID)
}

func TestFindViolationsResourceOverlap(t *testing.T) {
	s := validateFixture(t)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90,
			SlotIdx: FindTimeslot(s.Timeslots, time.Monday, MorningStart), RoomIdx: 1},
		{ID: 2, SubjectCode: "GE102", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90,
			SlotIdx: FindTimeslot(s.Timeslots, time.Monday, MorningStart), RoomIdx: 1},
	}

	violations := FindViolations(s)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationResourceOverlap, violations[0].Kind)
}

func TestFindViolationsCleanSchedule(t *testing.T) {
	s := validateFixture(t)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90,
			SlotIdx: FindTimeslot(s.Timeslots, time.Monday, MorningStart), RoomIdx: 1},
		{ID: 2, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90,
			SlotIdx: FindTimeslot(s.Timeslots, time.Thursday, MorningStart), RoomIdx: 1},
	}
	assert.Empty(t, FindViolations(s))
}

func TestRepairMovesLaterAllocationToEarliestCleanDay(t *testing.T) {
	s := validateFixture(t)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, MorningStart), RoomIdx: 0},
		{ID: 2, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, AfternoonStart), RoomIdx: 0},
	}

	violations := FindViolations(s)
	require.Len(t, violations, 1)

	repaired := Repair(s, violations, zap.NewNop())
	assert.Equal(t, 1, repaired)

	// The later allocation moves; the earlier one stays put. Candidate days
	// run Monday to Saturday, so Monday wins, and the session keeps its
	// original start time on the new day.
	assert.Equal(t, time.Wednesday, s.Slot(s.Allocations[0]).Day)
	assert.Equal(t, time.Monday, s.Slot(s.Allocations[1]).Day)
	assert.Equal(t, AfternoonStart, s.Start(s.Allocations[1]))
	assert.Empty(t, FindViolations(s))
}

func TestRepairKeepsStartTimeOnNewDay(t *testing.T) {
	s := validateFixture(t)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, AfternoonStart), RoomIdx: 0},
		{ID: 2, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, AfternoonStart+SlotMinutes), RoomIdx: 0},
	}

	violations := FindViolations(s)
	require.Len(t, violations, 1)
	require.Equal(t, 1, Repair(s, violations, zap.NewNop()))

	assert.Equal(t, time.Monday, s.Slot(s.Allocations[1]).Day)
	assert.Equal(t, AfternoonStart+SlotMinutes, s.Start(s.Allocations[1]))
}

func TestRepairMovesSubjectSessionsTogether(t *testing.T) {
	s := validateFixture(t)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, AfternoonStart+2*SlotMinutes), RoomIdx: 0},
		{ID: 2, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, AfternoonStart), RoomIdx: 0},
		{ID: 3, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, AfternoonStart+SlotMinutes), RoomIdx: 0},
	}

	violations := FindViolations(s)
	require.Len(t, violations, 2)
	assert.Equal(t, 1, Repair(s, violations, zap.NewNop()))

	// Section B's two ED201 sessions travel as one group, each keeping its
	// start time; the second violation is already cleared by the move.
	assert.Equal(t, time.Wednesday, s.Slot(s.Allocations[0]).Day)
	assert.Equal(t, time.Monday, s.Slot(s.Allocations[1]).Day)
	assert.Equal(t, time.Monday, s.Slot(s.Allocations[2]).Day)
	assert.Equal(t, AfternoonStart, s.Start(s.Allocations[1]))
	assert.Equal(t, AfternoonStart+SlotMinutes, s.Start(s.Allocations[2]))
	assert.Empty(t, FindViolations(s))
}

func TestRepairFailsWhenStartBusyEveryDay(t *testing.T) {
	s := validateFixture(t)
	allocs := []*Allocation{
		{ID: 1, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, AfternoonStart), RoomIdx: 0},
		{ID: 2, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, AfternoonStart+SlotMinutes), RoomIdx: 0},
	}
	id := int64(3)
	for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Thursday, time.Friday, time.Saturday} {
		allocs = append(allocs, &Allocation{ID: id, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0,
			DurationMin: 90, Pinned: true,
			SlotIdx: FindTimeslot(s.Timeslots, day, AfternoonStart+SlotMinutes), RoomIdx: 1})
		id++
	}
	s.Allocations = allocs

	violations := FindViolations(s)
	require.Len(t, violations, 1)

	// The teacher holds 14:30 on every other day, so no day offers the
	// colliding start time and nothing moves.
	assert.Zero(t, Repair(s, violations, zap.NewNop()))
	assert.Equal(t, time.Wednesday, s.Slot(s.Allocations[1]).Day)
	assert.Equal(t, AfternoonStart+SlotMinutes, s.Start(s.Allocations[1]))

	_, err := Finalize(s, zap.NewNop())
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestRepairSkipsFullyPinnedViolations(t *testing.T) {
	s := validateFixture(t)
	slot := FindTimeslot(s.Timeslots, time.Monday, MorningStart)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Pinned: true, SlotIdx: slot, RoomIdx: 1},
		{ID: 2, SubjectCode: "GE102", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Pinned: true, SlotIdx: slot, RoomIdx: 1},
	}

	violations := FindViolations(s)
	require.Len(t, violations, 1)
	assert.Zero(t, Repair(s, violations, zap.NewNop()))
}

func TestFinalizeRepairsAndAccepts(t *testing.T) {
	s := validateFixture(t)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, MorningStart), RoomIdx: 0},
		{ID: 2, SubjectCode: "ED201", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Major: true,
			SlotIdx: FindTimeslot(s.Timeslots, time.Wednesday, AfternoonStart), RoomIdx: 0},
	}

	score, err := Finalize(s, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, score.Feasible())
	assert.NotEqual(t, s.Slot(s.Allocations[0]).Day, s.Slot(s.Allocations[1]).Day)
}

func TestFinalizeRejectsIrreparable(t *testing.T) {
	s := validateFixture(t)
	slot := FindTimeslot(s.Timeslots, time.Monday, MorningStart)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Pinned: true, SlotIdx: slot, RoomIdx: 1},
		{ID: 2, SubjectCode: "GE102", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Pinned: true, SlotIdx: slot, RoomIdx: 1},
	}

	_, err := Finalize(s, zap.NewNop())
	assert.ErrorIs(t, err, ErrInfeasible)
}
