package solver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoreFixture() *Solution {
	return &Solution{
		Timeslots: GenerateTimeslots(),
		Classrooms: []Classroom{
			{ID: "room-1", Name: "LR-101", Capacity: 40, Type: "Lecture Room"},
			{ID: "room-2", Name: "LR-102", Capacity: 40, Type: "Lecture Room"},
			{ID: "room-3", Name: "CL-201", Capacity: 40, Type: "Computer Laboratory"},
			{ID: "room-4", Name: "SL-301", Capacity: 40, Type: "Science Laboratory"},
		},
		Teachers: []Teacher{
			{ID: "teacher-1", Name: "Reyes"},
			{ID: "teacher-2", Name: "Santos"},
		},
		Sections: []Section{
			{ID: "section-1", Program: "BSIT", Label: "A", Students: 30},
			{ID: "section-2", Program: "BSED", Label: "B", Students: 30},
		},
	}
}

func slotAt(t *testing.T, s *Solution, day time.Weekday, start int) int {
	t.Helper()
	idx := FindTimeslot(s.Timeslots, day, start)
	require.GreaterOrEqual(t, idx, 0)
	return idx
}

func TestScoreOrdering(t *testing.T) {
	assert.True(t, Score{Hard: 0, Soft: 5}.Better(Score{Hard: 1, Soft: -50}))
	assert.True(t, Score{Hard: 0, Soft: -2}.Better(Score{Hard: 0, Soft: 0}))
	assert.False(t, Score{Hard: 0, Soft: 0}.Better(Score{Hard: 0, Soft: 0}))
	assert.True(t, Score{}.Feasible())
	assert.False(t, Score{Hard: 1}.Feasible())
}

func TestEvaluateEmptySolution(t *testing.T) {
	s := scoreFixture()
	assert.Equal(t, Score{}, Evaluate(s))
}

func TestEvaluateTeacherCollision(t *testing.T) {
	s := scoreFixture()
	slot := slotAt(t, s, time.Monday, MorningStart)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, SlotIdx: slot, RoomIdx: 0},
		{ID: 2, SubjectCode: "GE102", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, SlotIdx: slot, RoomIdx: 1},
	}

	score := Evaluate(s)
	// One teacher overlap plus one exact-start collision.
	assert.Equal(t, 2, score.Hard)
	assert.False(t, score.Feasible())
}

func TestEvaluateAdjacentSessionsDoNotOverlap(t *testing.T) {
	s := scoreFixture()
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, SlotIdx: slotAt(t, s, time.Monday, MorningStart), RoomIdx: 0},
		{ID: 2, SubjectCode: "GE102", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, SlotIdx: slotAt(t, s, time.Monday, MorningStart+90), RoomIdx: 0},
	}

	assert.True(t, Evaluate(s).Feasible())
}

func TestEvaluateRoomCapability(t *testing.T) {
	s := scoreFixture()
	slot := slotAt(t, s, time.Monday, MorningStart)

	// Computer-program major session in a plain lecture room.
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "IT201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true, SlotIdx: slot, RoomIdx: 0},
	}
	assert.Equal(t, weightComputerLab, Evaluate(s).Hard)

	// Same session in the computer laboratory is clean.
	s.Allocations[0].RoomIdx = 2
	assert.True(t, Evaluate(s).Feasible())

	// Major session of another program accepts any laboratory.
	s.Allocations[0].SectionIdx = 1
	s.Allocations[0].RoomIdx = 3
	assert.True(t, Evaluate(s).Feasible())
	s.Allocations[0].RoomIdx = 0
	assert.Equal(t, weightGeneralLab, Evaluate(s).Hard)

	// Non-major session belongs in a lecture room, not a laboratory.
	s.Allocations[0].Major = false
	assert.True(t, Evaluate(s).Feasible())
	s.Allocations[0].RoomIdx = 2
	assert.Equal(t, weightLectureRoom, Evaluate(s).Hard)
}

func TestEvaluatePinnedRoomCapabilityExempt(t *testing.T) {
	s := scoreFixture()
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "IT201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true, Pinned: true,
			SlotIdx: slotAt(t, s, time.Monday, MorningStart), RoomIdx: 0},
	}
	assert.True(t, Evaluate(s).Feasible())
}

func TestEvaluateLateEnd(t *testing.T) {
	s := scoreFixture()
	lastSlot := slotAt(t, s, time.Monday, AfternoonEnd-90)
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 120, SlotIdx: lastSlot, RoomIdx: 0},
	}
	score := Evaluate(s)
	assert.Equal(t, weightLateEnd, score.Hard)
	// Starting after 18:00 also costs soft points.
	assert.Equal(t, softPenaltyLateStart, score.Soft)
}

func TestEvaluateSectionMajorDensity(t *testing.T) {
	s := scoreFixture()
	starts := []int{MorningStart, MorningStart + 90, AfternoonStart}
	for i, start := range starts {
		s.Allocations = append(s.Allocations, &Allocation{
			ID: int64(i + 1), SubjectCode: "IT20" + string(rune('1'+i)), TeacherIdx: i % 2,
			SectionIdx: 0, DurationMin: 90, Major: true,
			SlotIdx: slotAt(t, s, time.Monday, start), RoomIdx: 2,
		})
	}
	// Three major sessions on one day exceed the per-section limit by one.
	assert.Equal(t, weightSectionDensity, Evaluate(s).Hard)
}

func TestEvaluateCrossSectionSameDay(t *testing.T) {
	s := scoreFixture()
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "IT201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true,
			SlotIdx: slotAt(t, s, time.Monday, MorningStart), RoomIdx: 2},
		{ID: 2, SubjectCode: "IT201", TeacherIdx: 0, SectionIdx: 1, DurationMin: 90, Major: true,
			SlotIdx: slotAt(t, s, time.Monday, AfternoonStart), RoomIdx: 2},
	}
	// Same teacher, same major subject, two sections, one day.
	assert.Equal(t, weightCrossSectionDay, Evaluate(s).Hard)

	s.Allocations[1].SlotIdx = slotAt(t, s, time.Tuesday, AfternoonStart)
	assert.True(t, Evaluate(s).Feasible())
}

func TestEvaluateMajorSequencing(t *testing.T) {
	s := scoreFixture()
	first := slotAt(t, s, time.Monday, MorningStart)
	adjacent := slotAt(t, s, time.Monday, MorningStart+90)
	gapped := slotAt(t, s, time.Monday, AfternoonStart)

	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "IT201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true, SlotIdx: first, RoomIdx: 2},
		{ID: 2, SubjectCode: "IT201", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, Major: true, SlotIdx: adjacent, RoomIdx: 2},
	}
	score := Evaluate(s)
	assert.True(t, score.Feasible())
	// Back-to-back sessions of one major subject earn the soft reward.
	assert.Equal(t, -softRewardSequential, score.Soft)

	s.Allocations[1].SlotIdx = gapped
	score = Evaluate(s)
	assert.Equal(t, weightSequencing, score.Hard)
	assert.Equal(t, 0, score.Soft)
}

func TestEvaluateNonMajorWeeklyPattern(t *testing.T) {
	s := scoreFixture()
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "GE101", TeacherIdx: 1, SectionIdx: 0, DurationMin: 90,
			SlotIdx: slotAt(t, s, time.Monday, MorningStart), RoomIdx: 0},
		{ID: 2, SubjectCode: "GE101", TeacherIdx: 1, SectionIdx: 0, DurationMin: 90,
			SlotIdx: slotAt(t, s, time.Thursday, MorningStart), RoomIdx: 0},
	}
	assert.True(t, Evaluate(s).Feasible())

	// Different start time breaks the repeating grid.
	s.Allocations[1].SlotIdx = slotAt(t, s, time.Thursday, MorningStart+90)
	assert.Equal(t, weightNonMajorPattern, Evaluate(s).Hard)
}

func TestEvaluateNonMajorSharedStartReward(t *testing.T) {
	s := scoreFixture()
	s.Allocations = []*Allocation{
		{ID: 1, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90,
			SlotIdx: slotAt(t, s, time.Monday, MorningStart), RoomIdx: 0},
		{ID: 2, SubjectCode: "GE102", TeacherIdx: 1, SectionIdx: 0, DurationMin: 90,
			SlotIdx: slotAt(t, s, time.Tuesday, MorningStart), RoomIdx: 0},
	}
	score := Evaluate(s)
	assert.True(t, score.Feasible())
	assert.Equal(t, -softRewardSharedStart, score.Soft)
}

func TestEvaluateUtilization(t *testing.T) {
	s := scoreFixture()
	slot := slotAt(t, s, time.Monday, MorningStart)
	alloc := &Allocation{ID: 1, SubjectCode: "GE101", TeacherIdx: 0, SectionIdx: 0, DurationMin: 90, SlotIdx: slot, RoomIdx: 0}
	s.Allocations = []*Allocation{alloc}

	// 30 students in a 40-seat room: optimal band, no penalty.
	assert.Equal(t, 0, Evaluate(s).Soft)

	s.Sections[0].Students = 14
	assert.Equal(t, softPenaltyAcceptable, Evaluate(s).Soft)

	s.Sections[0].Students = 5
	assert.Equal(t, softPenaltyUtilization, Evaluate(s).Soft)

	s.Classrooms[0].Capacity = 0
	assert.Equal(t, softPenaltyNoCapacity, Evaluate(s).Soft)
}
