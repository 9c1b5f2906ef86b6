package solver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func solveFixture(t *testing.T, requests []SessionRequest, published []PublishedSession) *Solution {
	t.Helper()
	teachers := []Teacher{
		{ID: "teacher-1", Name: "Reyes", Department: "CS"},
		{ID: "teacher-2", Name: "Santos", Department: "GE"},
	}
	classrooms := []Classroom{
		{ID: "room-1", Name: "LR-101", Capacity: 40, Type: "Lecture Room"},
		{ID: "room-2", Name: "LR-102", Capacity: 40, Type: "Lecture Room"},
		{ID: "room-3", Name: "CL-201", Capacity: 40, Type: "Computer Laboratory"},
	}
	sections := []Section{
		{ID: "section-1", Program: "BSIT", Year: 2, Label: "A", Students: 30},
		{ID: "section-2", Program: "BSIT", Year: 2, Label: "B", Students: 28},
	}
	s, _, err := BuildAllocations("section-1", requests, teachers, classrooms, sections, published, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestSolveThreeHourSubject(t *testing.T) {
	s := solveFixture(t, []SessionRequest{
		{SubjectCode: "GE101", SubjectName: "Ethics", TeacherID: "teacher-2", WeeklyHours: 3},
	}, nil)

	solver := New(Config{Seed: 1, TimeLimit: 5 * time.Second}, zap.NewNop())
	score, err := solver.Solve(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, score.Feasible())

	require.Len(t, s.Allocations, 2)
	a, b := s.Allocations[0], s.Allocations[1]
	assert.True(t, a.Assigned())
	assert.True(t, b.Assigned())
	assert.Equal(t, 90, a.DurationMin)
	assert.Equal(t, 90, b.DurationMin)

	// Repeated non-major sessions land on different days at the same start,
	// in lecture rooms.
	assert.NotEqual(t, s.Slot(a).Day, s.Slot(b).Day)
	assert.Equal(t, s.Start(a), s.Start(b))
	assert.Contains(t, strings.ToLower(s.Room(a).Type), "lecture")
	assert.Contains(t, strings.ToLower(s.Room(b).Type), "lecture")
}

func TestSolvePlacesMajorInComputerLab(t *testing.T) {
	s := solveFixture(t, []SessionRequest{
		{SubjectCode: "IT201", SubjectName: "Data Structures", TeacherID: "teacher-1", WeeklyHours: 3, Major: true},
	}, nil)

	solver := New(Config{Seed: 1, TimeLimit: 5 * time.Second}, zap.NewNop())
	score, err := solver.Solve(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, score.Feasible())

	for _, a := range s.Allocations {
		assert.Contains(t, strings.ToLower(s.Room(a).Type), "lab")
	}
}

func TestSolveNeverMovesPinned(t *testing.T) {
	s := solveFixture(t, []SessionRequest{
		{SubjectCode: "GE101", SubjectName: "Ethics", TeacherID: "teacher-2", WeeklyHours: 3},
	}, []PublishedSession{
		{
			ID:          "sched-1",
			SubjectCode: "IT202",
			TeacherID:   "teacher-1",
			SectionID:   "section-2",
			ClassroomID: "room-3",
			Day:         "MONDAY",
			StartTime:   "08:00 AM",
			EndTime:     "09:30 AM",
		},
	})

	var pinned *Allocation
	for _, a := range s.Allocations {
		if a.Pinned {
			pinned = a
		}
	}
	require.NotNil(t, pinned)
	slotBefore, roomBefore := pinned.SlotIdx, pinned.RoomIdx

	solver := New(Config{Seed: 7, TimeLimit: 5 * time.Second}, zap.NewNop())
	score, err := solver.Solve(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, score.Feasible())
	assert.Equal(t, slotBefore, pinned.SlotIdx)
	assert.Equal(t, roomBefore, pinned.RoomIdx)
}

func TestSolveDeterministicWithSeed(t *testing.T) {
	requests := []SessionRequest{
		{SubjectCode: "IT201", SubjectName: "Data Structures", TeacherID: "teacher-1", WeeklyHours: 3, Major: true},
		{SubjectCode: "GE101", SubjectName: "Ethics", TeacherID: "teacher-2", WeeklyHours: 3},
	}

	run := func() ([]int, Score) {
		s := solveFixture(t, requests, nil)
		solver := New(Config{Seed: 42, TimeLimit: 5 * time.Second}, zap.NewNop())
		score, err := solver.Solve(context.Background(), s)
		require.NoError(t, err)
		var placements []int
		for _, a := range s.Allocations {
			placements = append(placements, a.SlotIdx, a.RoomIdx)
		}
		return placements, score
	}

	firstPlacements, firstScore := run()
	secondPlacements, secondScore := run()
	assert.Equal(t, firstPlacements, secondPlacements)
	assert.Equal(t, firstScore, secondScore)
}

func TestSolveHonoursCancellation(t *testing.T) {
	s := solveFixture(t, []SessionRequest{
		{SubjectCode: "GE101", SubjectName: "Ethics", TeacherID: "teacher-2", WeeklyHours: 3},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := New(Config{Seed: 1}, zap.NewNop())
	_, err := solver.Solve(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)

	// Cancellation still leaves a fully constructed, consistent assignment.
	for _, a := range s.Allocations {
		assert.True(t, a.Assigned())
	}
}
