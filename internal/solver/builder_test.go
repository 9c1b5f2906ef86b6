package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSplitWeeklyHours(t *testing.T) {
	cases := []struct {
		hours int
		want  []int
	}{
		{hours: -1, want: nil},
		{hours: 0, want: nil},
		{hours: 1, want: []int{60}},
		{hours: 2, want: []int{90, 30}},
		{hours: 3, want: []int{90, 90}},
		{hours: 5, want: []int{90, 90, 90, 30}},
	}
	for _, tc := range cases {
		got := SplitWeeklyHours(tc.hours)
		assert.Equal(t, tc.want, got, "hours=%d", tc.hours)

		total := 0
		for _, d := range got {
			total += d
			assert.LessOrEqual(t, d, 90)
		}
		assert.LessOrEqual(t, total, tc.hours*60)
	}
}

func builderFixture() ([]Teacher, []Classroom, []Section) {
	teachers := []Teacher{
		{ID: "teacher-1", Name: "Reyes", Department: "CS"},
		{ID: "teacher-2", Name: "Santos", Department: "GE"},
	}
	classrooms := []Classroom{
		{ID: "room-1", Name: "LR-101", Capacity: 40, Type: "Lecture Room"},
		{ID: "room-2", Name: "CL-201", Capacity: 30, Type: "Computer Laboratory"},
	}
	sections := []Section{
		{ID: "section-1", Program: "BSIT", Year: 2, Label: "A", Students: 30},
		{ID: "section-2", Program: "BSIT", Year: 2, Label: "B", Students: 28},
	}
	return teachers, classrooms, sections
}

func TestBuildAllocationsSplitsRequests(t *testing.T) {
	teachers, classrooms, sections := builderFixture()

	s, report, err := BuildAllocations("section-1", []SessionRequest{
		{SubjectCode: "IT201", SubjectName: "Data Structures", TeacherID: "teacher-1", WeeklyHours: 3, Major: true},
		{SubjectCode: "GE101", SubjectName: "Ethics", TeacherID: "teacher-2", WeeklyHours: 1},
	}, teachers, classrooms, sections, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, report.Skipped)
	require.Len(t, s.Allocations, 3)

	for i, a := range s.Allocations {
		assert.Equal(t, int64(i+1), a.ID)
		assert.False(t, a.Pinned)
		assert.False(t, a.Assigned())
		assert.Equal(t, 0, a.SectionIdx)
	}
	assert.Equal(t, 90, s.Allocations[0].DurationMin)
	assert.Equal(t, 90, s.Allocations[1].DurationMin)
	assert.Equal(t, 60, s.Allocations[2].DurationMin)
	assert.Equal(t, 1, s.Allocations[2].TeacherIdx)
}

func TestBuildAllocationsReconstructsPinned(t *testing.T) {
	teachers, classrooms, sections := builderFixture()

	published := []PublishedSession{
		{
			ID:          "sched-1",
			SubjectCode: "IT202",
			TeacherID:   "teacher-1",
			SectionID:   "section-2",
			ClassroomID: "room-2",
			Day:         "WEDNESDAY",
			StartTime:   "08:00 AM",
			EndTime:     "09:30 AM",
		},
		{
			// Belongs to the target section, so it is replaced, not pinned.
			ID:          "sched-2",
			SubjectCode: "IT201",
			TeacherID:   "teacher-1",
			SectionID:   "section-1",
			ClassroomID: "room-1",
			Day:         "MONDAY",
			StartTime:   "08:00 AM",
			EndTime:     "09:30 AM",
		},
	}

	s, report, err := BuildAllocations("section-1", nil, teachers, classrooms, sections, published, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, report.Skipped)
	require.Len(t, s.Allocations, 1)

	pinned := s.Allocations[0]
	assert.True(t, pinned.Pinned)
	assert.True(t, pinned.Assigned())
	assert.Equal(t, 1, pinned.SectionIdx)
	assert.Equal(t, 1, pinned.RoomIdx)
	assert.Equal(t, 90, pinned.DurationMin)
	assert.True(t, pinned.Major, "laboratory placement implies a major session")
	assert.Equal(t, 8*60, s.Start(pinned))
}

func TestBuildAllocationsSkipsUnresolvableSessions(t *testing.T) {
	teachers, classrooms, sections := builderFixture()

	published := []PublishedSession{
		{ID: "bad-room", SectionID: "section-2", ClassroomID: "room-missing", TeacherID: "teacher-1", Day: "MONDAY", StartTime: "08:00 AM", EndTime: "09:30 AM"},
		{ID: "bad-teacher", SectionID: "section-2", ClassroomID: "room-1", TeacherID: "teacher-missing", Day: "MONDAY", StartTime: "08:00 AM", EndTime: "09:30 AM"},
		{ID: "bad-day", SectionID: "section-2", ClassroomID: "room-1", TeacherID: "teacher-1", Day: "FUNDAY", StartTime: "08:00 AM", EndTime: "09:30 AM"},
		{ID: "bad-clock", SectionID: "section-2", ClassroomID: "room-1", TeacherID: "teacher-1", Day: "MONDAY", StartTime: "8 o'clock", EndTime: "09:30 AM"},
		{ID: "off-grid", SectionID: "section-2", ClassroomID: "room-1", TeacherID: "teacher-1", Day: "MONDAY", StartTime: "08:15 AM", EndTime: "09:45 AM"},
	}

	s, report, err := BuildAllocations("section-1", nil, teachers, classrooms, sections, published, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Skipped)
	assert.Empty(t, s.Allocations)
}

func TestBuildAllocationsWrapsPastMidnight(t *testing.T) {
	teachers, classrooms, sections := builderFixture()

	published := []PublishedSession{
		{ID: "wrap", SectionID: "section-2", ClassroomID: "room-1", TeacherID: "teacher-2", Day: "FRIDAY", StartTime: "07:00 PM", EndTime: "12:30 AM"},
	}

	s, _, err := BuildAllocations("section-1", nil, teachers, classrooms, sections, published, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, s.Allocations, 1)
	assert.Equal(t, 5*60+30, s.Allocations[0].DurationMin)
}

func TestBuildAllocationsUnknownSection(t *testing.T) {
	teachers, classrooms, sections := builderFixture()

	_, _, err := BuildAllocations("section-missing", nil, teachers, classrooms, sections, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrSectionNotFound)
}
