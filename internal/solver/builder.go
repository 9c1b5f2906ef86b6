package solver

import (
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"
)

// ErrSectionNotFound is returned when the target section id does not
// resolve against the section catalog.
var ErrSectionNotFound = errors.New("section not found")

// SessionRequest asks for one subject to be scheduled for the target
// section.
type SessionRequest struct {
	SubjectCode string
	SubjectName string
	TeacherID   string // empty when no instructor is assigned yet
	WeeklyHours int
	Major       bool
}

// PublishedSession is a previously persisted session belonging to any
// section. Sessions outside the target section become pinned allocations;
// the target section's own sessions are dropped and fully replaced.
type PublishedSession struct {
	ID          string
	SubjectCode string
	SubjectName string
	TeacherID   string
	SectionID   string
	ClassroomID string
	Day         string // stored upper-case day name
	StartTime   string // "08:00 AM" clock form
	EndTime     string
}

// BuildReport carries non-fatal observations from building.
type BuildReport struct {
	// Skipped counts published sessions that could not be reconstructed
	// into pinned allocations (dangling ids, unparseable times). These are
	// data-integrity gaps, not errors; solving proceeds without them.
	Skipped int
}

// BuildAllocations turns scheduling requests plus the published timetable
// into a solvable Solution: requests split into movable allocations,
// foreign sessions reconstructed as pinned facts.
func BuildAllocations(
	sectionID string,
	requests []SessionRequest,
	teachers []Teacher,
	classrooms []Classroom,
	sections []Section,
	published []PublishedSession,
	logger *zap.Logger,
) (*Solution, BuildReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Solution{
		Timeslots:  GenerateTimeslots(),
		Classrooms: classrooms,
		Teachers:   teachers,
		Sections:   sections,
	}

	teacherIdx := indexByID(len(teachers), func(i int) string { return teachers[i].ID })
	roomIdx := indexByID(len(classrooms), func(i int) string { return classrooms[i].ID })
	sectionIdx := indexByID(len(sections), func(i int) string { return sections[i].ID })

	target, ok := sectionIdx[sectionID]
	if !ok {
		return nil, BuildReport{}, ErrSectionNotFound
	}

	var report BuildReport
	nextID := int64(1)

	for _, req := range requests {
		tIdx := -1
		if req.TeacherID != "" {
			if idx, ok := teacherIdx[req.TeacherID]; ok {
				tIdx = idx
			} else {
				logger.Warn("teacher not found for request",
					zap.String("teacher_id", req.TeacherID),
					zap.String("subject", req.SubjectCode),
				)
			}
		}
		for _, duration := range SplitWeeklyHours(req.WeeklyHours) {
			s.Allocations = append(s.Allocations, &Allocation{
				ID:          nextID,
				SubjectCode: req.SubjectCode,
				SubjectName: req.SubjectName,
				TeacherIdx:  tIdx,
				SectionIdx:  target,
				DurationMin: duration,
				Major:       req.Major,
				Pinned:      false,
				SlotIdx:     -1,
				RoomIdx:     -1,
			})
			nextID++
		}
	}

	for _, session := range published {
		if session.SectionID == sectionID {
			// Replaced wholesale by the new solve.
			continue
		}
		alloc, ok := reconstructPinned(s, session, teacherIdx, roomIdx, sectionIdx)
		if !ok {
			report.Skipped++
			logger.Warn("skipping unreconstructable published session",
				zap.String("session_id", session.ID),
				zap.String("subject", session.SubjectCode),
			)
			continue
		}
		alloc.ID = nextID
		nextID++
		s.Allocations = append(s.Allocations, alloc)
	}

	return s, report, nil
}

// reconstructPinned rebuilds a published session as an immutable fact. Any
// unresolvable reference or non-positive duration disqualifies it.
func reconstructPinned(
	s *Solution,
	session PublishedSession,
	teacherIdx, roomIdx, sectionIdx map[string]int,
) (*Allocation, bool) {
	tIdx := -1
	if session.TeacherID != "" {
		idx, ok := teacherIdx[session.TeacherID]
		if !ok {
			return nil, false
		}
		tIdx = idx
	}
	rIdx, ok := roomIdx[session.ClassroomID]
	if !ok {
		return nil, false
	}
	secIdx, ok := sectionIdx[session.SectionID]
	if !ok {
		return nil, false
	}
	day, ok := ParseDay(session.Day)
	if !ok {
		return nil, false
	}
	start, err := ParseClock(session.StartTime)
	if err != nil {
		return nil, false
	}
	end, err := ParseClock(session.EndTime)
	if err != nil {
		return nil, false
	}
	duration := end - start
	if duration < 0 {
		duration += 24 * 60
	}
	if duration <= 0 {
		return nil, false
	}
	slot := FindTimeslot(s.Timeslots, day, start)
	if slot < 0 {
		return nil, false
	}

	// Published rows do not store the major flag; infer it from the room
	// the session was placed in.
	roomType := strings.ToLower(s.Classrooms[rIdx].Type)
	major := strings.Contains(roomType, "lab")

	return &Allocation{
		SubjectCode: session.SubjectCode,
		SubjectName: session.SubjectName,
		TeacherIdx:  tIdx,
		SectionIdx:  secIdx,
		DurationMin: duration,
		Major:       major,
		Pinned:      true,
		SlotIdx:     slot,
		RoomIdx:     rIdx,
	}, true
}

// SplitWeeklyHours decomposes a subject's weekly class hours into session
// durations in minutes: one hour stays a single 60-minute session, anything
// larger becomes ceil(hours/1.5) sessions of 90 minutes with the remainder
// trimmed into the final session. Non-positive input yields nothing.
func SplitWeeklyHours(hours int) []int {
	if hours <= 0 {
		return nil
	}
	if hours == 1 {
		return []int{60}
	}
	sessions := int(math.Ceil(float64(hours) / 1.5))
	remaining := hours * 60
	durations := make([]int, 0, sessions)
	for i := 0; i < sessions; i++ {
		if remaining > 90 {
			durations = append(durations, 90)
			remaining -= 90
		} else if remaining > 0 {
			durations = append(durations, remaining)
			remaining = 0
		}
	}
	return durations
}

func indexByID(n int, id func(int) string) map[string]int {
	idx := make(map[string]int, n)
	for i := 0; i < n; i++ {
		idx[id(i)] = i
	}
	return idx
}

