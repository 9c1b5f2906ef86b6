package solver

import (
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ErrInfeasible is returned when no hard-constraint-free schedule could be
// produced, even after repair.
var ErrInfeasible = errors.New("no feasible schedule found")

// ViolationKind tags what a post-solve scan found.
type ViolationKind int

const (
	// ViolationResourceOverlap is a teacher, classroom or section booked
	// into two time-overlapping sessions on the same day.
	ViolationResourceOverlap ViolationKind = iota
	// ViolationCrossSectionDay is one teacher giving the same major subject
	// to two different sections on the same day.
	ViolationCrossSectionDay
)

// Violation is one detected rule break between two assigned allocations.
type Violation struct {
	Kind ViolationKind
	A    *Allocation
	B    *Allocation
}

// FindViolations re-scans the assigned allocations independently of the
// scoring pass and reports every resource overlap and cross-section
// same-day clash. Pairs are visited in id order so the result is stable.
func FindViolations(s *Solution) []Violation {
	assigned := make([]*Allocation, 0, len(s.Allocations))
	for _, a := range s.Allocations {
		if a.Assigned() {
			assigned = append(assigned, a)
		}
	}
	sort.Slice(assigned, func(i, j int) bool { return assigned[i].ID < assigned[j].ID })

	var out []Violation
	for i := 0; i < len(assigned); i++ {
		for j := i + 1; j < len(assigned); j++ {
			a, b := assigned[i], assigned[j]
			if s.Slot(a).Day != s.Slot(b).Day {
				continue
			}
			sameTeacher := a.TeacherIdx >= 0 && a.TeacherIdx == b.TeacherIdx
			sameRoom := a.RoomIdx >= 0 && a.RoomIdx == b.RoomIdx
			sameSection := a.SectionIdx >= 0 && a.SectionIdx == b.SectionIdx
			if pairOverlaps(s, a, b) && (sameTeacher || sameRoom || sameSection) {
				out = append(out, Violation{Kind: ViolationResourceOverlap, A: a, B: b})
			}
			if a.Major && b.Major && sameTeacher && !sameSection && a.SubjectCode == b.SubjectCode {
				out = append(out, Violation{Kind: ViolationCrossSectionDay, A: a, B: b})
			}
		}
	}
	return out
}

// Repair makes a single pass over the violations. For each one it keeps the
// colliding start time and moves the movable participant's subject sessions
// for its section to another day offering that same start, as a group.
// Candidate days run Monday to Saturday, so ties resolve to the earliest
// day of the week. Violations a previous move already resolved are skipped.
// Returns how many violations were repaired; anything left is caught by the
// re-validation that follows.
func Repair(s *Solution, violations []Violation, logger *zap.Logger) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	repaired := 0
	for _, v := range violations {
		if !violationHolds(s, v) {
			continue
		}
		target := pickMovable(v)
		if target == nil {
			continue
		}
		fromDay := s.Slot(target).Day
		if !moveSubjectOffDay(s, target, fromDay) {
			continue
		}
		repaired++
		logger.Debug("repaired schedule violation",
			zap.Int64("allocation_id", target.ID),
			zap.String("subject", target.SubjectCode),
			zap.String("from_day", DayName(fromDay)),
			zap.String("to_day", DayName(s.Slot(target).Day)),
		)
	}
	return repaired
}

// violationHolds re-checks a violation against the current assignment; a
// group move for an earlier violation may already have cleared it. Only
// slot indexes change during repair, so the day and overlap conditions are
// the ones worth re-testing.
func violationHolds(s *Solution, v Violation) bool {
	if s.Slot(v.A).Day != s.Slot(v.B).Day {
		return false
	}
	return v.Kind == ViolationCrossSectionDay || pairOverlaps(s, v.A, v.B)
}

// pickMovable chooses which participant of a violation to relocate: the
// later-created movable allocation, keeping earlier placements stable.
func pickMovable(v Violation) *Allocation {
	if !v.B.Pinned {
		return v.B
	}
	if !v.A.Pinned {
		return v.A
	}
	return nil
}

// moveSubjectOffDay relocates every movable session of a's subject that a's
// section holds on fromDay, a included. Each session keeps its start time;
// the first day where all of them find a slot at those starts without a new
// hard violation wins. Nothing moves when no such day exists, which the
// re-validation then reports as a failed repair.
func moveSubjectOffDay(s *Solution, a *Allocation, fromDay time.Weekday) bool {
	group := sectionSubjectSessions(s, a, fromDay)
	orig := make([]int, len(group))
	for i, m := range group {
		orig[i] = m.SlotIdx
	}

	for _, day := range Days {
		if day == fromDay {
			continue
		}
		placed := true
		for i, m := range group {
			slotIdx := FindTimeslot(s.Timeslots, day, s.Timeslots[orig[i]].Start)
			if slotIdx < 0 {
				placed = false
				break
			}
			m.SlotIdx = slotIdx
		}
		if placed {
			for _, m := range group {
				if placementPenalty(s, m) != 0 {
					placed = false
					break
				}
			}
		}
		if placed {
			return true
		}
		for i, m := range group {
			m.SlotIdx = orig[i]
		}
	}
	return false
}

// sectionSubjectSessions collects the movable sessions of a's subject that
// a's section holds on the given day.
func sectionSubjectSessions(s *Solution, a *Allocation, day time.Weekday) []*Allocation {
	var group []*Allocation
	for _, m := range s.Allocations {
		if m.Pinned || !m.Assigned() {
			continue
		}
		if m.SectionIdx == a.SectionIdx && m.SubjectCode == a.SubjectCode && s.Slot(m).Day == day {
			group = append(group, m)
		}
	}
	return group
}

// Finalize validates a solved schedule, attempts one repair pass when the
// independent scan finds violations, and re-validates once. A schedule that
// still carries hard violations or scan findings is rejected.
func Finalize(s *Solution, logger *zap.Logger) (Score, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, a := range s.Allocations {
		if !a.Assigned() || a.RoomIdx < 0 {
			return Score{}, ErrInfeasible
		}
	}
	if violations := FindViolations(s); len(violations) > 0 {
		repaired := Repair(s, violations, logger)
		logger.Info("post-solve repair pass",
			zap.Int("violations", len(violations)),
			zap.Int("repaired", repaired),
		)
	}
	score := Evaluate(s)
	if !score.Feasible() {
		return score, ErrInfeasible
	}
	if remaining := FindViolations(s); len(remaining) > 0 {
		return score, ErrInfeasible
	}
	return score, nil
}
