package solver

import (
	"sort"
	"strings"
)

// Construct assigns every movable allocation a timeslot and classroom. It
// walks allocations in ascending id order and gives each the first catalog
// (timeslot, classroom) pair that introduces no new hard violation against
// everything placed so far; when no clean pair exists it takes the least-bad
// one. Construction always terminates with a fully assigned solution, which
// may still be infeasible.
func Construct(s *Solution) {
	movable := s.Movable()
	sort.Slice(movable, func(i, j int) bool { return movable[i].ID < movable[j].ID })

	for _, a := range movable {
		bestSlot, bestRoom := -1, -1
		bestPenalty := -1
		for slotIdx := range s.Timeslots {
			for roomIdx := range s.Classrooms {
				a.SlotIdx, a.RoomIdx = slotIdx, roomIdx
				penalty := placementPenalty(s, a)
				if penalty == 0 {
					bestSlot, bestRoom, bestPenalty = slotIdx, roomIdx, 0
					break
				}
				if bestPenalty < 0 || penalty < bestPenalty {
					bestSlot, bestRoom, bestPenalty = slotIdx, roomIdx, penalty
				}
			}
			if bestPenalty == 0 {
				break
			}
		}
		a.SlotIdx, a.RoomIdx = bestSlot, bestRoom
	}
}

// placementPenalty totals the hard violations the candidate assignment of a
// introduces: room capability and end-time rules for a itself, pairwise
// conflicts against every other assigned allocation, and density excess in
// the groups a joins.
func placementPenalty(s *Solution, a *Allocation) int {
	penalty := unaryPenalty(s, a)
	for _, other := range s.Allocations {
		if other == a || !other.Assigned() {
			continue
		}
		penalty += pairPenalty(s, a, other)
	}
	penalty += weightSectionDensity * densityContribution(s, a, func(x *Allocation) int { return x.SectionIdx }, maxMajorPerSectionDay)
	penalty += weightTeacherDensity * densityContribution(s, a, func(x *Allocation) int { return x.TeacherIdx }, maxMajorPerTeacherDay)
	return penalty
}

func unaryPenalty(s *Solution, a *Allocation) int {
	penalty := 0
	roomType := ""
	if room := s.Room(a); room != nil {
		roomType = strings.ToLower(strings.TrimSpace(room.Type))
	}
	switch {
	case a.Major && a.SectionIdx >= 0 && strings.EqualFold(s.Sections[a.SectionIdx].Program, computerLabProgram):
		if !strings.Contains(roomType, "computer") && !strings.Contains(roomType, "lab") {
			penalty += weightComputerLab
		}
	case a.Major:
		if !strings.Contains(roomType, "lab") {
			penalty += weightGeneralLab
		}
	default:
		if !strings.Contains(roomType, "lecture") && !strings.Contains(roomType, "classroom") {
			penalty += weightLectureRoom
		}
	}
	if a.Assigned() && s.End(a) > latestEndTime {
		penalty += weightLateEnd
	}
	return penalty
}

// pairPenalty scores the hard rules that bind a to one other assigned
// allocation.
func pairPenalty(s *Solution, a, b *Allocation) int {
	penalty := 0
	sameDay := s.Slot(a).Day == s.Slot(b).Day
	sameStart := sameDay && s.Slot(a).Start == s.Slot(b).Start
	sameTeacher := a.TeacherIdx >= 0 && a.TeacherIdx == b.TeacherIdx
	sameRoom := a.RoomIdx >= 0 && a.RoomIdx == b.RoomIdx
	sameSection := a.SectionIdx >= 0 && a.SectionIdx == b.SectionIdx
	overlap := sameDay && pairOverlaps(s, a, b)

	if overlap {
		if sameTeacher {
			penalty += weightConflict
		}
		if sameRoom {
			penalty += weightConflict
		}
		if sameSection {
			penalty += weightConflict
		}
	}
	if sameStart && (sameTeacher || sameRoom || sameSection) {
		penalty += weightExactCollision
	}
	if sameStart && sameSection && a.SubjectCode == b.SubjectCode {
		penalty += weightDuplicate
	}
	if a.Major && b.Major && sameTeacher {
		if overlap {
			penalty += weightConflict
		}
		if a.SubjectCode == b.SubjectCode && !sameSection && sameDay {
			penalty += weightCrossSectionDay
		}
		if a.SubjectCode == b.SubjectCode && sameSection && sameDay &&
			s.End(a) != s.Start(b) && s.End(b) != s.Start(a) {
			penalty += weightSequencing
		}
	}
	if sameTeacher && a.SubjectCode == b.SubjectCode && a.RoomIdx >= 0 && b.RoomIdx >= 0 && a.RoomIdx != b.RoomIdx {
		penalty += weightRoomConsistency
	}
	if !a.Major && !b.Major && sameTeacher && sameSection && a.SubjectCode == b.SubjectCode {
		if s.Slot(a).Start != s.Slot(b).Start || sameDay {
			penalty += weightNonMajorPattern
		}
	}
	return penalty
}

// densityContribution reports the excess a's candidate day adds to its
// major-session density group.
func densityContribution(s *Solution, a *Allocation, key func(*Allocation) int, limit int) int {
	if !a.Major || key(a) < 0 || !a.Assigned() {
		return 0
	}
	day := s.Slot(a).Day
	count := 0
	for _, other := range s.Allocations {
		if !other.Assigned() || !other.Major || key(other) != key(a) {
			continue
		}
		if s.Slot(other).Day == day {
			count++
		}
	}
	if count > limit {
		return 1
	}
	return 0
}
