package solver

import (
	"sort"
	"strings"
	"time"
)

// Score is a hierarchical penalty. Hard must reach zero for an acceptable
// timetable; Soft is minimized best-effort and never blocks acceptance.
type Score struct {
	Hard int
	Soft int
}

// Feasible reports whether the timetable breaks no hard rule.
func (s Score) Feasible() bool { return s.Hard == 0 }

// Better orders scores lexicographically: fewer hard violations first,
// then lower soft penalty.
func (s Score) Better(other Score) bool {
	if s.Hard != other.Hard {
		return s.Hard < other.Hard
	}
	return s.Soft < other.Soft
}

// Penalty weights. Hard-tier weights only steer the search between hard
// violations; any nonzero hard total blocks acceptance. Room-capability
// rules dominate density, which dominates sequencing and consistency.
const (
	weightConflict         = 1
	weightExactCollision   = 1
	weightDuplicate        = 1
	weightComputerLab      = 100
	weightGeneralLab       = 50
	weightLectureRoom      = 50
	weightLateEnd          = 1
	weightSectionDensity   = 5
	weightTeacherDensity   = 5
	weightCrossSectionDay  = 5
	weightSequencing       = 3
	weightRoomConsistency  = 3
	weightNonMajorPattern  = 3
	softRewardSharedStart  = 10
	softRewardSequential   = 10
	softPenaltyLateStart   = 2
	softPenaltyNoCapacity  = 3
	softPenaltyAcceptable  = 1
	softPenaltyUtilization = 2
)

// Program whose major subjects require a computer laboratory.
const computerLabProgram = "BSIT"

const (
	lateEveningStart = 18 * 60
	latestEndTime    = 20*60 + 30
	maxMajorPerSectionDay = 2
	maxMajorPerTeacherDay = 6
)

// Evaluate recomputes the full score of a candidate solution. It is a pure
// function of the solution and may be called on partial assignments.
func Evaluate(s *Solution) Score {
	var score Score

	score.Hard += weightConflict * resourceConflicts(s)
	score.Hard += weightExactCollision * exactCollisions(s)
	score.Hard += weightDuplicate * duplicateSessions(s)
	score.Hard += roomCapabilityPenalty(s)
	score.Hard += weightLateEnd * lateEndCount(s)
	score.Hard += weightSectionDensity * sectionMajorDensityExcess(s)
	score.Hard += weightTeacherDensity * teacherMajorDensityExcess(s)
	score.Hard += weightSequencing * brokenMajorChains(s)
	score.Hard += weightConflict * teacherCrossSectionOverlaps(s)
	score.Hard += weightRoomConsistency * inconsistentRooms(s)
	score.Hard += weightCrossSectionDay * crossSectionSameDay(s)
	score.Hard += weightNonMajorPattern * nonMajorPatternBreaks(s)

	score.Soft -= softRewardSharedStart * nonMajorSharedStarts(s)
	score.Soft -= softRewardSequential * sequentialMajorPairs(s)
	score.Soft += softPenaltyLateStart * lateStartCount(s)
	score.Soft += utilizationPenalty(s)

	return score
}

// resourceConflicts counts overlapping pairs per teacher, classroom and
// section independently. Two sessions overlap when, sorted by start within
// one day, the later one starts before the earlier ends or at the exact
// same minute.
func resourceConflicts(s *Solution) int {
	total := 0
	total += overlapsBy(s, func(a *Allocation) int { return a.TeacherIdx })
	total += overlapsBy(s, func(a *Allocation) int { return a.RoomIdx })
	total += overlapsBy(s, func(a *Allocation) int { return a.SectionIdx })
	return total
}

func overlapsBy(s *Solution, key func(*Allocation) int) int {
	groups := make(map[int][]*Allocation)
	for _, a := range s.Allocations {
		if !a.Assigned() || key(a) < 0 {
			continue
		}
		groups[key(a)] = append(groups[key(a)], a)
	}
	total := 0
	for _, group := range groups {
		total += countOverlapPairs(s, group)
	}
	return total
}

func countOverlapPairs(s *Solution, allocs []*Allocation) int {
	byDay := make(map[time.Weekday][]*Allocation)
	for _, a := range allocs {
		byDay[s.Slot(a).Day] = append(byDay[s.Slot(a).Day], a)
	}
	total := 0
	for _, day := range byDay {
		if len(day) < 2 {
			continue
		}
		sort.Slice(day, func(i, j int) bool { return s.Start(day[i]) < s.Start(day[j]) })
		for i := 0; i < len(day); i++ {
			end := s.End(day[i])
			for j := i + 1; j < len(day); j++ {
				if s.Start(day[j]) < end || s.Start(day[j]) == s.Start(day[i]) {
					total++
				} else {
					break
				}
			}
		}
	}
	return total
}

// exactCollisions counts distinct pairs sharing day and start minute that
// also share a teacher, classroom or section.
func exactCollisions(s *Solution) int {
	total := 0
	forAssignedPairs(s, func(a, b *Allocation) {
		sa, sb := s.Slot(a), s.Slot(b)
		if sa.Day != sb.Day || sa.Start != sb.Start {
			return
		}
		sameTeacher := a.TeacherIdx >= 0 && a.TeacherIdx == b.TeacherIdx
		sameRoom := a.RoomIdx >= 0 && a.RoomIdx == b.RoomIdx
		sameSection := a.SectionIdx >= 0 && a.SectionIdx == b.SectionIdx
		if sameTeacher || sameRoom || sameSection {
			total++
		}
	})
	return total
}

// duplicateSessions counts pairs with identical subject, section, day and
// start time.
func duplicateSessions(s *Solution) int {
	total := 0
	forAssignedPairs(s, func(a, b *Allocation) {
		if a.SubjectCode != b.SubjectCode || a.SectionIdx != b.SectionIdx || a.SectionIdx < 0 {
			return
		}
		sa, sb := s.Slot(a), s.Slot(b)
		if sa.Day == sb.Day && sa.Start == sb.Start {
			total++
		}
	})
	return total
}

// roomCapabilityPenalty enforces room-type matching for movable sessions:
// computer-program majors need a computer laboratory, other majors any
// laboratory, non-majors a lecture room.
func roomCapabilityPenalty(s *Solution) int {
	total := 0
	for _, a := range s.Allocations {
		if a.Pinned {
			continue
		}
		roomType := ""
		if room := s.Room(a); room != nil {
			roomType = strings.ToLower(strings.TrimSpace(room.Type))
		}
		switch {
		case a.Major && a.SectionIdx >= 0 && strings.EqualFold(s.Sections[a.SectionIdx].Program, computerLabProgram):
			if !strings.Contains(roomType, "computer") && !strings.Contains(roomType, "lab") {
				total += weightComputerLab
			}
		case a.Major:
			if !strings.Contains(roomType, "lab") {
				total += weightGeneralLab
			}
		default:
			if !strings.Contains(roomType, "lecture") && !strings.Contains(roomType, "classroom") {
				total += weightLectureRoom
			}
		}
	}
	return total
}

func lateEndCount(s *Solution) int {
	total := 0
	for _, a := range s.Allocations {
		if a.Pinned || !a.Assigned() {
			continue
		}
		if s.End(a) > latestEndTime {
			total++
		}
	}
	return total
}

func sectionMajorDensityExcess(s *Solution) int {
	return densityExcess(s, func(a *Allocation) int { return a.SectionIdx }, maxMajorPerSectionDay)
}

func teacherMajorDensityExcess(s *Solution) int {
	return densityExcess(s, func(a *Allocation) int { return a.TeacherIdx }, maxMajorPerTeacherDay)
}

func densityExcess(s *Solution, key func(*Allocation) int, limit int) int {
	type dayKey struct {
		entity int
		day    time.Weekday
	}
	counts := make(map[dayKey]int)
	for _, a := range s.Allocations {
		if !a.Assigned() || !a.Major || key(a) < 0 {
			continue
		}
		counts[dayKey{key(a), s.Slot(a).Day}]++
	}
	total := 0
	for _, n := range counts {
		if n > limit {
			total += n - limit
		}
	}
	return total
}

// brokenMajorChains penalizes pairs of the same major subject, teacher,
// section and day that do not run back to back.
func brokenMajorChains(s *Solution) int {
	total := 0
	forAssignedPairs(s, func(a, b *Allocation) {
		if !a.Major || !b.Major || a.TeacherIdx < 0 {
			return
		}
		if a.SubjectCode != b.SubjectCode || a.TeacherIdx != b.TeacherIdx || a.SectionIdx != b.SectionIdx {
			return
		}
		if s.Slot(a).Day != s.Slot(b).Day {
			return
		}
		if s.End(a) != s.Start(b) && s.End(b) != s.Start(a) {
			total++
		}
	})
	return total
}

// teacherCrossSectionOverlaps penalizes a teacher's major sessions that
// overlap on one day regardless of section. Chained sessions (one ending
// exactly when the next starts) are fine.
func teacherCrossSectionOverlaps(s *Solution) int {
	total := 0
	forAssignedPairs(s, func(a, b *Allocation) {
		if !a.Major || !b.Major || a.TeacherIdx < 0 || a.TeacherIdx != b.TeacherIdx {
			return
		}
		if s.Slot(a).Day != s.Slot(b).Day {
			return
		}
		if pairOverlaps(s, a, b) {
			total++
		}
	})
	return total
}

// inconsistentRooms penalizes the same subject taught by the same teacher
// landing in different classrooms.
func inconsistentRooms(s *Solution) int {
	total := 0
	forAssignedPairs(s, func(a, b *Allocation) {
		if a.TeacherIdx < 0 || a.TeacherIdx != b.TeacherIdx || a.SubjectCode != b.SubjectCode {
			return
		}
		if a.RoomIdx >= 0 && b.RoomIdx >= 0 && a.RoomIdx != b.RoomIdx {
			total++
		}
	})
	return total
}

// crossSectionSameDay penalizes the same major subject taught by one
// teacher to two different sections on the same day.
func crossSectionSameDay(s *Solution) int {
	total := 0
	forAssignedPairs(s, func(a, b *Allocation) {
		if !a.Major || !b.Major || a.TeacherIdx < 0 || a.TeacherIdx != b.TeacherIdx {
			return
		}
		if a.SubjectCode != b.SubjectCode || a.SectionIdx == b.SectionIdx {
			return
		}
		if s.Slot(a).Day == s.Slot(b).Day {
			total++
		}
	})
	return total
}

// nonMajorPatternBreaks enforces the repeating weekly grid for non-major
// subjects: repeated sessions for one teacher and section must share a
// start time and sit on different days.
func nonMajorPatternBreaks(s *Solution) int {
	total := 0
	forAssignedPairs(s, func(a, b *Allocation) {
		if a.Major || b.Major {
			return
		}
		if a.SubjectCode != b.SubjectCode || a.TeacherIdx != b.TeacherIdx || a.SectionIdx != b.SectionIdx {
			return
		}
		sameStart := s.Slot(a).Start == s.Slot(b).Start
		sameDay := s.Slot(a).Day == s.Slot(b).Day
		if !sameStart || sameDay {
			total++
		}
	})
	return total
}

func nonMajorSharedStarts(s *Solution) int {
	total := 0
	forAssignedPairs(s, func(a, b *Allocation) {
		if a.Major || b.Major || a.Pinned || b.Pinned {
			return
		}
		if a.SubjectCode == b.SubjectCode {
			return
		}
		if s.Slot(a).Start == s.Slot(b).Start && s.Slot(a).Day != s.Slot(b).Day {
			total++
		}
	})
	return total
}

func sequentialMajorPairs(s *Solution) int {
	total := 0
	forAssignedPairs(s, func(a, b *Allocation) {
		if !a.Major || !b.Major || a.SubjectCode != b.SubjectCode {
			return
		}
		if s.Slot(a).Day != s.Slot(b).Day {
			return
		}
		if s.End(a) == s.Start(b) || s.End(b) == s.Start(a) {
			total++
		}
	})
	return total
}

func lateStartCount(s *Solution) int {
	total := 0
	for _, a := range s.Allocations {
		if a.Pinned || !a.Assigned() {
			continue
		}
		if s.Start(a) > lateEveningStart {
			total++
		}
	}
	return total
}

// utilizationPenalty prefers rooms filled to 50-90% of capacity, tolerates
// 30-100%, and penalizes everything else harder.
func utilizationPenalty(s *Solution) int {
	total := 0
	for _, a := range s.Allocations {
		if a.Pinned || a.RoomIdx < 0 || a.SectionIdx < 0 {
			continue
		}
		capacity := s.Classrooms[a.RoomIdx].Capacity
		if capacity == 0 {
			total += softPenaltyNoCapacity
			continue
		}
		utilization := float64(s.Sections[a.SectionIdx].Students) / float64(capacity)
		switch {
		case utilization >= 0.5 && utilization <= 0.9:
		case utilization >= 0.3 && utilization <= 1.0:
			total += softPenaltyAcceptable
		default:
			total += softPenaltyUtilization
		}
	}
	return total
}

// pairOverlaps applies the canonical overlap test to two assigned sessions
// on the same day.
func pairOverlaps(s *Solution, a, b *Allocation) bool {
	if s.Start(a) == s.Start(b) {
		return true
	}
	first, second := a, b
	if s.Start(b) < s.Start(a) {
		first, second = b, a
	}
	return s.Start(second) < s.End(first)
}

// forAssignedPairs visits every unordered pair of assigned allocations once.
func forAssignedPairs(s *Solution, fn func(a, b *Allocation)) {
	for i := 0; i < len(s.Allocations); i++ {
		if !s.Allocations[i].Assigned() {
			continue
		}
		for j := i + 1; j < len(s.Allocations); j++ {
			if !s.Allocations[j].Assigned() {
				continue
			}
			fn(s.Allocations[i], s.Allocations[j])
		}
	}
}
