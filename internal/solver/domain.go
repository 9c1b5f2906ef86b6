package solver

// Facts are held in arenas on the Solution and addressed by index so that
// allocations never alias mutable records. Index -1 means "none".

// Teacher is an instructor fact.
type Teacher struct {
	ID         string
	Name       string
	Department string
}

// Classroom is a room fact. Type is a free-text tag such as "Lecture Room",
// "Laboratory" or "Computer Laboratory" used by room-capability rules.
type Classroom struct {
	ID       string
	Name     string
	Capacity int
	Type     string
}

// Section is a student cohort fact.
type Section struct {
	ID       string
	Program  string
	Year     int
	Label    string
	Students int
}

// Allocation is one schedulable class session. SlotIdx and RoomIdx are the
// only fields the search mutates, and only when Pinned is false.
type Allocation struct {
	ID          int64
	SubjectCode string
	SubjectName string
	TeacherIdx  int // -1 when the session has no assigned instructor
	SectionIdx  int
	DurationMin int
	Major       bool
	Pinned      bool

	SlotIdx int // index into Solution.Timeslots, -1 unassigned
	RoomIdx int // index into Solution.Classrooms, -1 unassigned
}

// Assigned reports whether the allocation holds a timeslot.
func (a *Allocation) Assigned() bool { return a.SlotIdx >= 0 }

// Solution is the full scheduling problem: immutable fact arenas plus the
// allocation set the solver assigns.
type Solution struct {
	Timeslots  []Timeslot
	Classrooms []Classroom
	Teachers   []Teacher
	Sections   []Section

	Allocations []*Allocation
}

// Slot returns the timeslot assigned to alloc, or nil.
func (s *Solution) Slot(a *Allocation) *Timeslot {
	if a.SlotIdx < 0 {
		return nil
	}
	return &s.Timeslots[a.SlotIdx]
}

// Room returns the classroom assigned to alloc, or nil.
func (s *Solution) Room(a *Allocation) *Classroom {
	if a.RoomIdx < 0 {
		return nil
	}
	return &s.Classrooms[a.RoomIdx]
}

// Start returns the assigned start in minutes from midnight, or -1.
func (s *Solution) Start(a *Allocation) int {
	if a.SlotIdx < 0 {
		return -1
	}
	return s.Timeslots[a.SlotIdx].Start
}

// End returns start plus duration, or -1 when unassigned.
func (s *Solution) End(a *Allocation) int {
	if a.SlotIdx < 0 {
		return -1
	}
	return s.Timeslots[a.SlotIdx].Start + a.DurationMin
}

// Movable lists the allocations the solver may reassign, in id order.
func (s *Solution) Movable() []*Allocation {
	var out []*Allocation
	for _, a := range s.Allocations {
		if !a.Pinned {
			out = append(out, a)
		}
	}
	return out
}

// assignment snapshots the mutable state of every allocation so the search
// can retain and restore the best solution seen.
type assignment struct {
	slots []int
	rooms []int
}

func captureAssignment(s *Solution) assignment {
	snap := assignment{
		slots: make([]int, len(s.Allocations)),
		rooms: make([]int, len(s.Allocations)),
	}
	for i, a := range s.Allocations {
		snap.slots[i] = a.SlotIdx
		snap.rooms[i] = a.RoomIdx
	}
	return snap
}

func restoreAssignment(s *Solution, snap assignment) {
	for i, a := range s.Allocations {
		a.SlotIdx = snap.slots[i]
		a.RoomIdx = snap.rooms[i]
	}
}
