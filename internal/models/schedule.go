package models

import "time"

// ScheduleEntry is one published class session. Day holds the upper-case
// day name and the clock fields the "08:00 AM" form, matching what clients
// render directly.
type ScheduleEntry struct {
	ID          string    `db:"id" json:"id"`
	ProblemID   string    `db:"problem_id" json:"problem_id"`
	SubjectCode string    `db:"subject_code" json:"subject_code"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	TeacherName *string   `db:"teacher_name" json:"teacher_name,omitempty"`
	SectionID   string    `db:"section_id" json:"section_id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	Classroom   *string   `db:"classroom_name" json:"classroom,omitempty"`
	Day         string    `db:"day" json:"day"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SolveState is the lifecycle of an asynchronous solve job.
type SolveState string

const (
	SolveStateNotSolving SolveState = "NOT_SOLVING"
	SolveStateScheduled  SolveState = "SOLVING_SCHEDULED"
	SolveStateActive     SolveState = "SOLVING"
)
