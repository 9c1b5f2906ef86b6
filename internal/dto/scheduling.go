package dto

// SubjectInput captures one subject's weekly demand for the target section.
type SubjectInput struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	TeacherID   string `json:"teacherId" validate:"omitempty"`
	WeeklyHours int    `json:"weeklyHours" validate:"required,min=1,max=12"`
	Major       bool   `json:"major"`
}

// SolveRequest asks for a timetable solve for one section.
type SolveRequest struct {
	SectionID string         `json:"sectionId" validate:"required"`
	Subjects  []SubjectInput `json:"subjects" validate:"required,min=1,dive"`
}

// SolveResponse acknowledges an accepted solve job.
type SolveResponse struct {
	ProblemID string `json:"problemId"`
	Status    string `json:"status"`
}

// SolveStatusResponse reports the lifecycle state of a solve job.
type SolveStatusResponse struct {
	ProblemID string `json:"problemId"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	HardScore *int   `json:"hardScore,omitempty"`
	SoftScore *int   `json:"softScore,omitempty"`
	Skipped   int    `json:"skippedSessions,omitempty"`
}

// TimetableEntry is one rendered session of a section timetable.
type TimetableEntry struct {
	ID          string `json:"id"`
	SubjectCode string `json:"subjectCode"`
	SubjectName string `json:"subjectName"`
	Teacher     string `json:"teacher,omitempty"`
	Classroom   string `json:"classroom,omitempty"`
	Day         string `json:"day"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// SectionTimetable groups a section's published sessions for rendering.
type SectionTimetable struct {
	SectionID string           `json:"sectionId"`
	Entries   []TimetableEntry `json:"entries"`
}
