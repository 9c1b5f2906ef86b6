package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartsched/smartsched-api/internal/dto"
	"github.com/smartsched/smartsched-api/internal/models"
	"github.com/smartsched/smartsched-api/internal/solver"
	"github.com/smartsched/smartsched-api/pkg/config"
	appErrors "github.com/smartsched/smartsched-api/pkg/errors"
	"github.com/smartsched/smartsched-api/pkg/jobs"
)

type schedulingScheduleStore interface {
	ListAll(ctx context.Context) ([]models.ScheduleEntry, error)
	ReplaceForSection(ctx context.Context, sectionID string, entries []models.ScheduleEntry) error
	DeleteByProblemID(ctx context.Context, problemID string) error
}

type schedulingTeacherStore interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
}

type schedulingClassroomStore interface {
	ListAll(ctx context.Context) ([]models.Classroom, error)
}

type schedulingSectionStore interface {
	ListAll(ctx context.Context) ([]models.Section, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type timetableInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type solveObserver interface {
	ObserveSolve(outcome string, duration time.Duration)
}

// solveStatus tracks one problem id through its lifecycle. Terminal results
// keep their scores and message so status polling after completion stays
// meaningful.
type solveStatus struct {
	state     models.SolveState
	message   string
	hardScore *int
	softScore *int
	skipped   int
	cancel    context.CancelFunc
}

type solvePayload struct {
	ProblemID string
	Request   dto.SolveRequest
}

// SchedulingService coordinates asynchronous timetable solves: it validates
// requests, runs the solver on a worker queue, persists accepted results and
// serves status polls.
type SchedulingService struct {
	schedules  schedulingScheduleStore
	teachers   schedulingTeacherStore
	classrooms schedulingClassroomStore
	sections   schedulingSectionStore
	cache      timetableInvalidator
	metrics    solveObserver

	cfg       config.SolverConfig
	validator *validator.Validate
	logger    *zap.Logger

	queue *jobs.Queue

	mu             sync.RWMutex
	statuses       map[string]*solveStatus
	activeSections map[string]string // section id -> problem id
}

// NewSchedulingService wires the coordinator. cache and metrics may be nil.
func NewSchedulingService(
	schedules schedulingScheduleStore,
	teachers schedulingTeacherStore,
	classrooms schedulingClassroomStore,
	sections schedulingSectionStore,
	cache timetableInvalidator,
	metrics solveObserver,
	cfg config.SolverConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *SchedulingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &SchedulingService{
		schedules:      schedules,
		teachers:       teachers,
		classrooms:     classrooms,
		sections:       sections,
		cache:          cache,
		metrics:        metrics,
		cfg:            cfg,
		validator:      validate,
		logger:         logger,
		statuses:       make(map[string]*solveStatus),
		activeSections: make(map[string]string),
	}
	s.queue = jobs.NewQueue("solver", s.handleSolveJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// Start launches the solver worker pool.
func (s *SchedulingService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *SchedulingService) Stop() {
	s.queue.Stop()
}

// Submit validates a solve request, registers a problem id and enqueues the
// solve. Validation failures and unknown sections are rejected before the
// job is accepted.
func (s *SchedulingService) Submit(ctx context.Context, req dto.SolveRequest) (*dto.SolveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve request")
	}

	if _, err := s.sections.FindByID(ctx, req.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch section")
	}

	problemID := uuid.NewString()

	s.mu.Lock()
	if running, ok := s.activeSections[req.SectionID]; ok {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrSolveInProgress, "a solve is already running for section, problem "+running)
	}
	s.statuses[problemID] = &solveStatus{state: models.SolveStateScheduled}
	s.activeSections[req.SectionID] = problemID
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:      problemID,
		Type:    "solve",
		Payload: solvePayload{ProblemID: problemID, Request: req},
	})
	if err != nil {
		s.clearProblem(problemID, req.SectionID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue solve")
	}

	s.logger.Info("solve scheduled",
		zap.String("problem_id", problemID),
		zap.String("section_id", req.SectionID),
		zap.Int("subjects", len(req.Subjects)),
	)
	return &dto.SolveResponse{ProblemID: problemID, Status: string(models.SolveStateScheduled)}, nil
}

// Status reports the lifecycle state of a problem id. Unknown ids report
// NOT_SOLVING, the same terminal state a finished solve reaches.
func (s *SchedulingService) Status(_ context.Context, problemID string) *dto.SolveStatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[problemID]
	if !ok {
		return &dto.SolveStatusResponse{ProblemID: problemID, Status: string(models.SolveStateNotSolving)}
	}
	return &dto.SolveStatusResponse{
		ProblemID: problemID,
		Status:    string(st.state),
		Message:   st.message,
		HardScore: st.hardScore,
		SoftScore: st.softScore,
		Skipped:   st.skipped,
	}
}

// Cancel aborts an in-flight solve. The partial result is discarded.
func (s *SchedulingService) Cancel(_ context.Context, problemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[problemID]
	if !ok || st.state == models.SolveStateNotSolving {
		return appErrors.Clone(appErrors.ErrNotFound, "no active solve for problem id")
	}
	if st.cancel != nil {
		st.cancel()
	}
	st.state = models.SolveStateNotSolving
	st.message = "solve cancelled"
	return nil
}

func (s *SchedulingService) handleSolveJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(solvePayload)
	if !ok {
		s.logger.Error("unexpected job payload", zap.String("job_id", job.ID))
		return nil
	}

	started := time.Now()
	outcome := s.runSolve(ctx, payload)
	if s.metrics != nil {
		s.metrics.ObserveSolve(outcome, time.Since(started))
	}

	s.mu.Lock()
	delete(s.activeSections, payload.Request.SectionID)
	s.mu.Unlock()
	return nil
}

// runSolve executes the full pipeline for one problem and returns an outcome
// label for instrumentation.
func (s *SchedulingService) runSolve(ctx context.Context, payload solvePayload) string {
	problemID := payload.ProblemID
	req := payload.Request

	solveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	st := s.statuses[problemID]
	if st == nil {
		st = &solveStatus{}
		s.statuses[problemID] = st
	}
	st.state = models.SolveStateActive
	st.cancel = cancel
	s.mu.Unlock()

	solution, report, err := s.buildProblem(solveCtx, req)
	if err != nil {
		s.finishSolve(problemID, nil, solver.Score{}, 0, err)
		return "build_failed"
	}

	engine := solver.New(solver.Config{
		TimeLimit:       s.cfg.TimeLimit,
		MaxSteps:        s.cfg.MaxSteps,
		UnimprovedLimit: s.cfg.UnimprovedLimit,
		Seed:            s.cfg.Seed,
	}, s.logger)

	if _, err := engine.Solve(solveCtx, solution); err != nil {
		s.finishSolve(problemID, nil, solver.Score{}, report.Skipped, err)
		return "cancelled"
	}

	score, err := solver.Finalize(solution, s.logger)
	if err != nil {
		s.finishSolve(problemID, nil, score, report.Skipped, err)
		return "infeasible"
	}

	// A Cancel can land after the search returned but before the result is
	// written; a cancelled solve's result is discarded, never published.
	s.mu.RLock()
	interrupted := st.state != models.SolveStateActive
	s.mu.RUnlock()
	if interrupted || solveCtx.Err() != nil {
		s.finishSolve(problemID, nil, score, report.Skipped, context.Canceled)
		return "cancelled"
	}

	entries := s.renderEntries(problemID, req.SectionID, solution)
	if err := s.schedules.ReplaceForSection(ctx, req.SectionID, entries); err != nil {
		// Roll back anything the failed replace may have left behind.
		if cleanupErr := s.schedules.DeleteByProblemID(ctx, problemID); cleanupErr != nil {
			s.logger.Error("failed to clean up after persist failure",
				zap.String("problem_id", problemID), zap.Error(cleanupErr))
		}
		s.finishSolve(problemID, nil, score, report.Skipped, err)
		return "persist_failed"
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "timetable:"+req.SectionID+"*"); err != nil {
			s.logger.Warn("failed to invalidate timetable cache",
				zap.String("section_id", req.SectionID), zap.Error(err))
		}
	}

	s.finishSolve(problemID, entries, score, report.Skipped, nil)
	s.logger.Info("solve complete",
		zap.String("problem_id", problemID),
		zap.String("section_id", req.SectionID),
		zap.Int("sessions", len(entries)),
		zap.Int("hard", score.Hard),
		zap.Int("soft", score.Soft),
		zap.Int("skipped", report.Skipped),
	)
	return "solved"
}

// buildProblem loads all facts and assembles the solver input.
func (s *SchedulingService) buildProblem(ctx context.Context, req dto.SolveRequest) (*solver.Solution, solver.BuildReport, error) {
	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, solver.BuildReport{}, err
	}
	classrooms, err := s.classrooms.ListAll(ctx)
	if err != nil {
		return nil, solver.BuildReport{}, err
	}
	sections, err := s.sections.ListAll(ctx)
	if err != nil {
		return nil, solver.BuildReport{}, err
	}
	published, err := s.schedules.ListAll(ctx)
	if err != nil {
		return nil, solver.BuildReport{}, err
	}

	factTeachers := make([]solver.Teacher, len(teachers))
	for i, t := range teachers {
		factTeachers[i] = solver.Teacher{ID: t.ID, Name: t.Name, Department: t.Department}
	}
	factRooms := make([]solver.Classroom, len(classrooms))
	for i, c := range classrooms {
		factRooms[i] = solver.Classroom{ID: c.ID, Name: c.Name, Capacity: c.Capacity, Type: c.Type}
	}
	factSections := make([]solver.Section, len(sections))
	for i, sec := range sections {
		factSections[i] = solver.Section{ID: sec.ID, Program: sec.Program, Year: sec.Year, Label: sec.Label, Students: sec.Students}
	}
	factSessions := make([]solver.PublishedSession, len(published))
	for i, e := range published {
		teacherID := ""
		if e.TeacherID != nil {
			teacherID = *e.TeacherID
		}
		factSessions[i] = solver.PublishedSession{
			ID:          e.ID,
			SubjectCode: e.SubjectCode,
			SubjectName: e.SubjectName,
			TeacherID:   teacherID,
			SectionID:   e.SectionID,
			ClassroomID: e.ClassroomID,
			Day:         e.Day,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
		}
	}

	requests := make([]solver.SessionRequest, len(req.Subjects))
	for i, subject := range req.Subjects {
		requests[i] = solver.SessionRequest{
			SubjectCode: subject.Code,
			SubjectName: subject.Name,
			TeacherID:   subject.TeacherID,
			WeeklyHours: subject.WeeklyHours,
			Major:       subject.Major,
		}
	}

	return solver.BuildAllocations(req.SectionID, requests, factTeachers, factRooms, factSections, factSessions, s.logger)
}

// renderEntries converts the target section's solved allocations back into
// persistable schedule rows.
func (s *SchedulingService) renderEntries(problemID, sectionID string, solution *solver.Solution) []models.ScheduleEntry {
	var entries []models.ScheduleEntry
	for _, a := range solution.Allocations {
		if a.Pinned || !a.Assigned() {
			continue
		}
		slot := solution.Slot(a)
		entry := models.ScheduleEntry{
			ProblemID:   problemID,
			SubjectCode: a.SubjectCode,
			SubjectName: a.SubjectName,
			SectionID:   sectionID,
			ClassroomID: solution.Classrooms[a.RoomIdx].ID,
			Day:         solver.DayName(slot.Day),
			StartTime:   solver.FormatClock(slot.Start),
			EndTime:     solver.FormatClock(slot.Start + a.DurationMin),
		}
		if a.TeacherIdx >= 0 {
			id := solution.Teachers[a.TeacherIdx].ID
			entry.TeacherID = &id
		}
		entries = append(entries, entry)
	}
	return entries
}

// finishSolve records the terminal state of a problem.
func (s *SchedulingService) finishSolve(problemID string, entries []models.ScheduleEntry, score solver.Score, skipped int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statuses[problemID]
	if st == nil {
		return
	}
	st.state = models.SolveStateNotSolving
	st.cancel = nil
	st.skipped = skipped

	switch {
	case err == nil:
		hard, soft := score.Hard, score.Soft
		st.hardScore, st.softScore = &hard, &soft
		st.message = "schedule published"
	case errors.Is(err, solver.ErrInfeasible):
		hard, soft := score.Hard, score.Soft
		st.hardScore, st.softScore = &hard, &soft
		st.message = appErrors.ErrInfeasible.Message
	case errors.Is(err, solver.ErrSectionNotFound):
		st.message = "section disappeared during solve"
	case errors.Is(err, context.Canceled):
		st.message = "solve cancelled"
	default:
		st.message = "solve failed: " + err.Error()
	}
	if err != nil {
		s.logger.Warn("solve did not publish",
			zap.String("problem_id", problemID),
			zap.String("reason", st.message),
		)
	}
}

func (s *SchedulingService) clearProblem(problemID, sectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, problemID)
	if s.activeSections[sectionID] == problemID {
		delete(s.activeSections, sectionID)
	}
}
