package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smartsched/smartsched-api/internal/models"
)

const scheduleColumns = `s.id, s.problem_id, s.subject_code, s.subject_name, s.teacher_id, t.name AS teacher_name,
	s.section_id, s.classroom_id, c.name AS classroom_name, s.day, s.start_time, s.end_time, s.created_at`

const scheduleJoins = `FROM schedules s
	LEFT JOIN teachers t ON t.id = s.teacher_id
	JOIN classrooms c ON c.id = s.classroom_id`

// ScheduleRepository manages persistence for published schedule entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListAll returns every published schedule entry with resolved names.
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s %s ORDER BY s.section_id, s.day, s.start_time", scheduleColumns, scheduleJoins)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return entries, nil
}

// ListBySection returns the published timetable of one section.
func (r *ScheduleRepository) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.section_id = $1 ORDER BY s.day, s.start_time", scheduleColumns, scheduleJoins)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, sectionID); err != nil {
		return nil, fmt.Errorf("list schedules for section %s: %w", sectionID, err)
	}
	return entries, nil
}

// ReplaceForSection atomically swaps a section's timetable for the newly
// solved one. Either every new row lands or the previous timetable stays
// untouched.
func (r *ScheduleRepository) ReplaceForSection(ctx context.Context, sectionID string, entries []models.ScheduleEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace schedules: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE section_id = $1`, sectionID); err != nil {
		return fmt.Errorf("delete schedules for section %s: %w", sectionID, err)
	}

	const insert = `INSERT INTO schedules (id, problem_id, subject_code, subject_name, teacher_id, section_id, classroom_id, day, start_time, end_time, created_at)
		VALUES (:id, :problem_id, :subject_code, :subject_name, :teacher_id, :section_id, :classroom_id, :day, :start_time, :end_time, :created_at)`
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insert, entries[i]); err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace schedules: %w", err)
	}
	return nil
}

// DeleteByProblemID removes every entry produced by one solve, used to back
// out a persisted result.
func (r *ScheduleRepository) DeleteByProblemID(ctx context.Context, problemID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE problem_id = $1`, problemID); err != nil {
		return fmt.Errorf("delete schedules for problem %s: %w", problemID, err)
	}
	return nil
}
