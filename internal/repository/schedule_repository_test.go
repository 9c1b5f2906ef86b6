package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsched/smartsched-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "problem_id", "subject_code", "subject_name", "teacher_id", "teacher_name",
		"section_id", "classroom_id", "classroom_name", "day", "start_time", "end_time", "created_at",
	}).AddRow("sched-1", "prob-1", "IT201", "Data Structures", "teacher-1", "Reyes",
		"section-1", "room-1", "CL-201", "MONDAY", "08:00 AM", "09:30 AM", time.Now())
}

func TestScheduleRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM schedules s").WillReturnRows(scheduleRows())

	entries, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "IT201", entries[0].SubjectCode)
	assert.Equal(t, "MONDAY", entries[0].Day)
	require.NotNil(t, entries[0].TeacherName)
	assert.Equal(t, "Reyes", *entries[0].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListBySection(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM schedules s(.+)WHERE s.section_id = \\$1").
		WithArgs("section-1").
		WillReturnRows(scheduleRows())

	entries, err := repo.ListBySection(context.Background(), "section-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "section-1", entries[0].SectionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceForSection(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	teacherID := "teacher-1"
	entries := []models.ScheduleEntry{
		{ProblemID: "prob-1", SubjectCode: "IT201", SubjectName: "Data Structures", TeacherID: &teacherID,
			SectionID: "section-1", ClassroomID: "room-1", Day: "MONDAY", StartTime: "08:00 AM", EndTime: "09:30 AM"},
		{ProblemID: "prob-1", SubjectCode: "IT201", SubjectName: "Data Structures", TeacherID: &teacherID,
			SectionID: "section-1", ClassroomID: "room-1", Day: "TUESDAY", StartTime: "08:00 AM", EndTime: "09:30 AM"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM schedules WHERE section_id = \\$1").
		WithArgs("section-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForSection(context.Background(), "section-1", entries)
	require.NoError(t, err)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEmpty(t, entries[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceForSectionRollsBack(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM schedules WHERE section_id = \\$1").
		WithArgs("section-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schedules").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.ReplaceForSection(context.Background(), "section-1", []models.ScheduleEntry{
		{ProblemID: "prob-1", SubjectCode: "IT201", SectionID: "section-1", ClassroomID: "room-1",
			Day: "MONDAY", StartTime: "08:00 AM", EndTime: "09:30 AM"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDeleteByProblemID(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("DELETE FROM schedules WHERE problem_id = \\$1").
		WithArgs("prob-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteByProblemID(context.Background(), "prob-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
