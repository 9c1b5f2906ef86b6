package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/smartsched/smartsched-api/internal/dto"
	"github.com/smartsched/smartsched-api/internal/models"
	appErrors "github.com/smartsched/smartsched-api/pkg/errors"
)

type timetableScheduleStore interface {
	ListAll(ctx context.Context) ([]models.ScheduleEntry, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleEntry, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TimetableService serves published timetables, with a cache in front of the
// per-section read path.
type TimetableService struct {
	schedules timetableScheduleStore
	cache     timetableCache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewTimetableService constructs a TimetableService. cache may be nil.
func NewTimetableService(schedules timetableScheduleStore, cache timetableCache, ttl time.Duration, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{schedules: schedules, cache: cache, ttl: ttl, logger: logger}
}

// ListAll returns every published schedule entry.
func (s *TimetableService) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	entries, err := s.schedules.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return entries, nil
}

// SectionTimetable returns one section's published timetable, consulting the
// cache first.
func (s *TimetableService) SectionTimetable(ctx context.Context, sectionID string) (*dto.SectionTimetable, error) {
	key := timetableCacheKey(sectionID)

	if s.cache != nil {
		var cached dto.SectionTimetable
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	entries, err := s.schedules.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section timetable")
	}

	timetable := &dto.SectionTimetable{
		SectionID: sectionID,
		Entries:   make([]dto.TimetableEntry, 0, len(entries)),
	}
	for _, e := range entries {
		entry := dto.TimetableEntry{
			ID:          e.ID,
			SubjectCode: e.SubjectCode,
			SubjectName: e.SubjectName,
			Day:         e.Day,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
		}
		if e.TeacherName != nil {
			entry.Teacher = *e.TeacherName
		}
		if e.Classroom != nil {
			entry.Classroom = *e.Classroom
		}
		timetable.Entries = append(timetable.Entries, entry)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, timetable, s.ttl); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return timetable, nil
}

func timetableCacheKey(sectionID string) string {
	return "timetable:" + sectionID
}
