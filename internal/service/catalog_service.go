package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/smartsched/smartsched-api/internal/models"
	appErrors "github.com/smartsched/smartsched-api/pkg/errors"
)

type catalogTeacherStore interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Teacher, int, error)
}

type catalogClassroomStore interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Classroom, int, error)
}

type catalogSectionStore interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Section, int, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

// CatalogService serves the scheduling fact catalogs.
type CatalogService struct {
	teachers   catalogTeacherStore
	classrooms catalogClassroomStore
	sections   catalogSectionStore
	logger     *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(teachers catalogTeacherStore, classrooms catalogClassroomStore, sections catalogSectionStore, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{teachers: teachers, classrooms: classrooms, sections: sections, logger: logger}
}

// ListTeachers returns a page of teachers.
func (s *CatalogService) ListTeachers(ctx context.Context, filter models.CatalogFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, paginate(filter, total), nil
}

// ListClassrooms returns a page of classrooms.
func (s *CatalogService) ListClassrooms(ctx context.Context, filter models.CatalogFilter) ([]models.Classroom, *models.Pagination, error) {
	classrooms, total, err := s.classrooms.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return classrooms, paginate(filter, total), nil
}

// ListSections returns a page of sections.
func (s *CatalogService) ListSections(ctx context.Context, filter models.CatalogFilter) ([]models.Section, *models.Pagination, error) {
	sections, total, err := s.sections.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, paginate(filter, total), nil
}

// FindSection fetches one section.
func (s *CatalogService) FindSection(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch section")
	}
	return section, nil
}

func paginate(filter models.CatalogFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
