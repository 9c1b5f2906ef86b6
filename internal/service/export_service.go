package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/smartsched/smartsched-api/internal/models"
	"github.com/smartsched/smartsched-api/internal/solver"
	appErrors "github.com/smartsched/smartsched-api/pkg/errors"
	"github.com/smartsched/smartsched-api/pkg/export"
)

type exportScheduleStore interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleEntry, error)
}

// ExportService renders a section timetable as a downloadable document.
type ExportService struct {
	schedules exportScheduleStore
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(schedules exportScheduleStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedules: schedules,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// ExportResult is a rendered document ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

var timetableHeaders = []string{"Day", "Start", "End", "Subject", "Teacher", "Classroom"}

// ExportSection renders the section's timetable in the requested format,
// csv or pdf.
func (s *ExportService) ExportSection(ctx context.Context, sectionID, format string) (*ExportResult, error) {
	entries, err := s.schedules.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section timetable")
	}
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no published timetable for section")
	}

	sortEntries(entries)

	dataset := export.Dataset{Headers: timetableHeaders}
	for _, e := range entries {
		row := map[string]string{
			"Day":     e.Day,
			"Start":   e.StartTime,
			"End":     e.EndTime,
			"Subject": fmt.Sprintf("%s %s", e.SubjectCode, e.SubjectName),
		}
		if e.TeacherName != nil {
			row["Teacher"] = *e.TeacherName
		}
		if e.Classroom != nil {
			row["Classroom"] = *e.Classroom
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	switch strings.ToLower(format) {
	case "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("timetable-%s.csv", sectionID),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(dataset, fmt.Sprintf("Class Schedule %s", sectionID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("timetable-%s.pdf", sectionID),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+format)
	}
}

// sortEntries orders sessions chronologically: weekday first, then start
// time. Unparseable values sort last so bad rows never hide good ones.
func sortEntries(entries []models.ScheduleEntry) {
	ordinal := func(e models.ScheduleEntry) (int, int) {
		dayRank := len(solver.Days)
		if day, ok := solver.ParseDay(e.Day); ok {
			for i, d := range solver.Days {
				if d == day {
					dayRank = i
					break
				}
			}
		}
		start, err := solver.ParseClock(e.StartTime)
		if err != nil {
			start = 24 * 60
		}
		return dayRank, start
	}
	sort.SliceStable(entries, func(i, j int) bool {
		di, si := ordinal(entries[i])
		dj, sj := ordinal(entries[j])
		if di != dj {
			return di < dj
		}
		return si < sj
	})
}
