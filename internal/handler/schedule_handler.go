package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartsched/smartsched-api/internal/dto"
	"github.com/smartsched/smartsched-api/internal/service"
	appErrors "github.com/smartsched/smartsched-api/pkg/errors"
	"github.com/smartsched/smartsched-api/pkg/response"
)

// ScheduleHandler manages timetable solving and retrieval endpoints.
type ScheduleHandler struct {
	scheduling *service.SchedulingService
	timetables *service.TimetableService
	exports    *service.ExportService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(scheduling *service.SchedulingService, timetables *service.TimetableService, exports *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{scheduling: scheduling, timetables: timetables, exports: exports}
}

// Solve godoc
// @Summary Start an asynchronous timetable solve for a section
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body dto.SolveRequest true "Solve request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/solve [post]
func (h *ScheduleHandler) Solve(c *gin.Context) {
	var req dto.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	resp, err := h.scheduling.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, resp, nil)
}

// Status godoc
// @Summary Poll the status of a solve job
// @Tags Schedules
// @Produce json
// @Param problemId path string true "Problem ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/status/{problemId} [get]
func (h *ScheduleHandler) Status(c *gin.Context) {
	status := h.scheduling.Status(c.Request.Context(), c.Param("problemId"))
	response.JSON(c, http.StatusOK, status, nil)
}

// Cancel godoc
// @Summary Cancel an in-flight solve job
// @Tags Schedules
// @Produce json
// @Param problemId path string true "Problem ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/solve/{problemId} [delete]
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	if err := h.scheduling.Cancel(c.Request.Context(), c.Param("problemId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List every published schedule entry
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	entries, err := h.timetables.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// BySection godoc
// @Summary Get one section's published timetable
// @Tags Schedules
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/section/{id} [get]
func (h *ScheduleHandler) BySection(c *gin.Context) {
	timetable, err := h.timetables.SectionTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Export godoc
// @Summary Download a section timetable as CSV or PDF
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Section ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/export/section/{id} [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	result, err := h.exports.ExportSection(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
