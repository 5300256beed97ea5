package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/response"
	"github.com/stemsi/exstem-progress/internal/service"
	"github.com/stemsi/exstem-progress/internal/validator"
)

const defaultPerPage = 50

// ReportHandler serves the latest report and triggers runs.
type ReportHandler struct {
	reportService *service.ReportService
	log           zerolog.Logger
}

func NewReportHandler(reportService *service.ReportService, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		log:           log.With().Str("component", "report_handler").Logger(),
	}
}

type studentListQuery struct {
	Major   string `form:"major" binding:"omitempty,max=64"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=500"`
}

type studentURI struct {
	CWID string `uri:"cwid" binding:"required,cwid,max=64"`
}

type diagnosticQuery struct {
	Kind string `form:"kind" binding:"omitempty,oneof=unknown_student unknown_instructor unknown_tag unknown_major malformed_source"`
}

type runQuery struct {
	RunID string `form:"run_id" binding:"omitempty,uuid"`
}

func (h *ReportHandler) latest(c *gin.Context) (*model.Report, bool) {
	report, err := h.reportService.Latest(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return nil, false
	}
	return report, true
}

// Report godoc
// GET /api/v1/report
func (h *ReportHandler) Report(c *gin.Context) {
	var q runQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if q.RunID != "" {
		report, err := h.reportService.ByID(c.Request.Context(), q.RunID)
		if err != nil {
			failFromError(c, h.log, err)
			return
		}
		response.Success(c, http.StatusOK, report)
		return
	}

	if report, ok := h.latest(c); ok {
		response.Success(c, http.StatusOK, report)
	}
}

// Majors godoc
// GET /api/v1/majors
func (h *ReportHandler) Majors(c *gin.Context) {
	if report, ok := h.latest(c); ok {
		response.Success(c, http.StatusOK, report.Majors)
	}
}

// Students godoc
// GET /api/v1/students?major=&page=&per_page=
func (h *ReportHandler) Students(c *gin.Context) {
	var q studentListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	report, ok := h.latest(c)
	if !ok {
		return
	}

	rows := report.Students
	if q.Major != "" {
		rows = make([]model.StudentRow, 0, len(report.Students))
		for _, s := range report.Students {
			if s.Major == q.Major {
				rows = append(rows, s)
			}
		}
	}

	page, perPage := q.Page, q.PerPage
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = defaultPerPage
	}

	total := len(rows)
	start := total
	if page-1 <= total/perPage {
		start = min((page-1)*perPage, total)
	}
	end := min(start+perPage, total)

	response.SuccessWithPagination(c, http.StatusOK, rows[start:end], &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// Student godoc
// GET /api/v1/students/:cwid
func (h *ReportHandler) Student(c *gin.Context) {
	var uri studentURI
	if fields := validator.BindURI(c, &uri); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidID, fields)
		return
	}

	row, err := h.reportService.Student(c.Request.Context(), uri.CWID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, row)
}

// Instructors godoc
// GET /api/v1/instructors
func (h *ReportHandler) Instructors(c *gin.Context) {
	if report, ok := h.latest(c); ok {
		response.Success(c, http.StatusOK, report.Instructors)
	}
}

// Diagnostics godoc
// GET /api/v1/diagnostics?kind=
func (h *ReportHandler) Diagnostics(c *gin.Context) {
	var q diagnosticQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	report, ok := h.latest(c)
	if !ok {
		return
	}

	diags := report.Diagnostics
	if q.Kind != "" {
		diags = make([]model.Diagnostic, 0, len(report.Diagnostics))
		for _, d := range report.Diagnostics {
			if string(d.Kind) == q.Kind {
				diags = append(diags, d)
			}
		}
	}
	response.Success(c, http.StatusOK, diags)
}

// InstructorSummary godoc
// GET /api/v1/instructors/summary?run_id=
func (h *ReportHandler) InstructorSummary(c *gin.Context) {
	var q runQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	runID, rows, err := h.reportService.InstructorSummary(c.Request.Context(), q.RunID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"run_id": runID, "instructors": rows})
}

// TriggerRun godoc
// POST /api/v1/admin/runs
func (h *ReportHandler) TriggerRun(c *gin.Context) {
	var req model.RunRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	report, err := h.reportService.Run(c.Request.Context(), req, nil)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"run_id":       report.RunID,
		"generated_at": report.GeneratedAt,
		"students":     len(report.Students),
		"instructors":  len(report.Faculty),
		"majors":       len(report.Majors),
		"diagnostics":  report.Diagnostics,
	})
}
