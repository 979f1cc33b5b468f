package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/notenpfad-api/internal/models"
	"github.com/noah-isme/notenpfad-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, actor *models.Actor) ([]models.Student, error)
	Get(ctx context.Context, actor *models.Actor, id string) (*models.Student, error)
	Create(ctx context.Context, actor *models.Actor, req models.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, actor *models.Actor, id string, req models.StudentRequest) (*models.Student, error)
	Delete(ctx context.Context, actor *models.Actor, id string) error
	Reset(ctx context.Context, actor *models.Actor, id string) (*models.ResetResult, error)
}

type reportService interface {
	StudentReport(ctx context.Context, actor *models.Actor, studentID string, format models.ReportFormat) (*models.ReportFile, error)
}

// StudentHandler manages student endpoints.
type StudentHandler struct {
	service studentService
	reports reportService
}

// NewStudentHandler constructs handler.
func NewStudentHandler(svc studentService, reports reportService) *StudentHandler {
	return &StudentHandler{service: svc, reports: reports}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.service.List(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req models.StudentRequest
	if !bindJSON(c, &req, "student") {
		return
	}
	student, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Rename student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req models.StudentRequest
	if !bindJSON(c, &req, "student") {
		return
	}
	student, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Delete godoc
// @Summary Delete student
// @Description Rejected with 409 while the student has grades.
// @Tags Students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reset godoc
// @Summary Reset student progress
// @Description Deletes all grades of the student and marks every topic open.
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/reset [post]
func (h *StudentHandler) Reset(c *gin.Context) {
	result, err := h.service.Reset(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Report godoc
// @Summary Download report card
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/report [get]
func (h *StudentHandler) Report(c *gin.Context) {
	format := models.ReportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(models.ReportFormatCSV)))))
	file, err := h.reports.StudentReport(c.Request.Context(), actorFromContext(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
