package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/notenpfad-api/internal/dto"
	"github.com/noah-isme/notenpfad-api/internal/middleware"
	"github.com/noah-isme/notenpfad-api/internal/models"
	"github.com/noah-isme/notenpfad-api/pkg/response"
)

type gradeService interface {
	Create(ctx context.Context, actor *models.Actor, req models.CreateGradeRequest) (*models.Grade, error)
	List(ctx context.Context, actor *models.Actor, filter models.GradeFilter) (*models.GradeListing, error)
	Get(ctx context.Context, actor *models.Actor, id string) (*models.Grade, error)
	Delete(ctx context.Context, actor *models.Actor, id string) error
	Averages(ctx context.Context, actor *models.Actor, studentID string) (*models.StudentAverages, bool, error)
	Predict(ctx context.Context, actor *models.Actor, studentID string, req models.PredictionRequest) (*models.Prediction, error)
}

// PresentationConfig controls how derived figures are rendered.
type PresentationConfig struct {
	DisplayPrecision int
	PassThreshold    float64
}

// GradeHandler exposes grade and average endpoints.
type GradeHandler struct {
	service gradeService
	cfg     PresentationConfig
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(svc gradeService, cfg PresentationConfig) *GradeHandler {
	return &GradeHandler{service: svc, cfg: cfg}
}

// List godoc
// @Summary List grades with averages
// @Description Students always see their own grades. Averages cover each listed student's full grade set.
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Student ID (admin only)"
// @Param subjectId query string false "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeFilter{StudentID: queryStudentID(c), SubjectID: querySubjectID(c)}
	listing, err := h.service.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewGradeListResponse(listing, h.cfg.DisplayPrecision, h.cfg.PassThreshold), middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Record a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	var req models.CreateGradeRequest
	if !bindJSON(c, &req, "grade") {
		return
	}
	grade, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Get godoc
// @Summary Fetch a grade
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/{id} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	grade, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grade)
}

// Delete godoc
// @Summary Delete a grade
// @Tags Grades
// @Security BearerAuth
// @Param id path string true "Grade ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Averages godoc
// @Summary Averages of one student
// @Description Responds 404 NO_DATA when the student has no grades.
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Student ID (required for admin)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /averages [get]
func (h *GradeHandler) Averages(c *gin.Context) {
	avg, cacheHit, err := h.service.Averages(c.Request.Context(), actorFromContext(c), queryStudentID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.OK(c, dto.NewAveragesResponse(avg.StudentID, avg, h.cfg.DisplayPrecision, h.cfg.PassThreshold), middleware.ExtractMeta(c))
}

// Predict godoc
// @Summary Grade required to reach a target average
// @Description Target defaults to the pass threshold.
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Student ID (required for admin)"
// @Param payload body models.PredictionRequest true "Prediction payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /prediction [post]
func (h *GradeHandler) Predict(c *gin.Context) {
	var req models.PredictionRequest
	if !bindJSON(c, &req, "prediction") {
		return
	}
	prediction, err := h.service.Predict(c.Request.Context(), actorFromContext(c), queryStudentID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewPredictionResponse(prediction, h.cfg.DisplayPrecision))
}
