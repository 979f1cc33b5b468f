package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/notenpfad-api/internal/models"
	"github.com/noah-isme/notenpfad-api/pkg/response"
)

type topicService interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Topic, error)
	Create(ctx context.Context, actor *models.Actor, req models.TopicRequest) (*models.Topic, error)
	Toggle(ctx context.Context, id string) (*models.Topic, error)
}

// TopicHandler serves the per-subject learning checklist.
type TopicHandler struct {
	service topicService
}

// NewTopicHandler constructs handler.
func NewTopicHandler(svc topicService) *TopicHandler {
	return &TopicHandler{service: svc}
}

// ListBySubject godoc
// @Summary Topics of a subject
// @Tags Topics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/topics [get]
func (h *TopicHandler) ListBySubject(c *gin.Context) {
	topics, err := h.service.ListBySubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, topics)
}

// Create godoc
// @Summary Create topic
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.TopicRequest true "Topic payload"
// @Success 201 {object} response.Envelope
// @Router /topics [post]
func (h *TopicHandler) Create(c *gin.Context) {
	var req models.TopicRequest
	if !bindJSON(c, &req, "topic") {
		return
	}
	topic, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, topic)
}

// Toggle godoc
// @Summary Toggle topic completion
// @Tags Topics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Topic ID"
// @Success 200 {object} response.Envelope
// @Router /topics/{id}/toggle [put]
func (h *TopicHandler) Toggle(c *gin.Context) {
	topic, err := h.service.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, topic)
}
