package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/notenpfad-api/internal/models"
	"github.com/noah-isme/notenpfad-api/pkg/response"
)

type chatService interface {
	Chat(ctx context.Context, actor *models.Actor, req models.ChatRequest) (*models.ChatResponse, error)
}

// ChatHandler passes questions to the assistant.
type ChatHandler struct {
	service chatService
}

// NewChatHandler constructs handler.
func NewChatHandler(svc chatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// Chat godoc
// @Summary Ask the learning assistant
// @Description Open endpoint. A valid bearer token adds the caller's grades to the assistant context.
// @Tags Assistant
// @Accept json
// @Produce json
// @Param payload body models.ChatRequest true "Chat payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if !bindJSON(c, &req, "chat") {
		return
	}
	reply, err := h.service.Chat(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}
