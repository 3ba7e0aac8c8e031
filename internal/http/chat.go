package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhi9818/libris/internal/ai"
	"github.com/abhi9818/libris/internal/audit"
	"github.com/abhi9818/libris/internal/identity"
)

// Assistant is the recommendation chat contract the HTTP layer consumes.
type Assistant interface {
	Chat(ctx context.Context, query string, history []ai.ChatMessage) ai.ChatResult
}

type ChatController struct {
	assistant Assistant
	slots     *ai.Slots
	auditLog  *audit.Service
	sessions  *identity.SessionManager
}

func NewChatController(assistant Assistant, slots *ai.Slots, auditLog *audit.Service, sessions *identity.SessionManager) *ChatController {
	return &ChatController{
		assistant: assistant,
		slots:     slots,
		auditLog:  auditLog,
		sessions:  sessions,
	}
}

// ChatRequest is one user turn with prior conversation history.
type ChatRequest struct {
	Query   string           `json:"query"`
	History []ai.ChatMessage `json:"history"`
}

// Chat asks the assistant for recommendations. When a newer request from the
// same session supersedes this one while the assistant is thinking, the late
// response is discarded instead of being delivered out of order.
func (controller *ChatController) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondBadRequest(c, "query is required")
		return
	}

	caller := guestID(c, controller.sessions)
	if caller == "" {
		// No session layer: fall back to the client address so unrelated
		// clients never supersede each other's in-flight requests.
		caller = c.Request.RemoteAddr
	}
	slot := "chat:" + caller
	token := controller.slots.Begin(slot)

	result := controller.assistant.Chat(c.Request.Context(), req.Query, req.History)

	if !controller.slots.Current(slot, token) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "superseded by a newer message",
			Code:  "superseded",
		})
		return
	}

	if controller.auditLog != nil {
		controller.auditLog.LogChat(guestID(c, controller.sessions), nil)
	}

	c.JSON(http.StatusOK, result)
}
