package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medrag/internal/domain"
	"medrag/internal/platform/logger"
	"medrag/internal/usecase"
)

type chatRequest struct {
	Query   string                    `json:"query"`
	History []domain.ConversationTurn `json:"history"`
}

type errorResponse struct {
	Error          string `json:"error"`
	Message        string `json:"message,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

type chatHandler struct {
	answerer Answerer
	log      *logger.Logger
}

func (h *chatHandler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: "query is required"})
		return
	}
	for _, turn := range req.History {
		if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
			c.JSON(http.StatusBadRequest, errorResponse{
				Error:   "invalid_request",
				Message: "history role must be user or assistant",
			})
			return
		}
	}

	result, err := h.answerer.Process(c.Request.Context(), req.Query, req.History)
	if err != nil {
		var se *usecase.SynthesisError
		if errors.As(err, &se) {
			resp := errorResponse{Error: "synthesis_failed", UpstreamStatus: se.StatusCode}
			if se.IsAuthFailure() {
				resp.Message = "the language model rejected the configured API key"
			}
			c.JSON(http.StatusBadGateway, resp)
			return
		}
		h.log.Error("chat failed", "request_id", c.GetString(requestIDKey), "error", err.Error())
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal_error"})
		return
	}

	c.JSON(http.StatusOK, result)
}
