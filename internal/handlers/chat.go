package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mailsearch/internal/models"
	"mailsearch/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ChatAgent processes one conversational search turn. It never fails: any
// internal error degrades to a fallback reply.
type ChatAgent interface {
	Chat(ctx context.Context, handle []byte, history []models.ConversationTurn) (string, []byte)
}

// ChatHandler handles conversational email search requests
// @Summary Search emails conversationally
// @Description Send a natural language prompt and get ranked email results, refining previous turns in the same session
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Chat request"
// @Success 200 {object} models.ChatResponse
// @Failure 400 {object} models.ChatResponse
// @Router /api/chat [post]
func ChatHandler(agent ChatAgent, sessions *session.Manager, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Parse request body
		var req models.ChatRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ChatResponse{
				Error: fmt.Sprintf("Invalid request body: %v", err),
			})
		}

		req.SessionID = strings.TrimSpace(req.SessionID)
		if req.SessionID == "" {
			return c.JSON(http.StatusBadRequest, models.ChatResponse{
				Error: "session_id cannot be empty",
			})
		}
		if strings.TrimSpace(req.Prompt) == "" {
			return c.JSON(http.StatusBadRequest, models.ChatResponse{
				Error: "prompt cannot be empty",
			})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
		defer cancel()

		// Record the user turn before processing so the history endpoint
		// reflects it even if this turn fails downstream.
		userTurn := models.ConversationTurn{Role: models.RoleUser, Content: req.Prompt}
		if err := sessions.Append(ctx, req.SessionID, userTurn); err != nil {
			logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to append user turn")
		}

		history, err := sessions.History(ctx, req.SessionID)
		if err != nil {
			logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to load session history")
			history = []models.ConversationTurn{userTurn}
		}

		handle, err := sessions.Handle(ctx, req.SessionID)
		if err != nil {
			logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to load continuation handle")
			handle = nil
		}

		reply, newHandle := agent.Chat(ctx, handle, history)

		if err := sessions.Append(ctx, req.SessionID, models.ConversationTurn{
			Role:    models.RoleAssistant,
			Content: reply,
		}); err != nil {
			logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to append assistant turn")
		}
		if err := sessions.SetHandle(ctx, req.SessionID, newHandle); err != nil {
			logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to store continuation handle")
		}

		return c.JSON(http.StatusOK, models.ChatResponse{
			Response: reply,
		})
	}
}
