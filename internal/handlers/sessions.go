package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"mailsearch/internal/models"
	"mailsearch/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HistoryHandler returns the full turn history of a session
// @Summary Get session history
// @Description Returns every conversation turn of a session in chronological order. Unknown sessions yield an empty history.
// @Tags sessions
// @Produce json
// @Param session_id path string true "Session identifier"
// @Success 200 {object} models.HistoryResponse
// @Failure 500 {object} models.HistoryResponse
// @Router /api/history/{session_id} [get]
func HistoryHandler(sessions *session.Manager, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID := c.Param("session_id")

		history, err := sessions.History(c.Request().Context(), sessionID)
		if err != nil {
			logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load session history")
			return c.JSON(http.StatusInternalServerError, models.HistoryResponse{
				SessionID: sessionID,
				History:   []models.ConversationTurn{},
			})
		}

		return c.JSON(http.StatusOK, models.HistoryResponse{
			SessionID: sessionID,
			History:   history,
		})
	}
}

// ResetHandler clears a session's history and continuation state
// @Summary Reset a session
// @Description Removes the session's history and continuation state together. The next turn starts a fresh conversation.
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body models.ResetRequest true "Reset request"
// @Success 200 {object} models.ResetResponse
// @Failure 400 {object} models.ResetResponse
// @Failure 500 {object} models.ResetResponse
// @Router /api/reset [post]
func ResetHandler(sessions *session.Manager, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ResetRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ResetResponse{
				Error: fmt.Sprintf("Invalid request body: %v", err),
			})
		}

		req.SessionID = strings.TrimSpace(req.SessionID)
		if req.SessionID == "" {
			return c.JSON(http.StatusBadRequest, models.ResetResponse{
				Error: "session_id cannot be empty",
			})
		}

		if err := sessions.Reset(c.Request().Context(), req.SessionID); err != nil {
			logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to reset session")
			return c.JSON(http.StatusInternalServerError, models.ResetResponse{
				Error: "Failed to reset session",
			})
		}

		return c.JSON(http.StatusOK, models.ResetResponse{
			Success: true,
		})
	}
}
