package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"graphchat/pkg/server/dto"
	"graphchat/pkg/transcript"
)

// SessionKey is the gin context key holding the resolved session ID.
const SessionKey = "session_id"

// TranscriptHandler serves and resets per-session history.
type TranscriptHandler struct {
	store transcript.Store
	log   *slog.Logger
}

// NewTranscriptHandler creates a new transcript handler.
func NewTranscriptHandler(store transcript.Store, log *slog.Logger) *TranscriptHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TranscriptHandler{store: store, log: log}
}

// Get handles GET /api/v1/transcript.
func (h *TranscriptHandler) Get(c *gin.Context) {
	sessionID := c.GetString(SessionKey)

	entries, err := h.store.All(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error("Transcript read failed", "session", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.Result{Error: "Could not load conversation history"})
		return
	}

	out := dto.TranscriptResponse{
		SessionID: sessionID,
		Entries:   make([]dto.TranscriptEntry, 0, len(entries)),
	}
	for _, e := range entries {
		item := dto.TranscriptEntry{
			ID:        e.ID,
			Role:      string(e.Role),
			Mode:      e.Mode,
			Text:      e.Text,
			Failed:    e.Failed,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if e.Context != "" {
			ctx := e.Context
			item.Context = &ctx
		}
		out.Entries = append(out.Entries, item)
	}
	c.JSON(http.StatusOK, out)
}

// Reset handles DELETE /api/v1/transcript.
func (h *TranscriptHandler) Reset(c *gin.Context) {
	sessionID := c.GetString(SessionKey)

	if err := h.store.Reset(c.Request.Context(), sessionID); err != nil {
		h.log.Error("Transcript reset failed", "session", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.Result{Error: "Could not reset conversation"})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true})
}
