// Package handlers implements the HTTP endpoints of the chat gateway.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"graphchat/pkg/dispatch"
	"graphchat/pkg/modes"
	"graphchat/pkg/render"
	"graphchat/pkg/server/dto"
	"graphchat/pkg/transcript"
)

// QueryHandler handles search query requests.
type QueryHandler struct {
	dispatcher *dispatch.Dispatcher
	renderer   *render.Renderer
	store      transcript.Store
	log        *slog.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(d *dispatch.Dispatcher, r *render.Renderer, store transcript.Store, log *slog.Logger) *QueryHandler {
	if log == nil {
		log = slog.Default()
	}
	return &QueryHandler{
		dispatcher: d,
		renderer:   r,
		store:      store,
		log:        log,
	}
}

// Query handles POST /api/v1/query.
func (h *QueryHandler) Query(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.QueryResponse{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	if err := req.Validate(); err != nil {
		msg := "Query cannot be empty"
		if errors.Is(err, dto.ErrQueryTooLong) {
			msg = "Query is too long"
		}
		c.JSON(http.StatusBadRequest, dto.QueryResponse{
			Success:    false,
			SearchType: req.SearchType,
			Query:      req.Query,
			Error:      msg,
		})
		return
	}

	// Missing search_type falls back to the broadest mode.
	if req.SearchType == "" {
		req.SearchType = string(modes.Global)
	}

	// An unparseable mode is passed through so the dispatcher produces
	// its canonical validation envelope.
	mode, err := modes.Parse(req.SearchType)
	if err != nil {
		mode = modes.Mode(req.SearchType)
	}

	resp := h.dispatcher.Dispatch(c.Request.Context(), dispatch.Request{
		Question: req.Query,
		Mode:     mode,
	})
	block := h.renderer.Render(resp)

	h.record(c, req, resp, block)

	out := dto.QueryResponse{
		Success:    resp.Succeeded,
		SearchType: string(resp.Mode),
		Query:      req.Query,
	}
	if resp.Succeeded {
		out.Response = block.Answer
		out.Context = block.Context
		c.JSON(http.StatusOK, out)
		return
	}

	out.Error = block.ErrorText
	status := http.StatusInternalServerError
	if resp.FailureKind == dispatch.FailureValidation {
		status = http.StatusBadRequest
	}
	c.JSON(status, out)
}

// record appends the user turn and its reply to the session transcript.
// Transcript failures are logged, never surfaced to the caller.
func (h *QueryHandler) record(c *gin.Context, req dto.QueryRequest, resp dispatch.Response, block render.Block) {
	if h.store == nil {
		return
	}
	sessionID := c.GetString(SessionKey)
	if sessionID == "" {
		return
	}

	userEntry := transcript.NewEntry(transcript.RoleUser, string(resp.Mode), req.Query)

	var reply transcript.Entry
	if resp.Succeeded {
		reply = transcript.NewEntry(transcript.RoleAssistant, string(resp.Mode), block.Answer)
		if block.Context != nil {
			reply.Context = *block.Context
		}
	} else {
		reply = transcript.NewEntry(transcript.RoleAssistant, string(resp.Mode), block.ErrorText)
		reply.Failed = true
	}

	if err := h.store.Append(c.Request.Context(), sessionID, userEntry, reply); err != nil {
		h.log.Error("Transcript append failed", "session", sessionID, "error", err)
	}
}
