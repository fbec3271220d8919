package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"graphchat/pkg/modes"
	"graphchat/pkg/server/dto"
)

// MetaContent is the static copy shown by chat frontends.
type MetaContent struct {
	Title          string
	Subtitle       string
	ExampleQueries []string
	DataSources    []string
}

// MetaHandler serves UI metadata: static copy plus the registered search
// modes.
type MetaHandler struct {
	content MetaContent
}

// NewMetaHandler creates a new meta handler.
func NewMetaHandler(content MetaContent) *MetaHandler {
	return &MetaHandler{content: content}
}

// Meta handles GET /api/v1/meta.
func (h *MetaHandler) Meta(c *gin.Context) {
	specs := modes.All()
	types := make([]dto.SearchTypeInfo, 0, len(specs))
	for _, spec := range specs {
		types = append(types, dto.SearchTypeInfo{
			Name:        string(spec.Mode),
			Label:       spec.Label,
			Description: spec.Description,
		})
	}

	c.JSON(http.StatusOK, dto.MetaResponse{
		Title:          h.content.Title,
		Subtitle:       h.content.Subtitle,
		SearchTypes:    types,
		ExampleQueries: h.content.ExampleQueries,
		DataSources:    h.content.DataSources,
	})
}
