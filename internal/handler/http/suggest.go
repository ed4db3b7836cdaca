package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collaborative-codepad/internal/service"
)

// SuggestHandler exposes the autocomplete endpoint. Requests bypass the
// session registry entirely; each call is stateless.
type SuggestHandler struct {
	suggest *service.SuggestService
}

// NewSuggestHandler creates a SuggestHandler.
func NewSuggestHandler(suggest *service.SuggestService) *SuggestHandler {
	if suggest == nil {
		panic("SuggestService cannot be nil for SuggestHandler")
	}
	return &SuggestHandler{suggest: suggest}
}

// AutocompleteRequest is the autocomplete request body.
type AutocompleteRequest struct {
	Code           string `json:"code"`
	CursorPosition int    `json:"cursorPosition"`
	Language       string `json:"language" binding:"required"`
}

// Autocomplete handles POST /api/autocomplete.
func (h *SuggestHandler) Autocomplete(c *gin.Context) {
	var req AutocompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Invalid autocomplete request body")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: language is required")
		return
	}

	result, err := h.suggest.Suggest(req.Code, req.CursorPosition, req.Language)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, result)
}
