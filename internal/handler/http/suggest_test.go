package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborative-codepad/internal/service"
)

func newSuggestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewSuggestHandler(service.NewSuggestService())
	router.POST("/api/autocomplete", handler.Autocomplete)
	return router
}

func postAutocomplete(t *testing.T, router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/autocomplete", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAutocompleteReturnsSuggestion(t *testing.T) {
	router := newSuggestRouter()

	w := postAutocomplete(t, router, gin.H{
		"code":           "def ",
		"cursorPosition": 4,
		"language":       "python",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp service.Suggestion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "def function_name(param1, param2):\n    pass", resp.Suggestion)
	assert.NotEmpty(t, resp.Alternatives)
}

func TestAutocompleteNoMatchReturnsEmptyList(t *testing.T) {
	router := newSuggestRouter()

	w := postAutocomplete(t, router, gin.H{
		"code":           "zzz",
		"cursorPosition": 3,
		"language":       "python",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"allSuggestions":[]`)
}

func TestAutocompleteRequiresLanguage(t *testing.T) {
	router := newSuggestRouter()

	w := postAutocomplete(t, router, gin.H{
		"code":           "def ",
		"cursorPosition": 4,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestAutocompleteRejectsUnsupportedLanguage(t *testing.T) {
	router := newSuggestRouter()

	w := postAutocomplete(t, router, gin.H{
		"code":           "def ",
		"cursorPosition": 4,
		"language":       "cobol",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAutocompleteRejectsCursorOutOfRange(t *testing.T) {
	router := newSuggestRouter()

	w := postAutocomplete(t, router, gin.H{
		"code":           "def",
		"cursorPosition": 99,
		"language":       "python",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
