package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSON(w, 200, ChatResponse{SessionID: "s1", Reply: "hello", Branch: "generic"})

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result ChatResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Reply)
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeError(w, 422, "missing_arguments", "arguments key is required")

	assert.Equal(t, 422, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "missing_arguments", result.Error)
	assert.Equal(t, "arguments key is required", result.Message)
}
