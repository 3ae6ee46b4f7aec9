package apperr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		cat  Category
		want int
	}{
		{CategoryValidation, http.StatusBadRequest},
		{CategoryConflict, http.StatusConflict},
		{CategoryPermission, http.StatusForbidden},
		{CategoryResource, http.StatusNotFound},
		{CategoryCapacity, http.StatusConflict},
		{CategoryExternal, http.StatusBadGateway},
		{Category("bogus"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.cat), "category %s", tt.cat)
	}
}

func TestRespondCarriesCategory(t *testing.T) {
	rec := httptest.NewRecorder()
	Respond(rec, Capacity("insufficient stock for product p1"))

	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Success  bool   `json:"success"`
		Category string `json:"category"`
		Message  string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "capacity", body.Category)
	assert.Equal(t, "insufficient stock for product p1", body.Message)
}

func TestRespondUnknownError(t *testing.T) {
	rec := httptest.NewRecorder()
	Respond(rec, fmt.Errorf("driver blew up"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal", body["category"])
	assert.NotContains(t, body["message"], "driver")
}

func TestRespondWrappedError(t *testing.T) {
	rec := httptest.NewRecorder()
	Respond(rec, fmt.Errorf("updating item: %w", Conflict("line item already accepted")))

	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "conflict", body["category"])
}
