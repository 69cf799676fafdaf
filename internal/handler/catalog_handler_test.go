package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCatalogHandler(testCatalog(t))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/catalog", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			TermLabel string                   `json:"term_label"`
			Subjects  []map[string]interface{} `json:"subjects"`
			Sections  []map[string]interface{} `json:"sections"`
			TimeSlots []map[string]interface{} `json:"time_slots"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "2026-1", envelope.Data.TermLabel)
	assert.Len(t, envelope.Data.Subjects, 1)
	// Sections are enumerated from the subject's section count.
	require.Len(t, envelope.Data.Sections, 2)
	assert.Equal(t, "CS101-1", envelope.Data.Sections[0]["id"])
	assert.Len(t, envelope.Data.TimeSlots, 3)
}
