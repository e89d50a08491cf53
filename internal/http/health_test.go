package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthController_Check(t *testing.T) {
	t.Run("reports ok with a live database", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		router := gin.New()
		router.GET("/health", NewHealthController(db, "test-version").Check)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "test-version", body["version"])
	})

	t.Run("reports unhealthy when the database is closed", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		router := gin.New()
		router.GET("/health", NewHealthController(db, "test-version").Check)

		require.NoError(t, db.Close())

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
