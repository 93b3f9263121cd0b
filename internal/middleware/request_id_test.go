package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestIDRouter(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		*captured = GetRequestID(c)
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestID_GeneratesID(t *testing.T) {
	var captured string
	router := newRequestIDRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	header := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, header)
	_, err := uuid.Parse(header)
	assert.NoError(t, err)
	assert.Equal(t, header, captured)
}

func TestRequestID_PreservesInboundID(t *testing.T) {
	var captured string
	router := newRequestIDRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "upstream-id-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "upstream-id-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "upstream-id-123", captured)
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	var captured string
	router := newRequestIDRouter(&captured)

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		ids[w.Header().Get(RequestIDHeader)] = true
	}

	assert.Len(t, ids, 3)
}

func TestGetRequestID_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Empty(t, GetRequestID(c))
}
