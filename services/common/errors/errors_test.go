package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	apperrors "github.com/tobaccostore/backend/services/common/errors"
)

func setupRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware(zap.NewNop()))
	r.GET("/x", handler)
	return r
}

func TestErrorMiddleware_AppError(t *testing.T) {
	r := setupRouter(func(c *gin.Context) {
		_ = c.Error(apperrors.New(http.StatusNotFound, "Order tidak ditemukan", nil))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	assert.Equal(t, "Order tidak ditemukan", body["error"])
}

func TestErrorMiddleware_PlainErrorBecomes500(t *testing.T) {
	r := setupRouter(func(c *gin.Context) {
		_ = c.Error(stderrors.New("boom"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestWrap_DoesNotMutateBase(t *testing.T) {
	cause := stderrors.New("db down")
	wrapped := apperrors.Wrap(apperrors.ErrInternalServer, cause)

	assert.Nil(t, apperrors.ErrInternalServer.Err)
	assert.ErrorIs(t, wrapped, cause)
}
