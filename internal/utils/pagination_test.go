package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(t *testing.T, query string) LimitSkipParams {
	t.Helper()

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return GetLimitSkipParams(c, 50, 200)
}

func TestGetLimitSkipParams(t *testing.T) {
	assert.Equal(t, LimitSkipParams{Limit: 50, Skip: 0}, paramsFor(t, ""))
	assert.Equal(t, LimitSkipParams{Limit: 20, Skip: 40}, paramsFor(t, "limit=20&skip=40"))

	// Out-of-range and garbage values fall back
	assert.Equal(t, LimitSkipParams{Limit: 50, Skip: 0}, paramsFor(t, "limit=0"))
	assert.Equal(t, LimitSkipParams{Limit: 50, Skip: 0}, paramsFor(t, "limit=9999"))
	assert.Equal(t, LimitSkipParams{Limit: 50, Skip: 0}, paramsFor(t, "limit=abc&skip=-5"))
}
