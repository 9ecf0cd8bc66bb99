package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// LimitSkipParams holds offset-based pagination parameters.
type LimitSkipParams struct {
	Limit int
	Skip  int
}

// GetLimitSkipParams extracts and clamps limit/skip query parameters.
func GetLimitSkipParams(c *gin.Context, defaultLimit, maxLimit int) LimitSkipParams {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	return LimitSkipParams{Limit: limit, Skip: skip}
}
