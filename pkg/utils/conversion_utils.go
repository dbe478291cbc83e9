package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// ParamInt64 reads a positive int64 path parameter.
func ParamInt64(c *gin.Context, name string) (int64, bool) {
	id, err := StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		RespondValidationFailed(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// Pagination reads page / page_size query parameters with defaults 1 and 20 (max 100).
func Pagination(c *gin.Context) (page, pageSize int, ok bool) {
	page, pageSize = 1, 20
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			RespondValidationFailed(c, "page must be a positive integer")
			return 0, 0, false
		}
		page = p
	}
	if raw := c.Query("page_size"); raw != "" {
		ps, err := strconv.Atoi(raw)
		if err != nil || ps < 1 {
			RespondValidationFailed(c, "page_size must be a positive integer")
			return 0, 0, false
		}
		pageSize = ps
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, true
}
