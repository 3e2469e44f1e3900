package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseUintParam parses a numeric path parameter, responding 400 itself on
// failure. Callers must return when ok is false.
func ParseUintParam(c *gin.Context, param string) (uint, bool) {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

// CurrentUserID reads the authenticated user from the X-User-ID header set by
// the gateway. Responds 401 itself when the header is missing or malformed.
func CurrentUserID(c *gin.Context) (uint, bool) {
	idStr := c.GetHeader("X-User-ID")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Missing or invalid X-User-ID header",
		})
		return 0, false
	}
	return uint(id), true
}
