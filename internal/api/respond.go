package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/issuedesk/internal/tracker"
)

// respondError maps a domain error to its HTTP status. Errors without a
// domain kind are infrastructure failures and stay opaque to the client.
func (s *Server) respondError(c *gin.Context, err error) {
	switch tracker.KindOf(err) {
	case tracker.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case tracker.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case tracker.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseID extracts the :id path parameter. A non-numeric id addresses
// nothing and is reported as not found.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such id"})
		return 0, false
	}
	return uint(id), true
}
