package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageParams reads limit/offset query parameters, applying the configured
// default and cap.
func (s *Server) pageParams(c *gin.Context) (limit, offset int) {
	limit = s.cfg.Pagination.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > s.cfg.Pagination.MaxLimit {
		limit = s.cfg.Pagination.MaxLimit
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}
	return limit, offset
}

// pageEnvelope wraps list results in the pagination envelope. Previous
// and next carry page links, null at the edges.
func pageEnvelope(c *gin.Context, count int64, limit, offset int, results interface{}) gin.H {
	var previous, next *string
	if offset > 0 {
		prevOffset := offset - limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		link := pageLink(c.Request.URL, limit, prevOffset)
		previous = &link
	}
	if int64(offset+limit) < count {
		link := pageLink(c.Request.URL, limit, offset+limit)
		next = &link
	}
	return gin.H{
		"count":    count,
		"limit":    limit,
		"offset":   offset,
		"previous": previous,
		"next":     next,
		"results":  results,
	}
}

func pageLink(u *url.URL, limit, offset int) string {
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	link := *u
	link.RawQuery = q.Encode()
	return link.String()
}
