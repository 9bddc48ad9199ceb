package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/issuedesk/internal/auth"
	"github.com/zulandar/issuedesk/internal/policy"
	"github.com/zulandar/issuedesk/internal/tracker"
)

type commentCreateRequest struct {
	Issue       uint   `json:"issue"`
	Description string `json:"description"`
}

type commentUpdateRequest struct {
	Issue       *uint   `json:"issue"`
	Description *string `json:"description"`
}

func (s *Server) handleCreateComment(c *gin.Context) {
	var req commentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := auth.CurrentContributor(c)
	comment, err := tracker.CreateComment(s.db, actor, tracker.CommentCreateOpts{
		IssueID:     req.Issue,
		Description: req.Description,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	rep, err := s.renderComment(comment)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

func (s *Server) handleListComments(c *gin.Context) {
	limit, offset := s.pageParams(c)
	actor := auth.CurrentContributor(c)
	comments, count, err := tracker.ListComments(s.db, actor, limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	results := make([]*commentRep, 0, len(comments))
	for i := range comments {
		rep, err := s.renderComment(&comments[i])
		if err != nil {
			s.respondError(c, err)
			return
		}
		results = append(results, rep)
	}
	c.JSON(http.StatusOK, pageEnvelope(c, count, limit, offset, results))
}

func (s *Server) handleGetComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	comment, err := tracker.GetComment(s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	actor := auth.CurrentContributor(c)
	readable, err := policy.CanReadComment(s.db, actor, comment)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !readable {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a contributor of this project"})
		return
	}

	rep, err := s.renderComment(comment)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleUpdateComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req commentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := auth.CurrentContributor(c)
	comment, err := tracker.UpdateComment(s.db, actor, id, tracker.CommentUpdateOpts{
		IssueID:     req.Issue,
		Description: req.Description,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	rep, err := s.renderComment(comment)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor := auth.CurrentContributor(c)
	if err := tracker.DeleteComment(s.db, actor, id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
