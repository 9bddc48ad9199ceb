package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/issuedesk/internal/auth"
	"github.com/zulandar/issuedesk/internal/policy"
	"github.com/zulandar/issuedesk/internal/tracker"
)

type issueCreateRequest struct {
	Project  uint                   `json:"project"`
	Assigned tracker.ContributorRef `json:"assigned_contributor"`
	State    string                 `json:"state"`
	Priority string                 `json:"priority"`
	Label    string                 `json:"label"`
}

type issueUpdateRequest struct {
	Project  *uint                  `json:"project"`
	Assigned tracker.ContributorRef `json:"assigned_contributor"`
	State    *string                `json:"state"`
	Priority *string                `json:"priority"`
	Label    *string                `json:"label"`
}

func (s *Server) handleCreateIssue(c *gin.Context) {
	var req issueCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := auth.CurrentContributor(c)
	issue, err := tracker.CreateIssue(s.db, actor, tracker.IssueCreateOpts{
		ProjectID: req.Project,
		Assigned:  req.Assigned,
		State:     req.State,
		Priority:  req.Priority,
		Label:     req.Label,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	rep, err := s.renderIssue(issue)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

func (s *Server) handleListIssues(c *gin.Context) {
	limit, offset := s.pageParams(c)
	actor := auth.CurrentContributor(c)
	issues, count, err := tracker.ListIssues(s.db, actor, limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	results := make([]*issueRep, 0, len(issues))
	for i := range issues {
		rep, err := s.renderIssue(&issues[i])
		if err != nil {
			s.respondError(c, err)
			return
		}
		results = append(results, rep)
	}
	c.JSON(http.StatusOK, pageEnvelope(c, count, limit, offset, results))
}

func (s *Server) handleGetIssue(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	issue, err := tracker.GetIssue(s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	actor := auth.CurrentContributor(c)
	readable, err := policy.CanReadIssue(s.db, actor, issue)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !readable {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a contributor of this project"})
		return
	}

	rep, err := s.renderIssue(issue)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleUpdateIssue(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req issueUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := auth.CurrentContributor(c)
	issue, err := tracker.UpdateIssue(s.db, actor, id, tracker.IssueUpdateOpts{
		ProjectID: req.Project,
		Assigned:  req.Assigned,
		State:     req.State,
		Priority:  req.Priority,
		Label:     req.Label,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	rep, err := s.renderIssue(issue)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleDeleteIssue(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor := auth.CurrentContributor(c)
	if err := tracker.DeleteIssue(s.db, actor, id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
