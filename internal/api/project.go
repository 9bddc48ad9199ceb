package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/issuedesk/internal/auth"
	"github.com/zulandar/issuedesk/internal/policy"
	"github.com/zulandar/issuedesk/internal/tracker"
)

type projectCreateRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Contributors string `json:"contributors"`
}

type projectUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := auth.CurrentContributor(c)
	project, err := tracker.CreateProject(s.db, actor, tracker.ProjectCreateOpts{
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		Contributors: req.Contributors,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	rep, err := s.renderProject(project)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

func (s *Server) handleListProjects(c *gin.Context) {
	limit, offset := s.pageParams(c)
	actor := auth.CurrentContributor(c)
	projects, count, err := tracker.ListProjects(s.db, actor, limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	results := make([]*projectRep, 0, len(projects))
	for i := range projects {
		rep, err := s.renderProject(&projects[i])
		if err != nil {
			s.respondError(c, err)
			return
		}
		results = append(results, rep)
	}
	c.JSON(http.StatusOK, pageEnvelope(c, count, limit, offset, results))
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	project, err := tracker.GetProject(s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	actor := auth.CurrentContributor(c)
	readable, err := policy.CanReadProject(s.db, actor, project)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !readable {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a contributor of this project"})
		return
	}

	rep, err := s.renderProject(project)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req projectUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := auth.CurrentContributor(c)
	project, err := tracker.UpdateProject(s.db, actor, id, tracker.ProjectUpdateOpts{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	rep, err := s.renderProject(project)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor := auth.CurrentContributor(c)
	if err := tracker.DeleteProject(s.db, actor, id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
