package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/issuedesk/internal/auth"
	"github.com/zulandar/issuedesk/internal/tracker"
)

type contributorCreateRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	Age             *int   `json:"age"`
	CanBeContacted  bool   `json:"can_be_contacted"`
	CanDataBeShared bool   `json:"can_data_be_shared"`
}

type contributorUpdateRequest struct {
	Username        *string `json:"username"`
	Password        *string `json:"password"`
	Age             *int    `json:"age"`
	CanBeContacted  *bool   `json:"can_be_contacted"`
	CanDataBeShared *bool   `json:"can_data_be_shared"`
}

func (s *Server) handleCreateContributor(c *gin.Context) {
	var req contributorCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	contributor, err := tracker.CreateContributor(s.db, tracker.ContributorCreateOpts{
		Username:        req.Username,
		Password:        req.Password,
		Age:             req.Age,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	rep, err := s.renderContributor(contributor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

func (s *Server) handleListContributors(c *gin.Context) {
	limit, offset := s.pageParams(c)
	contributors, count, err := tracker.ListContributors(s.db, limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	results := make([]*contributorRep, 0, len(contributors))
	for i := range contributors {
		rep, err := s.renderContributor(&contributors[i])
		if err != nil {
			s.respondError(c, err)
			return
		}
		results = append(results, rep)
	}
	c.JSON(http.StatusOK, pageEnvelope(c, count, limit, offset, results))
}

func (s *Server) handleGetContributor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contributor, err := tracker.GetContributor(s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	rep, err := s.renderContributor(contributor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleUpdateContributor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req contributorUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actor := auth.CurrentContributor(c)
	contributor, err := tracker.UpdateContributor(s.db, actor, id, tracker.ContributorUpdateOpts{
		Username:        req.Username,
		Password:        req.Password,
		Age:             req.Age,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	rep, err := s.renderContributor(contributor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleDeleteContributor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor := auth.CurrentContributor(c)
	if err := tracker.DeleteContributor(s.db, actor, id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
