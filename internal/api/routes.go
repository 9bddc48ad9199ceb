package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/issuedesk/internal/auth"
)

// registerRoutes sets up all API routes on the Gin router. Token issue
// and contributor registration are the only unauthenticated endpoints.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/healthz", s.handleHealth)
	api.POST("/token/", s.handleToken)
	api.POST("/Contributor/", s.handleCreateContributor)

	authed := api.Group("", auth.Middleware(s.db, s.tokens))

	authed.GET("/Contributor/", s.handleListContributors)
	authed.GET("/Contributor/:id/", s.handleGetContributor)
	authed.PUT("/Contributor/:id/", s.handleUpdateContributor)
	authed.PATCH("/Contributor/:id/", s.handleUpdateContributor)
	authed.DELETE("/Contributor/:id/", s.handleDeleteContributor)

	authed.GET("/Project/", s.handleListProjects)
	authed.POST("/Project/", s.handleCreateProject)
	authed.GET("/Project/:id/", s.handleGetProject)
	authed.PUT("/Project/:id/", s.handleUpdateProject)
	authed.PATCH("/Project/:id/", s.handleUpdateProject)
	authed.DELETE("/Project/:id/", s.handleDeleteProject)

	authed.GET("/Issue/", s.handleListIssues)
	authed.POST("/Issue/", s.handleCreateIssue)
	authed.GET("/Issue/:id/", s.handleGetIssue)
	authed.PUT("/Issue/:id/", s.handleUpdateIssue)
	authed.PATCH("/Issue/:id/", s.handleUpdateIssue)
	authed.DELETE("/Issue/:id/", s.handleDeleteIssue)

	authed.GET("/Comment/", s.handleListComments)
	authed.POST("/Comment/", s.handleCreateComment)
	authed.GET("/Comment/:id/", s.handleGetComment)
	authed.PUT("/Comment/:id/", s.handleUpdateComment)
	authed.PATCH("/Comment/:id/", s.handleUpdateComment)
	authed.DELETE("/Comment/:id/", s.handleDeleteComment)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
