package api

import (
	"fmt"
	"time"

	"github.com/zulandar/issuedesk/internal/models"
	"github.com/zulandar/issuedesk/internal/tracker"
)

// Representation types. Entities embed their relations to two levels:
// the outer entity carries fully rendered neighbors, which in turn carry
// their own relations as id lists.

type nestedContributorRep struct {
	ID                   uint   `json:"id"`
	Username             string `json:"username"`
	Age                  int    `json:"age"`
	CanBeContacted       bool   `json:"can_be_contacted"`
	CanDataBeShared      bool   `json:"can_data_be_shared"`
	AuthoredProjects     []uint `json:"authored_projects"`
	ProjectsContribution []uint `json:"projects_contribution"`
	AssignedIssues       []uint `json:"assigned_issues"`
	AuthoredIssues       []uint `json:"authored_issues"`
	AuthoredComments     []uint `json:"authored_comments"`
}

type contributorRep struct {
	ID                   uint   `json:"id"`
	Username             string `json:"username"`
	Age                  int    `json:"age"`
	CanBeContacted       bool   `json:"can_be_contacted"`
	CanDataBeShared      bool   `json:"can_data_be_shared"`
	ProjectContributions int64  `json:"project_contributions"`
	IssueContributions   int64  `json:"issue_contributions"`
	Comments             int64  `json:"comments"`
}

type nestedIssueRep struct {
	ID                  uint      `json:"id"`
	Project             uint      `json:"project"`
	AssignedContributor *uint     `json:"assigned_contributor"`
	Author              uint      `json:"author"`
	State               string    `json:"state"`
	Priority            string    `json:"priority"`
	Label               string    `json:"label"`
	CreatedTime         time.Time `json:"created_time"`
	Comments            []uint    `json:"comments"`
}

type nestedCommentRep struct {
	ID          uint      `json:"id"`
	Issue       uint      `json:"issue"`
	Author      uint      `json:"author"`
	Description string    `json:"description"`
	CreatedTime time.Time `json:"created_time"`
}

type projectRep struct {
	ID           uint                    `json:"id"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Author       *nestedContributorRep   `json:"author"`
	Contributors []*nestedContributorRep `json:"contributors"`
	Type         string                  `json:"type"`
	CreatedTime  time.Time               `json:"created_time"`
	Issues       []*nestedIssueRep       `json:"issues"`
}

type issueRep struct {
	ID                  uint                  `json:"id"`
	Project             uint                  `json:"project"`
	AssignedContributor *string               `json:"assigned_contributor"`
	Author              *nestedContributorRep `json:"author"`
	State               string                `json:"state"`
	Priority            string                `json:"priority"`
	Label               string                `json:"label"`
	CreatedTime         time.Time             `json:"created_time"`
	Comments            []*nestedCommentRep   `json:"comments"`
}

type commentRep struct {
	ID          uint                  `json:"id"`
	Issue       *nestedIssueRep       `json:"issue"`
	Author      *nestedContributorRep `json:"author"`
	Description string                `json:"description"`
	CreatedTime time.Time             `json:"created_time"`
}

// renderNestedContributor shapes a contributor with the id lists of its
// related entities. The Account association must be preloaded.
func (s *Server) renderNestedContributor(contributor *models.Contributor) (*nestedContributorRep, error) {
	rep := &nestedContributorRep{
		ID:                   contributor.ID,
		Username:             contributor.Username(),
		Age:                  contributor.Age,
		CanBeContacted:       contributor.CanBeContacted,
		CanDataBeShared:      contributor.CanDataBeShared,
		AuthoredProjects:     []uint{},
		ProjectsContribution: []uint{},
		AssignedIssues:       []uint{},
		AuthoredIssues:       []uint{},
		AuthoredComments:     []uint{},
	}

	if err := s.db.Model(&models.Project{}).Where("author_id = ?", contributor.ID).
		Order("id ASC").Pluck("id", &rep.AuthoredProjects).Error; err != nil {
		return nil, fmt.Errorf("api: render contributor %d: %w", contributor.ID, err)
	}
	if err := s.db.Table("project_contributors").Where("contributor_id = ?", contributor.ID).
		Order("project_id ASC").Pluck("project_id", &rep.ProjectsContribution).Error; err != nil {
		return nil, fmt.Errorf("api: render contributor %d: %w", contributor.ID, err)
	}
	if err := s.db.Model(&models.Issue{}).Where("assigned_contributor_id = ?", contributor.ID).
		Order("id ASC").Pluck("id", &rep.AssignedIssues).Error; err != nil {
		return nil, fmt.Errorf("api: render contributor %d: %w", contributor.ID, err)
	}
	if err := s.db.Model(&models.Issue{}).Where("author_id = ?", contributor.ID).
		Order("id ASC").Pluck("id", &rep.AuthoredIssues).Error; err != nil {
		return nil, fmt.Errorf("api: render contributor %d: %w", contributor.ID, err)
	}
	if err := s.db.Model(&models.Comment{}).Where("author_id = ?", contributor.ID).
		Order("id ASC").Pluck("id", &rep.AuthoredComments).Error; err != nil {
		return nil, fmt.Errorf("api: render contributor %d: %w", contributor.ID, err)
	}
	return rep, nil
}

// renderContributor shapes a top-level contributor with derived counts.
// The password hash is never part of any representation.
func (s *Server) renderContributor(contributor *models.Contributor) (*contributorRep, error) {
	stats, err := tracker.StatsFor(s.db, contributor.ID)
	if err != nil {
		return nil, err
	}
	return &contributorRep{
		ID:                   contributor.ID,
		Username:             contributor.Username(),
		Age:                  contributor.Age,
		CanBeContacted:       contributor.CanBeContacted,
		CanDataBeShared:      contributor.CanDataBeShared,
		ProjectContributions: stats.AuthoredProjects,
		IssueContributions:   stats.AssignedIssues,
		Comments:             stats.AuthoredComments,
	}, nil
}

// renderNestedIssue shapes an issue as it appears inside a project or
// comment representation. Comments must be preloaded.
func renderNestedIssue(issue *models.Issue) *nestedIssueRep {
	rep := &nestedIssueRep{
		ID:                  issue.ID,
		Project:             issue.ProjectID,
		AssignedContributor: issue.AssignedContributorID,
		Author:              issue.AuthorID,
		State:               issue.State,
		Priority:            issue.Priority,
		Label:               issue.Label,
		CreatedTime:         issue.CreatedTime,
		Comments:            []uint{},
	}
	for _, comment := range issue.Comments {
		rep.Comments = append(rep.Comments, comment.ID)
	}
	return rep
}

func renderNestedComment(comment *models.Comment) *nestedCommentRep {
	return &nestedCommentRep{
		ID:          comment.ID,
		Issue:       comment.IssueID,
		Author:      comment.AuthorID,
		Description: comment.Description,
		CreatedTime: comment.CreatedTime,
	}
}

// renderProject shapes a project with its author, membership, and issues
// embedded. Associations must be preloaded as done by tracker.GetProject.
func (s *Server) renderProject(project *models.Project) (*projectRep, error) {
	author, err := s.renderNestedContributor(&project.Author)
	if err != nil {
		return nil, err
	}

	contributors := make([]*nestedContributorRep, 0, len(project.Contributors))
	for i := range project.Contributors {
		rep, err := s.renderNestedContributor(&project.Contributors[i])
		if err != nil {
			return nil, err
		}
		contributors = append(contributors, rep)
	}

	issues := make([]*nestedIssueRep, 0, len(project.Issues))
	for i := range project.Issues {
		issues = append(issues, renderNestedIssue(&project.Issues[i]))
	}

	return &projectRep{
		ID:           project.ID,
		Name:         project.Name,
		Description:  project.Description,
		Author:       author,
		Contributors: contributors,
		Type:         project.Type,
		CreatedTime:  project.CreatedTime,
		Issues:       issues,
	}, nil
}

// renderIssue shapes a top-level issue. The assignment renders as the
// resolved username.
func (s *Server) renderIssue(issue *models.Issue) (*issueRep, error) {
	author, err := s.renderNestedContributor(&issue.Author)
	if err != nil {
		return nil, err
	}

	var assigned *string
	if issue.AssignedContributor != nil {
		username := issue.AssignedContributor.Username()
		assigned = &username
	}

	comments := make([]*nestedCommentRep, 0, len(issue.Comments))
	for i := range issue.Comments {
		comments = append(comments, renderNestedComment(&issue.Comments[i]))
	}

	return &issueRep{
		ID:                  issue.ID,
		Project:             issue.ProjectID,
		AssignedContributor: assigned,
		Author:              author,
		State:               issue.State,
		Priority:            issue.Priority,
		Label:               issue.Label,
		CreatedTime:         issue.CreatedTime,
		Comments:            comments,
	}, nil
}

// renderComment shapes a top-level comment with its issue and author
// embedded.
func (s *Server) renderComment(comment *models.Comment) (*commentRep, error) {
	author, err := s.renderNestedContributor(&comment.Author)
	if err != nil {
		return nil, err
	}
	return &commentRep{
		ID:          comment.ID,
		Issue:       renderNestedIssue(&comment.Issue),
		Author:      author,
		Description: comment.Description,
		CreatedTime: comment.CreatedTime,
	}, nil
}
