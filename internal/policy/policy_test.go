package policy

import (
	"testing"

	"github.com/zulandar/issuedesk/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Account{},
		&models.Contributor{},
		&models.Project{},
		&models.Issue{},
		&models.Comment{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedContributor(t *testing.T, db *gorm.DB, username string) *models.Contributor {
	t.Helper()
	c := models.Contributor{
		Age:     20,
		Account: models.Account{Username: username, PasswordHash: "x"},
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed contributor %s: %v", username, err)
	}
	return &c
}

func seedProject(t *testing.T, db *gorm.DB, author *models.Contributor, members ...*models.Contributor) *models.Project {
	t.Helper()
	p := models.Project{Name: "p", AuthorID: author.ID}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	for _, m := range members {
		if err := db.Model(&p).Association("Contributors").Append(m); err != nil {
			t.Fatalf("seed membership: %v", err)
		}
	}
	return &p
}

func TestCanWrite(t *testing.T) {
	owner := &models.Contributor{ID: 1}
	other := &models.Contributor{ID: 2}
	project := &models.Project{AuthorID: 1}

	if !CanWrite(owner, project) {
		t.Error("owner should be able to write")
	}
	if CanWrite(other, project) {
		t.Error("non-owner should not be able to write")
	}
	if CanWrite(nil, project) {
		t.Error("nil actor should not be able to write")
	}
}

func TestCanWrite_AcrossKinds(t *testing.T) {
	actor := &models.Contributor{ID: 5}

	targets := []Owned{
		&models.Project{AuthorID: 5},
		&models.Issue{AuthorID: 5},
		&models.Comment{AuthorID: 5},
	}
	for _, target := range targets {
		if !CanWrite(actor, target) {
			t.Errorf("author should be able to write %T", target)
		}
	}

	stranger := &models.Contributor{ID: 6}
	for _, target := range targets {
		if CanWrite(stranger, target) {
			t.Errorf("stranger should not be able to write %T", target)
		}
	}
}

func TestMember(t *testing.T) {
	db := testDB(t)
	author := seedContributor(t, db, "author")
	member := seedContributor(t, db, "member")
	outsider := seedContributor(t, db, "outsider")
	project := seedProject(t, db, author, author, member)

	ok, err := Member(db, project.ID, member.ID)
	if err != nil {
		t.Fatalf("Member: %v", err)
	}
	if !ok {
		t.Error("member should be listed")
	}

	ok, err = Member(db, project.ID, outsider.ID)
	if err != nil {
		t.Fatalf("Member: %v", err)
	}
	if ok {
		t.Error("outsider should not be listed")
	}
}

func TestCanReadProject(t *testing.T) {
	db := testDB(t)
	author := seedContributor(t, db, "author")
	member := seedContributor(t, db, "member")
	outsider := seedContributor(t, db, "outsider")

	// Author not explicitly in the membership list still reads.
	project := seedProject(t, db, author, member)

	tests := []struct {
		name  string
		actor *models.Contributor
		want  bool
	}{
		{"author", author, true},
		{"member", member, true},
		{"outsider", outsider, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanReadProject(db, tt.actor, project)
			if err != nil {
				t.Fatalf("CanReadProject: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanReadProject(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCanReadIssue(t *testing.T) {
	db := testDB(t)
	author := seedContributor(t, db, "author")
	member := seedContributor(t, db, "member")
	outsider := seedContributor(t, db, "outsider")
	project := seedProject(t, db, author, author, member)

	issue := models.Issue{ProjectID: project.ID, AuthorID: author.ID, State: "TO DO"}
	if err := db.Create(&issue).Error; err != nil {
		t.Fatalf("seed issue: %v", err)
	}

	ok, err := CanReadIssue(db, member, &issue)
	if err != nil {
		t.Fatalf("CanReadIssue: %v", err)
	}
	if !ok {
		t.Error("project member should read the issue")
	}

	ok, err = CanReadIssue(db, outsider, &issue)
	if err != nil {
		t.Fatalf("CanReadIssue: %v", err)
	}
	if ok {
		t.Error("outsider should not read the issue")
	}
}

func TestCanReadComment(t *testing.T) {
	db := testDB(t)
	author := seedContributor(t, db, "author")
	member := seedContributor(t, db, "member")
	outsider := seedContributor(t, db, "outsider")
	project := seedProject(t, db, author, author, member)

	issue := models.Issue{ProjectID: project.ID, AuthorID: author.ID, State: "TO DO"}
	if err := db.Create(&issue).Error; err != nil {
		t.Fatalf("seed issue: %v", err)
	}
	comment := models.Comment{IssueID: issue.ID, AuthorID: member.ID, Description: "d"}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	ok, err := CanReadComment(db, author, &comment)
	if err != nil {
		t.Fatalf("CanReadComment: %v", err)
	}
	if !ok {
		t.Error("project author should read the comment")
	}

	ok, err = CanReadComment(db, outsider, &comment)
	if err != nil {
		t.Fatalf("CanReadComment: %v", err)
	}
	if ok {
		t.Error("outsider should not read the comment")
	}
}
