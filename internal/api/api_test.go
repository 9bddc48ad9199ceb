package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zulandar/issuedesk/internal/config"
	"github.com/zulandar/issuedesk/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Port: 8080},
		Database:   config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		Auth:       config.AuthConfig{Secret: "test-secret", AccessTTLMinutes: 60},
		Pagination: config.PaginationConfig{DefaultLimit: 20, MaxLimit: 100},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return New(gdb, testConfig())
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

// register creates a contributor over HTTP and returns its id.
func register(t *testing.T, s *Server, username string) uint {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/Contributor/", "", map[string]interface{}{
		"username": username,
		"password": "s3cret-" + username,
		"age":      30,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", username, w.Code, w.Body.String())
	}
	return uint(decode(t, w)["id"].(float64))
}

// login exchanges credentials for an access token.
func login(t *testing.T, s *Server, username string) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/token/", "", map[string]interface{}{
		"username": username,
		"password": "s3cret-" + username,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", username, w.Code, w.Body.String())
	}
	return decode(t, w)["access"].(string)
}

func createProject(t *testing.T, s *Server, token, name string, extra map[string]interface{}) uint {
	t.Helper()
	body := map[string]interface{}{"name": name, "type": "BE"}
	for k, v := range extra {
		body[k] = v
	}
	w := doJSON(t, s, http.MethodPost, "/api/Project/", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create project %s: status = %d, body = %s", name, w.Code, w.Body.String())
	}
	return uint(decode(t, w)["id"].(float64))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := decode(t, w)["status"]; got != "ok" {
		t.Errorf("status field = %v, want ok", got)
	}
}

func TestTokenFlow(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")

	w := doJSON(t, s, http.MethodPost, "/api/token/", "", map[string]interface{}{
		"username": "alice",
		"password": "s3cret-alice",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["access"] == "" || body["access"] == nil {
		t.Errorf("missing access token in %v", body)
	}
	if _, ok := body["refresh"]; ok {
		t.Errorf("response must not carry a refresh token: %v", body)
	}

	w = doJSON(t, s, http.MethodPost, "/api/token/", "", map[string]interface{}{
		"username": "alice",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/api/token/", "", map[string]interface{}{
		"username": "nobody",
		"password": "whatever",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown user: status = %d, want 401", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/Contributor/", "/api/Project/", "/api/Issue/", "/api/Comment/"} {
		w := doJSON(t, s, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, w.Code)
		}
	}

	w := doJSON(t, s, http.MethodGet, "/api/Project/", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", w.Code)
	}
}

func TestContributorEndpoints(t *testing.T) {
	s := newTestServer(t)
	aliceID := register(t, s, "alice")
	register(t, s, "bob")
	alice := login(t, s, "alice")
	bob := login(t, s, "bob")

	w := doJSON(t, s, http.MethodGet, "/api/Contributor/", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", body["count"])
	}
	for _, key := range []string{"limit", "offset", "previous", "next", "results"} {
		if _, ok := body[key]; !ok {
			t.Errorf("envelope missing %q", key)
		}
	}

	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/Contributor/%d/", aliceID), bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}
	rep := decode(t, w)
	if rep["username"] != "alice" {
		t.Errorf("username = %v, want alice", rep["username"])
	}
	if _, ok := rep["password"]; ok {
		t.Errorf("representation must not expose a password field")
	}

	// Only the contributor may modify their own record.
	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/Contributor/%d/", aliceID), bob, map[string]interface{}{"age": 40})
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign update: status = %d, want 403", w.Code)
	}
	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/Contributor/%d/", aliceID), alice, map[string]interface{}{"age": 40})
	if w.Code != http.StatusOK {
		t.Fatalf("self update: status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["age"].(float64); got != 40 {
		t.Errorf("age = %v, want 40", got)
	}

	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/Contributor/%d/", aliceID), bob, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign delete: status = %d, want 403", w.Code)
	}
	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/Contributor/%d/", aliceID), alice, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("self delete: status = %d, body = %s", w.Code, w.Body.String())
	}

	// The backing account is gone too, so the token no longer resolves.
	w = doJSON(t, s, http.MethodGet, "/api/Contributor/", alice, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("deleted identity: status = %d, want 401", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/Contributor/%d/", aliceID), bob, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted contributor: status = %d, want 404", w.Code)
	}
}

func TestUnderageRegistration(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/Contributor/", "", map[string]interface{}{
		"username": "kid",
		"password": "pw",
		"age":      12,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestProjectEndpoints(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")
	register(t, s, "bob")
	register(t, s, "carol")
	alice := login(t, s, "alice")
	bob := login(t, s, "bob")
	carol := login(t, s, "carol")

	projectID := createProject(t, s, alice, "Gateway", map[string]interface{}{
		"description":  "edge service",
		"contributors": "bob",
	})

	// The author and named members see the project; outsiders do not.
	w := doJSON(t, s, http.MethodGet, "/api/Project/", alice, nil)
	if got := decode(t, w)["count"].(float64); got != 1 {
		t.Errorf("author list count = %v, want 1", got)
	}
	w = doJSON(t, s, http.MethodGet, "/api/Project/", bob, nil)
	if got := decode(t, w)["count"].(float64); got != 1 {
		t.Errorf("member list count = %v, want 1", got)
	}
	w = doJSON(t, s, http.MethodGet, "/api/Project/", carol, nil)
	if got := decode(t, w)["count"].(float64); got != 0 {
		t.Errorf("outsider list count = %v, want 0", got)
	}

	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/Project/%d/", projectID), carol, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider get: status = %d, want 403", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/Project/%d/", projectID), bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("member get: status = %d, body = %s", w.Code, w.Body.String())
	}
	rep := decode(t, w)
	author := rep["author"].(map[string]interface{})
	if author["username"] != "alice" {
		t.Errorf("author = %v, want alice", author["username"])
	}
	if members := rep["contributors"].([]interface{}); len(members) != 2 {
		t.Errorf("contributors = %d, want 2 (author plus bob)", len(members))
	}

	// Member without authorship cannot write.
	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/Project/%d/", projectID), bob, map[string]interface{}{"name": "Renamed"})
	if w.Code != http.StatusForbidden {
		t.Errorf("member update: status = %d, want 403", w.Code)
	}
	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/Project/%d/", projectID), alice, map[string]interface{}{"name": "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("author update: status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["name"]; got != "Renamed" {
		t.Errorf("name = %v, want Renamed", got)
	}

	// Unknown contributor names fail the create.
	w = doJSON(t, s, http.MethodPost, "/api/Project/", alice, map[string]interface{}{
		"name":         "Doomed",
		"type":         "BE",
		"contributors": "ghost",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown member: status = %d, want 400", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/Project/%d/", projectID), bob, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("member delete: status = %d, want 403", w.Code)
	}
	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/Project/%d/", projectID), alice, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("author delete: status = %d, body = %s", w.Code, w.Body.String())
	}
	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/Project/%d/", projectID), alice, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted project: status = %d, want 404", w.Code)
	}
}

func TestIssueEndpoints(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")
	register(t, s, "bob")
	register(t, s, "carol")
	alice := login(t, s, "alice")
	bob := login(t, s, "bob")
	carol := login(t, s, "carol")

	projectID := createProject(t, s, alice, "Gateway", map[string]interface{}{"contributors": "bob"})

	// Outsiders cannot open issues on the project.
	w := doJSON(t, s, http.MethodPost, "/api/Issue/", carol, map[string]interface{}{
		"project": projectID,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider create: status = %d, want 403", w.Code)
	}

	// The assignment may name a member by username and defaults the state.
	w = doJSON(t, s, http.MethodPost, "/api/Issue/", alice, map[string]interface{}{
		"project":              projectID,
		"assigned_contributor": "bob",
		"priority":             "HIGH",
		"label":                "BUG",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", w.Code, w.Body.String())
	}
	rep := decode(t, w)
	issueID := uint(rep["id"].(float64))
	if rep["state"] != "TO DO" {
		t.Errorf("state = %v, want TO DO", rep["state"])
	}
	if rep["assigned_contributor"] != "bob" {
		t.Errorf("assigned_contributor = %v, want bob", rep["assigned_contributor"])
	}

	// Assigning an outsider is rejected.
	w = doJSON(t, s, http.MethodPost, "/api/Issue/", alice, map[string]interface{}{
		"project":              projectID,
		"assigned_contributor": "carol",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider assignee: status = %d, want 403", w.Code)
	}

	// Bad enum values are validation failures.
	w = doJSON(t, s, http.MethodPost, "/api/Issue/", alice, map[string]interface{}{
		"project": projectID,
		"state":   "Napping",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad state: status = %d, want 400", w.Code)
	}

	// Visibility: author and assignee see the issue, the unrelated member
	// does not list it but may still read it via its project membership.
	w = doJSON(t, s, http.MethodGet, "/api/Issue/", alice, nil)
	if got := decode(t, w)["count"].(float64); got != 1 {
		t.Errorf("author list count = %v, want 1", got)
	}
	w = doJSON(t, s, http.MethodGet, "/api/Issue/", bob, nil)
	if got := decode(t, w)["count"].(float64); got != 1 {
		t.Errorf("assignee list count = %v, want 1", got)
	}
	w = doJSON(t, s, http.MethodGet, "/api/Issue/", carol, nil)
	if got := decode(t, w)["count"].(float64); got != 0 {
		t.Errorf("outsider list count = %v, want 0", got)
	}
	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/Issue/%d/", issueID), carol, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider get: status = %d, want 403", w.Code)
	}

	// An update that omits the assignment reverts it to the requester.
	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/Issue/%d/", issueID), alice, map[string]interface{}{
		"state": "In Progress",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", w.Code, w.Body.String())
	}
	rep = decode(t, w)
	if rep["state"] != "In Progress" {
		t.Errorf("state = %v, want In Progress", rep["state"])
	}
	if rep["assigned_contributor"] != "alice" {
		t.Errorf("assigned_contributor = %v, want alice after omitted assignment", rep["assigned_contributor"])
	}

	// Only the author writes.
	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/Issue/%d/", issueID), bob, map[string]interface{}{
		"state": "Finished",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("non-author update: status = %d, want 403", w.Code)
	}

	// A project with issues cannot be deleted.
	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/Project/%d/", projectID), alice, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("delete project with issues: status = %d, want 400", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/Issue/%d/", issueID), alice, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete issue: status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestCommentEndpoints(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")
	register(t, s, "bob")
	register(t, s, "carol")
	alice := login(t, s, "alice")
	bob := login(t, s, "bob")
	carol := login(t, s, "carol")

	projectID := createProject(t, s, alice, "Gateway", map[string]interface{}{"contributors": "bob"})
	w := doJSON(t, s, http.MethodPost, "/api/Issue/", alice, map[string]interface{}{"project": projectID})
	issueID := uint(decode(t, w)["id"].(float64))

	w = doJSON(t, s, http.MethodPost, "/api/Comment/", carol, map[string]interface{}{
		"issue":       issueID,
		"description": "drive-by",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider create: status = %d, want 403", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/api/Comment/", bob, map[string]interface{}{
		"issue":       issueID,
		"description": "looks good",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", w.Code, w.Body.String())
	}
	rep := decode(t, w)
	commentID := uint(rep["id"].(float64))
	issue := rep["issue"].(map[string]interface{})
	if uint(issue["id"].(float64)) != issueID {
		t.Errorf("nested issue id = %v, want %d", issue["id"], issueID)
	}
	if ids := issue["comments"].([]interface{}); len(ids) != 1 {
		t.Errorf("nested issue comment ids = %d, want 1", len(ids))
	}
	if author := rep["author"].(map[string]interface{}); author["username"] != "bob" {
		t.Errorf("author = %v, want bob", author["username"])
	}

	// Members of the project see the comment; outsiders do not.
	w = doJSON(t, s, http.MethodGet, "/api/Comment/", alice, nil)
	if got := decode(t, w)["count"].(float64); got != 1 {
		t.Errorf("member list count = %v, want 1", got)
	}
	w = doJSON(t, s, http.MethodGet, "/api/Comment/", carol, nil)
	if got := decode(t, w)["count"].(float64); got != 0 {
		t.Errorf("outsider list count = %v, want 0", got)
	}
	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/Comment/%d/", commentID), carol, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider get: status = %d, want 403", w.Code)
	}

	// Only the comment author writes.
	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/Comment/%d/", commentID), alice, map[string]interface{}{
		"description": "edited",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("non-author update: status = %d, want 403", w.Code)
	}
	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/Comment/%d/", commentID), bob, map[string]interface{}{
		"description": "edited",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("author update: status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["description"]; got != "edited" {
		t.Errorf("description = %v, want edited", got)
	}

	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/Comment/%d/", commentID), bob, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, body = %s", w.Code, w.Body.String())
	}
	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/Comment/%d/", commentID), bob, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted comment: status = %d, want 404", w.Code)
	}
}

func TestPaginationLinks(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 5; i++ {
		register(t, s, fmt.Sprintf("user%d", i))
	}
	token := login(t, s, "user0")

	w := doJSON(t, s, http.MethodGet, "/api/Contributor/?limit=2", token, nil)
	body := decode(t, w)
	if body["count"].(float64) != 5 {
		t.Fatalf("count = %v, want 5", body["count"])
	}
	if body["previous"] != nil {
		t.Errorf("first page previous = %v, want null", body["previous"])
	}
	if body["next"] == nil {
		t.Fatal("first page next = null, want a link")
	}
	if got := len(body["results"].([]interface{})); got != 2 {
		t.Errorf("results = %d, want 2", got)
	}

	w = doJSON(t, s, http.MethodGet, body["next"].(string), token, nil)
	body = decode(t, w)
	if body["previous"] == nil || body["next"] == nil {
		t.Errorf("middle page previous/next = %v/%v, want links both ways", body["previous"], body["next"])
	}

	w = doJSON(t, s, http.MethodGet, body["next"].(string), token, nil)
	body = decode(t, w)
	if body["next"] != nil {
		t.Errorf("last page next = %v, want null", body["next"])
	}
	if got := len(body["results"].([]interface{})); got != 1 {
		t.Errorf("last page results = %d, want 1", got)
	}
}

func TestNotFoundIDs(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice")
	token := login(t, s, "alice")

	for _, path := range []string{"/api/Project/99/", "/api/Issue/99/", "/api/Comment/99/", "/api/Contributor/99/", "/api/Project/banana/"} {
		w := doJSON(t, s, http.MethodGet, path, token, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want 404", path, w.Code)
		}
	}
}
