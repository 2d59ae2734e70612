package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civix-be/config"
	"civix-be/models"
)

func TestCreateIssue(t *testing.T) {
	e := newEnv(t, config.Config{})
	token, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)

	w := e.do(t, http.MethodPost, "/api/issues/create", token, gin.H{
		"title":       "Overflowing garbage bin",
		"description": "The bin on Main St has not been emptied in weeks",
		"priority":    "High",
		"issueType":   "Garbage",
		"address":     "Main St 1",
		"location":    gin.H{"lat": 12.97, "lng": 77.59},
		"images":      []string{"https://img.example/1.jpg"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "received", body["status"])
	assert.Equal(t, "High", body["priority"])
	assert.Empty(t, body["upvotes"])
	assert.Empty(t, body["downvotes"])
	assert.Empty(t, body["comments"])

	creator, _ := body["createdBy"].(map[string]any)
	require.NotNil(t, creator)
	assert.Equal(t, "Alice", creator["name"])
	assert.NotContains(t, creator, "password")
	assert.NotContains(t, creator, "email")
}

func TestCreateIssueValidation(t *testing.T) {
	e := newEnv(t, config.Config{})
	token, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)

	// Missing coordinate.
	w := e.do(t, http.MethodPost, "/api/issues/create", token, gin.H{
		"title":       "No location",
		"description": "desc",
		"priority":    "High",
		"issueType":   "Garbage",
		"address":     "Main St 1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Half-specified coordinates: each component is required on its own.
	w = e.do(t, http.MethodPost, "/api/issues/create", token, gin.H{
		"title":       "Latitude only",
		"description": "desc",
		"priority":    "High",
		"issueType":   "Garbage",
		"address":     "Main St 1",
		"location":    gin.H{"lat": 12.97},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/issues/create", token, gin.H{
		"title":       "Longitude only",
		"description": "desc",
		"priority":    "High",
		"issueType":   "Garbage",
		"address":     "Main St 1",
		"location":    gin.H{"lng": 77.59},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Zero is a real coordinate, not an absent one.
	w = e.do(t, http.MethodPost, "/api/issues/create", token, gin.H{
		"title":       "Null Island",
		"description": "desc",
		"priority":    "High",
		"issueType":   "Garbage",
		"address":     "Gulf of Guinea",
		"location":    gin.H{"lat": 0, "lng": 0},
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Non-numeric coordinate.
	w = e.do(t, http.MethodPost, "/api/issues/create", token, gin.H{
		"title":       "Bad location",
		"description": "desc",
		"priority":    "High",
		"issueType":   "Garbage",
		"address":     "Main St 1",
		"location":    gin.H{"lat": "twelve", "lng": 77.59},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Priority outside the enum.
	w = e.do(t, http.MethodPost, "/api/issues/create", token, gin.H{
		"title":       "Bad priority",
		"description": "desc",
		"priority":    "Urgent",
		"issueType":   "Garbage",
		"address":     "Main St 1",
		"location":    gin.H{"lat": 12.97, "lng": 77.59},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Anonymous creation is rejected.
	w = e.do(t, http.MethodPost, "/api/issues/create", "", gin.H{"title": "anon"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListIssuesNewestFirstWithProjections(t *testing.T) {
	e := newEnv(t, config.Config{})
	aliceToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	bobToken, _ := e.register(t, "Bob", "bob", "bob@x.com", "pw123456", models.RoleUser)

	e.createIssue(t, aliceToken, "first issue")
	time.Sleep(5 * time.Millisecond)
	e.createIssue(t, bobToken, "second issue")

	// Listing works anonymously.
	w := e.do(t, http.MethodGet, "/api/issues", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 2, body["totalIssues"])
	issues, _ := body["issues"].([]any)
	require.Len(t, issues, 2)

	newest, _ := issues[0].(map[string]any)
	assert.Equal(t, "second issue", newest["title"])
	creator, _ := newest["createdBy"].(map[string]any)
	require.NotNil(t, creator)
	assert.Equal(t, "Bob", creator["name"])
	assert.Equal(t, "User", creator["role"])
	assert.NotContains(t, creator, "password")
}

func TestListIssuesLimitCap(t *testing.T) {
	e := newEnv(t, config.Config{})
	token, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)

	for i := 0; i < 101; i++ {
		e.createIssue(t, token, fmt.Sprintf("issue %d", i))
	}

	// An oversized limit is capped at 100, not reset to the default.
	w := e.do(t, http.MethodGet, "/api/issues?limit=500", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	issues, _ := body["issues"].([]any)
	assert.Len(t, issues, 100)
	assert.EqualValues(t, 101, body["totalIssues"])
	assert.EqualValues(t, 2, body["totalPages"])
}

func TestGetIssue(t *testing.T) {
	e := newEnv(t, config.Config{})
	token, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	id := e.createIssue(t, token, "pothole")

	w := e.do(t, http.MethodGet, "/api/issues/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pothole", decode(t, w)["title"])

	w = e.do(t, http.MethodGet, "/api/issues/000000000000000000000000", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/issues/not-an-id", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteScenario(t *testing.T) {
	e := newEnv(t, config.Config{})
	reporterToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	voter1Token, _ := e.register(t, "Bob", "bob", "bob@x.com", "pw123456", models.RoleUser)
	voter2Token, _ := e.register(t, "Carol", "carol", "carol@x.com", "pw123456", models.RoleUser)

	id := e.createIssue(t, reporterToken, "garbage pileup")

	// Two different accounts upvote.
	w := e.do(t, http.MethodPost, "/api/issues/"+id+"/vote", voter1Token, gin.H{"voteType": "upvote"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Upvote added", decode(t, w)["message"])

	w = e.do(t, http.MethodPost, "/api/issues/"+id+"/vote", voter2Token, gin.H{"voteType": "upvote"})
	require.Equal(t, http.StatusOK, w.Code)
	issue, _ := decode(t, w)["issue"].(map[string]any)
	require.NotNil(t, issue)
	assert.Len(t, issue["upvotes"], 2)
	assert.Empty(t, issue["downvotes"])

	// One of them switches to a downvote.
	w = e.do(t, http.MethodPost, "/api/issues/"+id+"/vote", voter2Token, gin.H{"voteType": "downvote"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Downvote added", body["message"])
	issue, _ = body["issue"].(map[string]any)
	assert.Len(t, issue["upvotes"], 1)
	assert.Len(t, issue["downvotes"], 1)
}

func TestVoteToggleLaw(t *testing.T) {
	e := newEnv(t, config.Config{})
	reporterToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	voterToken, _ := e.register(t, "Bob", "bob", "bob@x.com", "pw123456", models.RoleUser)

	id := e.createIssue(t, reporterToken, "broken streetlight")

	// Same direction twice returns the issue to its pre-vote state.
	w := e.do(t, http.MethodPost, "/api/issues/"+id+"/vote", voterToken, gin.H{"voteType": "upvote"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/issues/"+id+"/vote", voterToken, gin.H{"voteType": "upvote"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Upvote removed", body["message"])
	issue, _ := body["issue"].(map[string]any)
	assert.Empty(t, issue["upvotes"])
	assert.Empty(t, issue["downvotes"])
}

func TestVoteValidation(t *testing.T) {
	e := newEnv(t, config.Config{})
	token, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	id := e.createIssue(t, token, "leak")

	w := e.do(t, http.MethodPost, "/api/issues/"+id+"/vote", token, gin.H{"voteType": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/issues/000000000000000000000000/vote", token, gin.H{"voteType": "upvote"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateIssueOwnership(t *testing.T) {
	e := newEnv(t, config.Config{})
	ownerToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	otherToken, _ := e.register(t, "Bob", "bob", "bob@x.com", "pw123456", models.RoleUser)

	id := e.createIssue(t, ownerToken, "original title")

	w := e.do(t, http.MethodPut, "/api/issues/"+id, otherToken, gin.H{"title": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPut, "/api/issues/"+id, ownerToken, gin.H{
		"title":  "better title",
		"images": []string{"https://img.example/extra.jpg"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	issue, _ := decode(t, w)["issue"].(map[string]any)
	require.NotNil(t, issue)
	assert.Equal(t, "better title", issue["title"])
	// Unsupplied fields keep their prior values; images append.
	assert.Equal(t, "a description", issue["description"])
	assert.Len(t, issue["images"], 1)

	// A location update must carry both coordinates.
	w = e.do(t, http.MethodPut, "/api/issues/"+id, ownerToken, gin.H{
		"location": gin.H{"lat": 1.0},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, "/api/issues/000000000000000000000000", ownerToken, gin.H{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteIssueOwnerOrAdmin(t *testing.T) {
	e := newEnv(t, config.Config{})
	ownerToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	otherToken, _ := e.register(t, "Bob", "bob", "bob@x.com", "pw123456", models.RoleUser)
	adminToken, _ := e.register(t, "Root", "root", "root@x.com", "pw123456", models.RoleAdmin)

	first := e.createIssue(t, ownerToken, "first")
	second := e.createIssue(t, ownerToken, "second")

	// Neither creator nor admin.
	w := e.do(t, http.MethodDelete, "/api/issues/"+first, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin may delete someone else's issue.
	w = e.do(t, http.MethodDelete, "/api/issues/"+first, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Owner deletes; a subsequent read is a 404.
	w = e.do(t, http.MethodDelete, "/api/issues/"+second, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/api/issues/"+second, ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusWorkflow(t *testing.T) {
	e := newEnv(t, config.Config{})
	reporterToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	volunteerToken, volunteer := e.register(t, "Helper", "helper", "helper@x.com", "pw123456", models.RoleVolunteer)

	id := e.createIssue(t, reporterToken, "stuck drain")

	// Reporters may not change status.
	w := e.do(t, http.MethodPatch, "/api/issues/"+id+"/status", reporterToken, gin.H{"status": "in-progress"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Values outside the enum are rejected.
	w = e.do(t, http.MethodPatch, "/api/issues/"+id+"/status", volunteerToken, gin.H{"status": "escalated"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPatch, "/api/issues/"+id+"/status", volunteerToken, gin.H{
		"status":     "in-progress",
		"assignedTo": volunteer["id"],
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	issue, _ := decode(t, w)["issue"].(map[string]any)
	assert.Equal(t, "in-progress", issue["status"])
	assert.Equal(t, volunteer["id"], issue["assignedTo"])

	w = e.do(t, http.MethodPatch, "/api/issues/"+id+"/status", volunteerToken, gin.H{"status": "resolved"})
	require.Equal(t, http.StatusOK, w.Code)

	// Transitions are not constrained to move forward: a resolved issue
	// may be set back to received.
	w = e.do(t, http.MethodPatch, "/api/issues/"+id+"/status", volunteerToken, gin.H{"status": "received"})
	require.Equal(t, http.StatusOK, w.Code)
	issue, _ = decode(t, w)["issue"].(map[string]any)
	assert.Equal(t, "received", issue["status"])

	w = e.do(t, http.MethodPatch, "/api/issues/000000000000000000000000/status", volunteerToken, gin.H{"status": "resolved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProgressAlias(t *testing.T) {
	e := newEnv(t, config.Config{})
	reporterToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	volunteerToken, _ := e.register(t, "Helper", "helper", "helper@x.com", "pw123456", models.RoleVolunteer)

	id := e.createIssue(t, reporterToken, "pothole")

	w := e.do(t, http.MethodPut, "/api/issues/"+id+"/progress", reporterToken, gin.H{"progress": "in-progress"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPut, "/api/issues/"+id+"/progress", volunteerToken, gin.H{"progress": "in-progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	issue, _ := decode(t, w)["issue"].(map[string]any)
	assert.Equal(t, "in-progress", issue["status"])
}

func TestAddComment(t *testing.T) {
	e := newEnv(t, config.Config{})
	reporterToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	commenterToken, _ := e.register(t, "Bob", "bob", "bob@x.com", "pw123456", models.RoleUser)

	id := e.createIssue(t, reporterToken, "noise complaint")

	// Whitespace-only text is rejected.
	w := e.do(t, http.MethodPost, "/api/issues/"+id+"/comment", commenterToken, gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/issues/"+id+"/comment", commenterToken, gin.H{"text": "me too"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comments, _ := decode(t, w)["comments"].([]any)
	require.Len(t, comments, 1)

	first, _ := comments[0].(map[string]any)
	assert.Equal(t, "me too", first["text"])
	author, _ := first["user"].(map[string]any)
	require.NotNil(t, author)
	assert.Equal(t, "Bob", author["name"])

	// Comments append in order.
	w = e.do(t, http.MethodPost, "/api/issues/"+id+"/comment", reporterToken, gin.H{"text": "thanks"})
	require.Equal(t, http.StatusCreated, w.Code)
	comments, _ = decode(t, w)["comments"].([]any)
	require.Len(t, comments, 2)
	second, _ := comments[1].(map[string]any)
	assert.Equal(t, "thanks", second["text"])

	w = e.do(t, http.MethodPost, "/api/issues/000000000000000000000000/comment", commenterToken, gin.H{"text": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyIssues(t *testing.T) {
	e := newEnv(t, config.Config{})
	aliceToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	bobToken, _ := e.register(t, "Bob", "bob", "bob@x.com", "pw123456", models.RoleUser)

	e.createIssue(t, aliceToken, "mine")
	e.createIssue(t, bobToken, "not mine")

	w := e.do(t, http.MethodGet, "/api/issues/mine", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var issues []any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issues))
	require.Len(t, issues, 1)
	only, _ := issues[0].(map[string]any)
	assert.Equal(t, "mine", only["title"])
}

func TestAnalyticsAndRecent(t *testing.T) {
	e := newEnv(t, config.Config{})
	reporterToken, _ := e.register(t, "Alice", "alice", "alice@x.com", "pw123456", models.RoleUser)
	voterToken, _ := e.register(t, "Bob", "bob", "bob@x.com", "pw123456", models.RoleUser)

	id := e.createIssue(t, reporterToken, "popular issue")
	e.createIssue(t, reporterToken, "quiet issue")

	w := e.do(t, http.MethodPost, "/api/issues/"+id+"/vote", voterToken, gin.H{"voteType": "upvote"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/issues/analytics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["totalIssues"])
	assert.EqualValues(t, 1, body["totalVotes"])
	assert.EqualValues(t, 2, body["openIssues"])

	top, _ := body["topVotedIssues"].([]any)
	require.NotEmpty(t, top)
	best, _ := top[0].(map[string]any)
	assert.Equal(t, "popular issue", best["title"])

	w = e.do(t, http.MethodGet, "/api/issues/recent", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recent []any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recent))
	assert.Len(t, recent, 2)
}
