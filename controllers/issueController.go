package controllers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"civix-be/models"
	"civix-be/store"
)

// IssueController handles issue CRUD, voting, comments, and the status
// workflow.
type IssueController struct {
	issues store.IssueStore
	users  store.UserStore
	log    *zap.Logger
}

func NewIssueController(issues store.IssueStore, users store.UserStore, log *zap.Logger) *IssueController {
	return &IssueController{issues: issues, users: users, log: log}
}

// issueResponse enriches an issue with public projections of its creator
// and comment authors. The embedded fields of the same name are shadowed.
type issueResponse struct {
	models.Issue
	CreatedBy models.PublicUser `json:"createdBy"`
	Comments  []commentResponse `json:"comments"`
}

type commentResponse struct {
	ID        primitive.ObjectID `json:"id"`
	User      models.PublicUser  `json:"user"`
	Text      string             `json:"text"`
	CreatedAt time.Time          `json:"createdAt"`
}

// geoInput is the request form of a coordinate. Both components are
// required, so a half-specified location cannot slip through with the
// missing one defaulted to zero. Zero itself stays a legal value.
type geoInput struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

func (g *geoInput) point() models.GeoPoint {
	return models.GeoPoint{Lat: *g.Lat, Lng: *g.Lng}
}

// CreateIssue handles the creation of a new issue.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	creatorID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title       string          `json:"title" binding:"required,max=200"`
		Description string          `json:"description" binding:"required,max=1000"`
		Priority    models.Priority `json:"priority" binding:"required,oneof=Low Medium High"`
		IssueType   string          `json:"issueType" binding:"required,max=100"`
		Address     string          `json:"address" binding:"required,max=300"`
		Location    *geoInput       `json:"location" binding:"required"`
		Images      []string        `json:"images"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	images := input.Images
	if images == nil {
		images = []string{}
	}

	issue := models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		IssueType:   input.IssueType,
		Address:     input.Address,
		Location:    input.Location.point(),
		Images:      images,
		Upvotes:     []primitive.ObjectID{},
		Downvotes:   []primitive.ObjectID{},
		Comments:    []models.Comment{},
		CreatedBy:   creatorID,
		Status:      models.StatusReceived,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := ic.issues.Create(c.Request.Context(), &issue); err != nil {
		ic.log.Error("create issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	c.JSON(http.StatusCreated, ic.presentOne(c.Request.Context(), issue))
}

// GetAllIssues lists issues newest first with filtering and pagination.
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	filter := store.IssueFilter{
		Status:    c.Query("status"),
		IssueType: c.Query("issueType"),
		Oldest:    c.DefaultQuery("sort", "newest") == "oldest",
		Page:      page,
		Limit:     limit,
	}

	issues, total, err := ic.issues.FindAll(c.Request.Context(), filter)
	if err != nil {
		ic.log.Error("list issues", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"issues":      ic.present(c.Request.Context(), issues),
		"totalIssues": total,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// GetMyIssues lists the caller's own issues, newest first.
func (ic *IssueController) GetMyIssues(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	issues, err := ic.issues.FindByCreator(c.Request.Context(), userID)
	if err != nil {
		ic.log.Error("list own issues", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	c.JSON(http.StatusOK, ic.present(c.Request.Context(), issues))
}

// GetIssue retrieves a single issue with creator and comment-author
// projections.
func (ic *IssueController) GetIssue(c *gin.Context) {
	issueID, ok := issueParam(c)
	if !ok {
		return
	}

	issue, err := ic.issues.FindByID(c.Request.Context(), issueID)
	if err != nil {
		ic.respondIssueError(c, err, "retrieve")
		return
	}

	c.JSON(http.StatusOK, ic.presentOne(c.Request.Context(), *issue))
}

// UpdateIssue lets the creator edit issue content. Newly supplied images
// append to the existing sequence.
func (ic *IssueController) UpdateIssue(c *gin.Context) {
	issueID, ok := issueParam(c)
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title       *string          `json:"title,omitempty"`
		Description *string          `json:"description,omitempty"`
		Priority    *models.Priority `json:"priority,omitempty"`
		IssueType   *string          `json:"issueType,omitempty"`
		Address     *string          `json:"address,omitempty"`
		Location    *geoInput        `json:"location,omitempty"`
		Images      []string         `json:"images,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Priority != nil {
		switch *input.Priority {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
			return
		}
	}

	issue, err := ic.issues.FindByID(c.Request.Context(), issueID)
	if err != nil {
		ic.respondIssueError(c, err, "retrieve")
		return
	}
	if issue.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to update this issue"})
		return
	}

	var location *models.GeoPoint
	if input.Location != nil {
		p := input.Location.point()
		location = &p
	}

	patch := store.IssuePatch{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		IssueType:   input.IssueType,
		Address:     input.Address,
		Location:    location,
		Images:      input.Images,
	}
	if err := ic.issues.Update(c.Request.Context(), issueID, patch); err != nil {
		ic.respondIssueError(c, err, "update")
		return
	}

	updated, err := ic.issues.FindByID(c.Request.Context(), issueID)
	if err != nil {
		ic.respondIssueError(c, err, "retrieve")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Issue updated successfully",
		"issue":   ic.presentOne(c.Request.Context(), *updated),
	})
}

// DeleteIssue removes an issue. Allowed for the creator or an Admin.
func (ic *IssueController) DeleteIssue(c *gin.Context) {
	issueID, ok := issueParam(c)
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	issue, err := ic.issues.FindByID(c.Request.Context(), issueID)
	if err != nil {
		ic.respondIssueError(c, err, "retrieve")
		return
	}
	if issue.CreatedBy != userID && callerRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to delete this issue"})
		return
	}

	if err := ic.issues.Delete(c.Request.Context(), issueID); err != nil {
		ic.respondIssueError(c, err, "delete")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// HandleVoteOnIssue applies the vote toggle: voting the same direction
// twice retracts the vote, voting the opposite direction switches it. The
// two sets never share a voter.
func (ic *IssueController) HandleVoteOnIssue(c *gin.Context) {
	issueID, ok := issueParam(c)
	if !ok {
		return
	}
	voterID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		VoteType models.VoteDirection `json:"voteType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.VoteType != models.Upvote && input.VoteType != models.Downvote {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote type"})
		return
	}

	ctx := c.Request.Context()
	issue, err := ic.issues.FindByID(ctx, issueID)
	if err != nil {
		ic.respondIssueError(c, err, "retrieve")
		return
	}

	var message string
	if input.VoteType == models.Upvote {
		if issue.HasUpvoted(voterID) {
			err = ic.issues.RemoveUpvote(ctx, issueID, voterID)
			message = "Upvote removed"
		} else {
			err = ic.issues.AddUpvote(ctx, issueID, voterID)
			message = "Upvote added"
		}
	} else {
		if issue.HasDownvoted(voterID) {
			err = ic.issues.RemoveDownvote(ctx, issueID, voterID)
			message = "Downvote removed"
		} else {
			err = ic.issues.AddDownvote(ctx, issueID, voterID)
			message = "Downvote added"
		}
	}
	if err != nil {
		ic.respondIssueError(c, err, "vote on")
		return
	}

	updated, err := ic.issues.FindByID(ctx, issueID)
	if err != nil {
		ic.respondIssueError(c, err, "retrieve")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"issue":   ic.presentOne(ctx, *updated),
	})
}

// SetStatus moves the issue through its lifecycle. Volunteer/Admin only
// (enforced by route middleware); any target state is accepted from any
// current state.
func (ic *IssueController) SetStatus(c *gin.Context) {
	var input struct {
		Status     models.IssueStatus `json:"status" binding:"required"`
		AssignedTo *string            `json:"assignedTo,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ic.applyStatus(c, input.Status, input.AssignedTo)
}

// UpdateProgress is the legacy alias for SetStatus kept for older clients.
func (ic *IssueController) UpdateProgress(c *gin.Context) {
	var input struct {
		Progress models.IssueStatus `json:"progress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ic.applyStatus(c, input.Progress, nil)
}

func (ic *IssueController) applyStatus(c *gin.Context, status models.IssueStatus, assignedTo *string) {
	issueID, ok := issueParam(c)
	if !ok {
		return
	}
	if !models.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var assignee *primitive.ObjectID
	if assignedTo != nil {
		id, err := primitive.ObjectIDFromHex(*assignedTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID"})
			return
		}
		assignee = &id
	}

	if err := ic.issues.SetStatus(c.Request.Context(), issueID, status, assignee); err != nil {
		ic.respondIssueError(c, err, "update")
		return
	}

	updated, err := ic.issues.FindByID(c.Request.Context(), issueID)
	if err != nil {
		ic.respondIssueError(c, err, "retrieve")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Status updated",
		"issue":   ic.presentOne(c.Request.Context(), *updated),
	})
}

// AddComment appends a comment and returns the full thread with author
// projections.
func (ic *IssueController) AddComment(c *gin.Context) {
	issueID, ok := issueParam(c)
	if !ok {
		return
	}
	authorID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		return
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		User:      authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	ctx := c.Request.Context()
	if err := ic.issues.AppendComment(ctx, issueID, comment); err != nil {
		ic.respondIssueError(c, err, "comment on")
		return
	}

	updated, err := ic.issues.FindByID(ctx, issueID)
	if err != nil {
		ic.respondIssueError(c, err, "retrieve")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"comments": ic.presentOne(ctx, *updated).Comments,
	})
}

// GetIssueAnalytics returns aggregate community activity.
func (ic *IssueController) GetIssueAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	issues, total, err := ic.issues.FindAll(ctx, store.IssueFilter{})
	if err != nil {
		ic.log.Error("analytics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	byType := map[string]int{}
	var totalVotes, openIssues int
	for _, issue := range issues {
		byType[issue.IssueType]++
		totalVotes += len(issue.Upvotes) + len(issue.Downvotes)
		if issue.Status != models.StatusResolved {
			openIssues++
		}
	}

	issuesByType := make([]gin.H, 0, len(byType))
	for name, count := range byType {
		issuesByType = append(issuesByType, gin.H{"name": name, "value": count})
	}
	sort.Slice(issuesByType, func(i, j int) bool {
		return issuesByType[i]["name"].(string) < issuesByType[j]["name"].(string)
	})

	// Issues created per day over the last week.
	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		day := time.Now().AddDate(0, 0, -i)
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		next := day.AddDate(0, 0, 1)

		count := 0
		for _, issue := range issues {
			if !issue.CreatedAt.Before(day) && issue.CreatedAt.Before(next) {
				count++
			}
		}
		last7Days = append(last7Days, gin.H{
			"date":  day.Format("2006-01-02"),
			"count": count,
		})
	}

	top := make([]models.Issue, len(issues))
	copy(top, issues)
	sort.Slice(top, func(i, j int) bool {
		return len(top[i].Upvotes) > len(top[j].Upvotes)
	})
	if len(top) > 5 {
		top = top[:5]
	}

	topVoted := make([]gin.H, 0, len(top))
	for _, issue := range top {
		topVoted = append(topVoted, gin.H{
			"id":        issue.ID,
			"title":     issue.Title,
			"issueType": issue.IssueType,
			"upvotes":   len(issue.Upvotes),
			"downvotes": len(issue.Downvotes),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"issuesByType":   issuesByType,
		"last7Days":      last7Days,
		"topVotedIssues": topVoted,
		"totalIssues":    total,
		"totalVotes":     totalVotes,
		"openIssues":     openIssues,
	})
}

// RecentIssues returns the latest issues as a minimal map projection.
func (ic *IssueController) RecentIssues(c *gin.Context) {
	issues, _, err := ic.issues.FindAll(c.Request.Context(), store.IssueFilter{Limit: 19, Page: 1})
	if err != nil {
		ic.log.Error("recent issues", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent issues"})
		return
	}

	response := make([]gin.H, 0, len(issues))
	for _, issue := range issues {
		response = append(response, gin.H{
			"id":        issue.ID.Hex(),
			"title":     issue.Title,
			"lat":       issue.Location.Lat,
			"lng":       issue.Location.Lng,
			"address":   issue.Address,
			"issueType": issue.IssueType,
			"createdAt": issue.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}

// present resolves user projections for a batch of issues with a single
// store read.
func (ic *IssueController) present(ctx context.Context, issues []models.Issue) []issueResponse {
	idSet := map[primitive.ObjectID]struct{}{}
	for _, issue := range issues {
		idSet[issue.CreatedBy] = struct{}{}
		for _, comment := range issue.Comments {
			idSet[comment.User] = struct{}{}
		}
	}
	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	authors, err := ic.users.FindByIDs(ctx, ids)
	if err != nil {
		ic.log.Warn("resolve projections", zap.Error(err))
		authors = map[primitive.ObjectID]models.User{}
	}

	responses := make([]issueResponse, 0, len(issues))
	for _, issue := range issues {
		comments := make([]commentResponse, 0, len(issue.Comments))
		for _, comment := range issue.Comments {
			comments = append(comments, commentResponse{
				ID:        comment.ID,
				User:      publicProjection(authors, comment.User),
				Text:      comment.Text,
				CreatedAt: comment.CreatedAt,
			})
		}
		responses = append(responses, issueResponse{
			Issue:     issue,
			CreatedBy: publicProjection(authors, issue.CreatedBy),
			Comments:  comments,
		})
	}
	return responses
}

func (ic *IssueController) presentOne(ctx context.Context, issue models.Issue) issueResponse {
	return ic.present(ctx, []models.Issue{issue})[0]
}

// publicProjection falls back to a bare ID when the account was deleted
// after authoring.
func publicProjection(users map[primitive.ObjectID]models.User, id primitive.ObjectID) models.PublicUser {
	if user, ok := users[id]; ok {
		return user.Public()
	}
	return models.PublicUser{ID: id}
}

func (ic *IssueController) respondIssueError(c *gin.Context, err error, verb string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	ic.log.Error(verb+" issue", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + verb + " issue"})
}

func issueParam(c *gin.Context) (primitive.ObjectID, bool) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return primitive.NilObjectID, false
	}
	return issueID, true
}
