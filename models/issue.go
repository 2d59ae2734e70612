package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Priority enum
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusReceived   IssueStatus = "received"
	StatusInProgress IssueStatus = "in-progress"
	StatusResolved   IssueStatus = "resolved"
)

// ValidStatus reports whether s is one of the three lifecycle states.
func ValidStatus(s IssueStatus) bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// VoteDirection enum for the vote toggle.
type VoteDirection string

const (
	Upvote   VoteDirection = "upvote"
	Downvote VoteDirection = "downvote"
)

// GeoPoint is the reported coordinate of an issue.
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Comment is an append-only entry in an issue's thread. Comments have no
// edit or delete path.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Issue represents a civic issue reported by a user. Upvotes and downvotes
// are sets of user IDs and stay disjoint: a user belongs to at most one.
type Issue struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Priority    Priority             `bson:"priority" json:"priority"`
	IssueType   string               `bson:"issueType" json:"issueType"`
	Address     string               `bson:"address" json:"address"`
	Location    GeoPoint             `bson:"location" json:"location"`
	Images      []string             `bson:"images" json:"images"`
	Upvotes     []primitive.ObjectID `bson:"upvotes" json:"upvotes"`
	Downvotes   []primitive.ObjectID `bson:"downvotes" json:"downvotes"`
	Comments    []Comment            `bson:"comments" json:"comments"`
	CreatedBy   primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	AssignedTo  *primitive.ObjectID  `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Status      IssueStatus          `bson:"status" json:"status"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasUpvoted reports whether user is in the upvote set.
func (i *Issue) HasUpvoted(user primitive.ObjectID) bool {
	return containsID(i.Upvotes, user)
}

// HasDownvoted reports whether user is in the downvote set.
func (i *Issue) HasDownvoted(user primitive.ObjectID) bool {
	return containsID(i.Downvotes, user)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
