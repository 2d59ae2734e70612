// Package store defines the persistence interfaces for users and issues.
// Vote and comment mutations are expressed as atomic set/append operations
// so that concurrent callers on the same issue commute instead of racing
// through a load-modify-save cycle.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"civix-be/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

// ProfilePatch carries the mutable profile fields. Nil fields are left
// untouched.
type ProfilePatch struct {
	Name     *string
	Phone    *string
	Location *string
	Image    *string
}

// IssuePatch carries the owner-editable issue fields. Nil fields are left
// untouched; Images are appended to the existing sequence, never replacing
// it.
type IssuePatch struct {
	Title       *string
	Description *string
	Priority    *models.Priority
	IssueType   *string
	Address     *string
	Location    *models.GeoPoint
	Images      []string
}

// IssueFilter selects and pages the issue listing. Limit <= 0 disables
// pagination.
type IssueFilter struct {
	Status    string
	IssueType string
	Oldest    bool
	Page      int
	Limit     int
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByIDs resolves a batch of users for response projections.
	// Missing IDs are simply absent from the result.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, patch ProfilePatch) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	// FindAll returns matching issues, newest first unless Oldest is set,
	// along with the total match count before pagination.
	FindAll(ctx context.Context, filter IssueFilter) ([]models.Issue, int64, error)
	FindByCreator(ctx context.Context, creator primitive.ObjectID) ([]models.Issue, error)
	Update(ctx context.Context, id primitive.ObjectID, patch IssuePatch) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Vote set mutations. AddUpvote and AddDownvote also remove the voter
	// from the opposite set in the same atomic operation, preserving
	// disjointness under concurrency.
	AddUpvote(ctx context.Context, id, voter primitive.ObjectID) error
	RemoveUpvote(ctx context.Context, id, voter primitive.ObjectID) error
	AddDownvote(ctx context.Context, id, voter primitive.ObjectID) error
	RemoveDownvote(ctx context.Context, id, voter primitive.ObjectID) error

	AppendComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus, assignedTo *primitive.ObjectID) error
}
