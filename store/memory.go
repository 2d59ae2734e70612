package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"civix-be/models"
)

// MemoryUserStore is an in-memory UserStore used by unit tests and local
// development without a database.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return ErrDuplicateUsername
		}
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			result[id] = user
		}
	}
	return result, nil
}

func (s *MemoryUserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, patch ProfilePatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.Location != nil {
		user.Location = *patch.Location
	}
	if patch.Image != nil {
		user.Image = *patch.Image
	}
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return &user, nil
}

func (s *MemoryUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Password = hash
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// MemoryIssueStore is an in-memory IssueStore. The mutex serializes
// per-record mutations, matching the atomicity the Mongo backend gets from
// $addToSet/$pull/$push.
type MemoryIssueStore struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]models.Issue
}

func NewMemoryIssueStore() *MemoryIssueStore {
	return &MemoryIssueStore{issues: make(map[primitive.ObjectID]models.Issue)}
}

func (s *MemoryIssueStore) Create(_ context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	s.issues[issue.ID] = cloneIssue(*issue)
	return nil
}

func (s *MemoryIssueStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := cloneIssue(issue)
	return &copied, nil
}

func (s *MemoryIssueStore) FindAll(_ context.Context, filter IssueFilter) ([]models.Issue, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		if filter.Status != "" && filter.Status != "all" && string(issue.Status) != filter.Status {
			continue
		}
		if filter.IssueType != "" && filter.IssueType != "all" && issue.IssueType != filter.IssueType {
			continue
		}
		matched = append(matched, cloneIssue(issue))
	}

	sort.Slice(matched, func(i, j int) bool {
		if filter.Oldest {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.Limit
		if start >= len(matched) {
			return []models.Issue{}, total, nil
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *MemoryIssueStore) FindByCreator(_ context.Context, creator primitive.ObjectID) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Issue
	for _, issue := range s.issues {
		if issue.CreatedBy == creator {
			matched = append(matched, cloneIssue(issue))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *MemoryIssueStore) Update(_ context.Context, id primitive.ObjectID, patch IssuePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Title != nil {
		issue.Title = *patch.Title
	}
	if patch.Description != nil {
		issue.Description = *patch.Description
	}
	if patch.Priority != nil {
		issue.Priority = *patch.Priority
	}
	if patch.IssueType != nil {
		issue.IssueType = *patch.IssueType
	}
	if patch.Address != nil {
		issue.Address = *patch.Address
	}
	if patch.Location != nil {
		issue.Location = *patch.Location
	}
	issue.Images = append(issue.Images, patch.Images...)
	issue.UpdatedAt = time.Now()
	s.issues[id] = issue
	return nil
}

func (s *MemoryIssueStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[id]; !ok {
		return ErrNotFound
	}
	delete(s.issues, id)
	return nil
}

func (s *MemoryIssueStore) AddUpvote(_ context.Context, id, voter primitive.ObjectID) error {
	return s.mutateVotes(id, func(issue *models.Issue) {
		issue.Upvotes = addToSet(issue.Upvotes, voter)
		issue.Downvotes = removeFromSet(issue.Downvotes, voter)
	})
}

func (s *MemoryIssueStore) RemoveUpvote(_ context.Context, id, voter primitive.ObjectID) error {
	return s.mutateVotes(id, func(issue *models.Issue) {
		issue.Upvotes = removeFromSet(issue.Upvotes, voter)
	})
}

func (s *MemoryIssueStore) AddDownvote(_ context.Context, id, voter primitive.ObjectID) error {
	return s.mutateVotes(id, func(issue *models.Issue) {
		issue.Downvotes = addToSet(issue.Downvotes, voter)
		issue.Upvotes = removeFromSet(issue.Upvotes, voter)
	})
}

func (s *MemoryIssueStore) RemoveDownvote(_ context.Context, id, voter primitive.ObjectID) error {
	return s.mutateVotes(id, func(issue *models.Issue) {
		issue.Downvotes = removeFromSet(issue.Downvotes, voter)
	})
}

func (s *MemoryIssueStore) mutateVotes(id primitive.ObjectID, mutate func(*models.Issue)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return ErrNotFound
	}
	mutate(&issue)
	issue.UpdatedAt = time.Now()
	s.issues[id] = issue
	return nil
}

func (s *MemoryIssueStore) AppendComment(_ context.Context, id primitive.ObjectID, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return ErrNotFound
	}
	issue.Comments = append(issue.Comments, comment)
	issue.UpdatedAt = time.Now()
	s.issues[id] = issue
	return nil
}

func (s *MemoryIssueStore) SetStatus(_ context.Context, id primitive.ObjectID, status models.IssueStatus, assignedTo *primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return ErrNotFound
	}
	issue.Status = status
	if assignedTo != nil {
		v := *assignedTo
		issue.AssignedTo = &v
	}
	issue.UpdatedAt = time.Now()
	s.issues[id] = issue
	return nil
}

func addToSet(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeFromSet(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	result := ids[:0]
	for _, v := range ids {
		if v != id {
			result = append(result, v)
		}
	}
	return result
}

func cloneIssue(issue models.Issue) models.Issue {
	issue.Images = append([]string(nil), issue.Images...)
	issue.Upvotes = append([]primitive.ObjectID(nil), issue.Upvotes...)
	issue.Downvotes = append([]primitive.ObjectID(nil), issue.Downvotes...)
	issue.Comments = append([]models.Comment(nil), issue.Comments...)
	if issue.AssignedTo != nil {
		v := *issue.AssignedTo
		issue.AssignedTo = &v
	}
	return issue
}
