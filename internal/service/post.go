package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/artup/artup-api/internal/model"
	"github.com/artup/artup-api/internal/repository"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

var (
	ErrTitleRequired    = errors.New("title is required")
	ErrTitleTooLong     = errors.New("title must be at most 60 characters")
	ErrDescriptionShort = errors.New("description must be at least 6 characters")
	ErrDescriptionLong  = errors.New("description must be at most 1024 characters")
	ErrPriceRequired    = errors.New("price is required")
	ErrTagsRequired     = errors.New("at least one tag is required")
	ErrTagsTooLong      = errors.New("tags must encode to at most 255 characters")
	ErrNoUserTags       = errors.New("no tags configured for user")
	ErrNoPosts          = errors.New("could not find any posts")
	ErrPostNotFound     = errors.New("post not found")
)

// PostRepository is the persistence contract the post service depends on.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetOwned(ctx context.Context, id, userID string) (*model.Post, error)
	List(ctx context.Context, offset, limit int) ([]model.Post, int, error)
	SearchTitle(ctx context.Context, fragment string, offset, limit int) ([]model.Post, int, error)
	MatchingTags(ctx context.Context, tags []string, offset, limit int) ([]model.Post, int, error)
	Update(ctx context.Context, id, userID string, patch model.PostPatch) error
	Delete(ctx context.Context, id, userID string) error
}

// UserReader looks up users for tag matching.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// PostService handles post catalog business logic.
type PostService struct {
	repo  PostRepository
	users UserReader
}

// NewPostService creates a new PostService.
func NewPostService(repo PostRepository, users UserReader) *PostService {
	return &PostService{repo: repo, users: users}
}

// List returns a page of the whole catalog. An empty page, including
// pages past the end, is ErrNoPosts.
func (s *PostService) List(ctx context.Context, page, limit int) (model.PostPage, error) {
	page, limit = normalizePage(page, limit)

	posts, count, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return model.PostPage{}, err
	}

	return buildPage(posts, count, page, limit)
}

// MatchingTags returns a page of posts whose tag set intersects the
// requesting user's configured tags.
func (s *PostService) MatchingTags(ctx context.Context, userID string, page, limit int) (model.PostPage, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.PostPage{}, ErrUserNotFound
		}
		return model.PostPage{}, err
	}
	if len(user.Tags) == 0 {
		return model.PostPage{}, ErrNoUserTags
	}

	page, limit = normalizePage(page, limit)

	posts, count, err := s.repo.MatchingTags(ctx, user.Tags, (page-1)*limit, limit)
	if err != nil {
		return model.PostPage{}, err
	}

	return buildPage(posts, count, page, limit)
}

// SearchTitle returns a page of posts whose title contains the
// fragment, case-insensitively. The page count reflects the filtered
// set, not the whole catalog.
func (s *PostService) SearchTitle(ctx context.Context, fragment string, page, limit int) (model.PostPage, error) {
	page, limit = normalizePage(page, limit)

	posts, count, err := s.repo.SearchTitle(ctx, fragment, (page-1)*limit, limit)
	if err != nil {
		return model.PostPage{}, err
	}

	return buildPage(posts, count, page, limit)
}

// Create validates and stores a new post. The owning user ID and the
// username snapshot come from the authenticated identity, never from
// the client payload.
func (s *PostService) Create(ctx context.Context, userID, username string, req model.CreatePostRequest) (*model.Post, error) {
	if req.Title == "" {
		return nil, ErrTitleRequired
	}
	if len(req.Title) > 60 {
		return nil, ErrTitleTooLong
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}
	if req.Price == nil {
		return nil, ErrPriceRequired
	}
	if len(req.Tags) == 0 {
		return nil, ErrTagsRequired
	}
	if err := validateTags(req.Tags); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &model.Post{
		ID:          uuid.NewString(),
		UserID:      userID,
		Username:    username,
		Title:       req.Title,
		Description: req.Description,
		Price:       *req.Price,
		Tags:        req.Tags,
		LastEdit:    now,
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Update applies a partial patch to a post owned by userID and stamps
// the last-edit timestamp. A post owned by someone else is
// indistinguishable from a missing one.
func (s *PostService) Update(ctx context.Context, id, userID string, req model.UpdatePostRequest) error {
	if req.Title != nil {
		if *req.Title == "" {
			return ErrTitleRequired
		}
		if len(*req.Title) > 60 {
			return ErrTitleTooLong
		}
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return err
		}
	}
	if req.Tags != nil {
		if len(req.Tags) == 0 {
			return ErrTagsRequired
		}
		if err := validateTags(req.Tags); err != nil {
			return err
		}
	}

	// Ownership check before any mutation.
	if _, err := s.repo.GetOwned(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	patch := model.PostPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Tags:        req.Tags,
		LastEdit:    time.Now().UTC(),
	}

	if err := s.repo.Update(ctx, id, userID, patch); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	return nil
}

// Delete removes a post owned by userID. Removal is not reversible.
func (s *PostService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// normalizePage applies the 1-indexed page and page-size defaults.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// buildPage assembles the paginated response; an empty page is ErrNoPosts.
func buildPage(posts []model.Post, count, page, limit int) (model.PostPage, error) {
	if len(posts) == 0 {
		return model.PostPage{}, ErrNoPosts
	}

	return model.PostPage{
		PostData:    posts,
		TotalPages:  (count + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

func validateDescription(description string) error {
	if len(description) < 6 {
		return ErrDescriptionShort
	}
	if len(description) > 1024 {
		return ErrDescriptionLong
	}
	return nil
}

// validateTags bounds the encoded tag list, which is stored in a
// 255-character column.
func validateTags(tags []string) error {
	encoded, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	if len(encoded) > 255 {
		return ErrTagsTooLong
	}
	return nil
}
