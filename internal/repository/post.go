package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/artup/artup-api/internal/model"
)

var ErrPostNotFound = errors.New("post not found")

const postColumns = `id, user_id, username, title, description, price, tags, last_edit, created_at`

// PostRepository handles post persistence operations. Mutations are
// always scoped by (id, user_id) so a non-owner can never tell an
// existing post apart from a missing one.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post row.
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	query := `INSERT INTO posts (id, user_id, username, title, description, price, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	tags, err := json.Marshal(post.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		post.ID, post.UserID, post.Username,
		post.Title, post.Description, post.Price, string(tags),
	)
	return err
}

// GetOwned retrieves a post by ID only if it is owned by userID.
func (r *PostRepository) GetOwned(ctx context.Context, id, userID string) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ? AND user_id = ?`

	row := r.db.QueryRowContext(ctx, query, id, userID)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// List retrieves a page of posts in insertion order along with the
// total post count.
func (r *PostRepository) List(ctx context.Context, offset, limit int) ([]model.Post, int, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at, id LIMIT ? OFFSET ?`

	posts, err := r.queryPosts(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	count, err := r.count(ctx, `SELECT COUNT(*) FROM posts`)
	if err != nil {
		return nil, 0, err
	}

	return posts, count, nil
}

// SearchTitle retrieves a page of posts whose title contains the
// fragment, case-insensitively, plus the count of the filtered set.
func (r *PostRepository) SearchTitle(ctx context.Context, fragment string, offset, limit int) ([]model.Post, int, error) {
	pattern := "%" + strings.ToLower(fragment) + "%"

	query := `SELECT ` + postColumns + ` FROM posts WHERE LOWER(title) LIKE ? ORDER BY created_at, id LIMIT ? OFFSET ?`

	posts, err := r.queryPosts(ctx, query, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	count, err := r.count(ctx, `SELECT COUNT(*) FROM posts WHERE LOWER(title) LIKE ?`, pattern)
	if err != nil {
		return nil, 0, err
	}

	return posts, count, nil
}

// MatchingTags retrieves a page of posts whose tag set intersects the
// given tags, plus the count of the filtered set.
func (r *PostRepository) MatchingTags(ctx context.Context, tags []string, offset, limit int) ([]model.Post, int, error) {
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE JSON_OVERLAPS(tags, CAST(? AS JSON)) ORDER BY created_at, id LIMIT ? OFFSET ?`

	posts, err := r.queryPosts(ctx, query, string(encoded), limit, offset)
	if err != nil {
		return nil, 0, err
	}

	count, err := r.count(ctx, `SELECT COUNT(*) FROM posts WHERE JSON_OVERLAPS(tags, CAST(? AS JSON))`, string(encoded))
	if err != nil {
		return nil, 0, err
	}

	return posts, count, nil
}

// Update applies a patch to a post owned by userID and stamps
// last_edit. Returns ErrPostNotFound when no owned row matches.
func (r *PostRepository) Update(ctx context.Context, id, userID string, patch model.PostPatch) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 7)

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *patch.Price)
	}
	if patch.Tags != nil {
		encoded, err := json.Marshal(patch.Tags)
		if err != nil {
			return err
		}
		sets = append(sets, "tags = ?")
		args = append(args, string(encoded))
	}

	sets = append(sets, "last_edit = ?")
	args = append(args, patch.LastEdit, id, userID)

	query := `UPDATE posts SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrPostNotFound
	}

	return nil
}

// Delete removes a post owned by userID. Returns ErrPostNotFound when
// no owned row matches.
func (r *PostRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM posts WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrPostNotFound
	}

	return nil
}

func (r *PostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	return posts, rows.Err()
}

func (r *PostRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.Post, error) {
	var (
		post model.Post
		tags string
	)

	err := row.Scan(
		&post.ID, &post.UserID, &post.Username,
		&post.Title, &post.Description, &post.Price,
		&tags, &post.LastEdit, &post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &post.Tags); err != nil {
		return nil, err
	}

	return &post, nil
}
