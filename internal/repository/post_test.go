package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/artup/artup-api/internal/model"
)

func postRows(n int) *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "username", "title", "description", "price", "tags", "last_edit", "created_at",
	})
	for i := 0; i < n; i++ {
		rows.AddRow("post-1", "user-1", "alice1", "Sunset", "oil on canvas", 120.0, `["painting"]`, now, now)
	}
	return rows
}

func TestPostList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM posts ORDER BY created_at, id LIMIT ? OFFSET ?`)).
		WithArgs(10, 0).
		WillReturnRows(postRows(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM posts`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	posts, count, err := repo.List(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("len(posts) = %d, want 2", len(posts))
	}
	if count != 12 {
		t.Errorf("count = %d, want 12", count)
	}
	if posts[0].Tags[0] != "painting" {
		t.Errorf("Tags = %v, want [painting]", posts[0].Tags)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostSearchTitleLowercasesPattern(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM posts WHERE LOWER(title) LIKE ? ORDER BY created_at, id LIMIT ? OFFSET ?`)).
		WithArgs("%cat%", 10, 0).
		WillReturnRows(postRows(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM posts WHERE LOWER(title) LIKE ?`)).
		WithArgs("%cat%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, count, err := repo.SearchTitle(context.Background(), "CAT", 0, 10)
	if err != nil {
		t.Fatalf("SearchTitle() unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostMatchingTagsUsesJSONOverlaps(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM posts WHERE JSON_OVERLAPS(tags, CAST(? AS JSON)) ORDER BY created_at, id LIMIT ? OFFSET ?`)).
		WithArgs(`["oil"]`, 10, 0).
		WillReturnRows(postRows(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM posts WHERE JSON_OVERLAPS(tags, CAST(? AS JSON))`)).
		WithArgs(`["oil"]`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	posts, _, err := repo.MatchingTags(context.Background(), []string{"oil"}, 0, 10)
	if err != nil {
		t.Fatalf("MatchingTags() unexpected error: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("len(posts) = %d, want 1", len(posts))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostGetOwnedNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM posts WHERE id = ? AND user_id = ?`)).
		WithArgs("post-1", "user-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetOwned(context.Background(), "post-1", "user-2")
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("GetOwned() error = %v, want ErrPostNotFound", err)
	}
}

func TestPostUpdateScopedByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	title := "Renamed"
	patch := model.PostPatch{Title: &title, LastEdit: time.Now().UTC()}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE posts SET title = ?, last_edit = ? WHERE id = ? AND user_id = ?`)).
		WithArgs(title, patch.LastEdit, "post-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "post-1", "user-2", patch)
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Update() error = %v, want ErrPostNotFound for non-owner", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE id = ? AND user_id = ?`)).
		WithArgs("post-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "post-1", "user-1"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
}

func TestPostDeleteNotOwned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE id = ? AND user_id = ?`)).
		WithArgs("post-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "post-1", "user-2")
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Delete() error = %v, want ErrPostNotFound", err)
	}
}
