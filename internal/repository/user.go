package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/artup/artup-api/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
)

const userColumns = `id, username, name, email, password_hash, bio, tags, avatar_url, last_ip, user_agent, last_login, created_at, updated_at`

// UserRepository handles user persistence operations. Uniqueness of
// username and email is guaranteed by unique indexes; the duplicate
// key error is mapped to ErrDuplicateUser.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, name, email, password_hash, bio, tags, avatar_url, last_ip, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	tags, err := encodeTags(user.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Name, user.Email, user.PasswordHash,
		nullString(user.Bio), tags, nullString(user.AvatarURL),
		user.LastIP, user.UserAgent,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateUser
		}
		return err
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByLogin retrieves a user whose username or email matches the
// submitted identifier, so logging in works with either.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? OR email = ?`
	return r.getOne(ctx, query, login, login)
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.getOne(ctx, query, username)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.getOne(ctx, query, email)
}

// Exists reports whether any account already holds the username or the
// email. This is a fast-path check only; the unique indexes are the
// actual guarantee against the check-then-act race.
func (r *UserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = ? OR email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateSettings applies a settings patch to the user row.
func (r *UserRepository) UpdateSettings(ctx context.Context, id string, patch model.UserPatch) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if patch.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *patch.Username)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *patch.PasswordHash)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateUser
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// RecordLogin refreshes last_login, last_ip and user_agent after a
// successful login.
func (r *UserRepository) RecordLogin(ctx context.Context, id string, stamp model.LoginStamp) error {
	query := `UPDATE users SET last_login = ?, last_ip = ?, user_agent = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, stamp.At, stamp.IP, stamp.UserAgent, id)
	return err
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var (
		user      model.User
		bio       sql.NullString
		tags      sql.NullString
		avatarURL sql.NullString
		lastLogin sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Username, &user.Name, &user.Email, &user.PasswordHash,
		&bio, &tags, &avatarURL, &user.LastIP, &user.UserAgent,
		&lastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Bio = bio.String
	user.AvatarURL = avatarURL.String
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &user.Tags); err != nil {
			return nil, err
		}
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}

	return &user, nil
}

// encodeTags marshals a tag set into the JSON column value; an empty
// set is stored as NULL.
func encodeTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry
// error (code 1062).
func isDuplicateEntryError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
