package model

import "time"

// User represents a user account in the database.
// PasswordHash is never serialized.
type User struct {
	ID           string     `json:"_id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Bio          string     `json:"bio,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	AvatarURL    string     `json:"avatarURL,omitempty"`
	LastIP       string     `json:"lastIp"`
	UserAgent    string     `json:"userAgent"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"dateCreated"`
	UpdatedAt    time.Time  `json:"-"`
}

// PublicProfile is the projection of a user visible without
// authentication: no email, tags, IP, agent or login history.
type PublicProfile struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarURL,omitempty"`
}

// PublicProfile returns the public projection of the user.
func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
	}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username  string   `json:"username"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Bio       string   `json:"bio"`
	Tags      []string `json:"tags"`
	AvatarURL string   `json:"avatarURL"`
}

// LoginRequest represents a login request. Username carries either the
// username or the email address; both columns are matched on lookup.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateSettingsRequest represents a PATCH /user/data request. All
// fields are optional but at least one must be present.
type UpdateSettingsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPatch carries the resolved settings changes applied to a user row.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil
}

// LoginStamp records the metadata refreshed on every successful login.
type LoginStamp struct {
	IP        string
	UserAgent string
	At        time.Time
}

// AuthResponse represents a successful login response. The same token
// is also echoed in the Authorization response header.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
