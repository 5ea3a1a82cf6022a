package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/artup/artup-api/internal/middleware"
	"github.com/artup/artup-api/internal/model"
	"github.com/artup/artup-api/internal/repository"
	"github.com/artup/artup-api/internal/service"
)

// memUserRepo backs the auth service for handler tests.
type memUserRepo struct {
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (m *memUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == login || u.Email == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) UpdateSettings(ctx context.Context, id string, patch model.UserPatch) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	return nil
}

func (m *memUserRepo) RecordLogin(ctx context.Context, id string, stamp model.LoginStamp) error {
	if u, ok := m.users[id]; ok {
		u.LastIP = stamp.IP
		u.UserAgent = stamp.UserAgent
		at := stamp.At
		u.LastLogin = &at
	}
	return nil
}

const testSecret = "test-secret"

func newUserRouter(t *testing.T) *chi.Mux {
	t.Helper()

	svc := service.NewAuthService(newMemUserRepo(), testSecret, 20*24*time.Hour)
	h := NewAuthHandler(svc)

	r := chi.NewRouter()
	r.Route("/user", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)
		r.Get("/data/{id}", h.HandleGetPublicProfile)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(testSecret))
			r.Get("/data", h.HandleGetProfile)
			r.Patch("/data", h.HandleUpdateSettings)
		})
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginProfileScenario(t *testing.T) {
	router := newUserRouter(t)

	// Register.
	rec := doJSON(t, router, http.MethodPost, "/user/register", "",
		`{"username":"alice1","name":"Alice Example","email":"a@x.com","password":"password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("register response leaks the password field")
	}

	// Login returns the token in both the body and the header.
	rec = doJSON(t, router, http.MethodPost, "/user/login", "",
		`{"username":"alice1","password":"password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var loginResp model.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if loginResp.Token == "" {
		t.Fatal("login response has no token")
	}
	if got := rec.Header().Get("Authorization"); got != loginResp.Token {
		t.Errorf("Authorization header = %q, want the issued token", got)
	}

	// Guarded profile fetch with the token.
	rec = doJSON(t, router, http.MethodGet, "/user/data", loginResp.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var profileResp struct {
		UserData model.User `json:"userData"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &profileResp); err != nil {
		t.Fatalf("decoding profile response: %v", err)
	}
	if profileResp.UserData.Username != "alice1" {
		t.Errorf("profile username = %q, want %q", profileResp.UserData.Username, "alice1")
	}
	if profileResp.UserData.Email != "a@x.com" {
		t.Errorf("profile email = %q, want %q", profileResp.UserData.Email, "a@x.com")
	}
	if strings.Contains(rec.Body.String(), "$argon2id$") {
		t.Error("full profile leaks the password hash")
	}

	// No token is Unauthorized.
	rec = doJSON(t, router, http.MethodGet, "/user/data", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated profile status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRegisterConflictStatus(t *testing.T) {
	router := newUserRouter(t)

	body := `{"username":"alice1","name":"Alice Example","email":"a@x.com","password":"password123"}`
	if rec := doJSON(t, router, http.MethodPost, "/user/register", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d, want %d", rec.Code, http.StatusCreated)
	}

	// Same username, different email.
	rec := doJSON(t, router, http.MethodPost, "/user/register", "",
		`{"username":"alice1","name":"Alice Example","email":"b@x.com","password":"password123"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestLoginUnknownUserStatus(t *testing.T) {
	router := newUserRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/user/login", "",
		`{"username":"nobody1","password":"password123"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("login status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPublicProfileOmitsPrivateFields(t *testing.T) {
	router := newUserRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/user/register", "",
		`{"username":"alice1","name":"Alice Example","email":"a@x.com","password":"password123","bio":"painter"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d", rec.Code, http.StatusCreated)
	}

	// Fetch the id through a login + guarded profile read.
	rec = doJSON(t, router, http.MethodPost, "/user/login", "",
		`{"username":"alice1","password":"password123"}`)
	var loginResp model.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	rec = doJSON(t, router, http.MethodGet, "/user/data", loginResp.Token, "")
	var profileResp struct {
		UserData model.User `json:"userData"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &profileResp); err != nil {
		t.Fatalf("decoding profile response: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, "/user/data/"+profileResp.UserData.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("public profile status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	body := rec.Body.String()
	if strings.Contains(body, "a@x.com") {
		t.Error("public profile leaks the email")
	}
	if strings.Contains(body, "lastIp") || strings.Contains(body, "userAgent") {
		t.Error("public profile leaks client metadata")
	}
	if !strings.Contains(body, "painter") {
		t.Error("public profile is missing the bio")
	}
}
