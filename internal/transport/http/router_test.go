package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-user-directory/internal/config"
	"github.com/go-user-directory/internal/domain"
	jwtinfra "github.com/go-user-directory/internal/infrastructure/jwt"
	"github.com/go-user-directory/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo is a tiny in-memory UserRepository for full-router tests.
type fakeUserRepo struct {
	users map[string]*domain.User // keyed by user_id
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) Get(_ context.Context, userID string) (*domain.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) Put(_ context.Context, u *domain.User) error {
	f.users[u.UserID] = u
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, userID string, _ map[string]interface{}) error {
	if _, ok := f.users[userID]; !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUserRepo) ListOrdered(_ context.Context, _ pagination.Field, _ bool, offset, limit int) ([]domain.User, int, error) {
	all := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		all = append(all, *u)
	}
	if offset >= len(all) {
		return []domain.User{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		JWTSecretKey:   "router-test-secret",
		JWTIssuer:      "user-directory",
		JWTAudience:    "user-directory-clients",
		JWTExpiryDays:  3,
		BcryptCost:     bcrypt.MinCost,
		AllowedOrigins: []string{"*"},
	}
	provider, err := jwtinfra.NewProvider(cfg, time.Now)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeUserRepo{users: map[string]*domain.User{
		"u1": {UserID: "u1", Name: "Alice", Email: "alice@example.com", Age: 30, PasswordHash: string(hash)},
	}}

	return NewRouter(cfg, &Deps{UserRepo: repo, JWTProvider: provider})
}

func TestRouter_UsersRequireToken(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_LoginThenList(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	listReq := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	listReq.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, listReq)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"items":1`)
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "nope-nope"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health-check/ping", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
