// Package auth implements credential login: look the account up by email,
// verify the secret against its bcrypt hash, mint an access token.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-user-directory/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Response is the successful login payload: the signed access token plus the
// public projection of the account (PasswordHash is json:"-" on domain.User).
type Response struct {
	AccessToken string       `json:"accessToken"`
	User        *domain.User `json:"user"`
}

type Service interface {
	Login(ctx context.Context, email, password string) (*Response, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type tokenSigner interface {
	Sign(email, userID string) (string, error)
}

type service struct {
	users  userStore
	signer tokenSigner
}

func NewService(users userStore, signer tokenSigner) Service {
	return &service{users: users, signer: signer}
}

// dummyHash is a bcrypt digest of a throwaway value. When no account matches
// the email, Login still runs one comparison against it (result ignored) so
// the unknown-email path costs about as much as the wrong-password path and
// response timing does not reveal whether the account exists.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Login verifies the credential pair and returns a signed token. Unknown
// email and wrong password produce the identical unauthorized error; callers
// must not be able to tell which part was wrong.
func (s *service) Login(ctx context.Context, email, password string) (*Response, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, errInvalidCredentials()
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials()
	}
	token, err := s.signer.Sign(u.Email, u.UserID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Response{AccessToken: token, User: u}, nil
}

func errInvalidCredentials() error {
	return fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
}
