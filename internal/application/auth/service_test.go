package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/go-user-directory/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(email, userID string) (string, error) {
	args := m.Called(email, userID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func aliceUser(t *testing.T) *domain.User {
	return &domain.User{
		UserID:       "u1",
		Name:         "Alice",
		Email:        "alice@example.com",
		Age:          30,
		PasswordHash: hashOf(t, "correct horse"),
	}
}

// --- tests ---

func TestLogin_Success(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(aliceUser(t), nil)
	signer := &mockSigner{}
	signer.On("Sign", "alice@example.com", "u1").Return("signed.jwt.token", nil)

	resp, err := NewService(us, signer).Login(context.Background(), "alice@example.com", "correct horse")

	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", resp.AccessToken)
	assert.Equal(t, "u1", resp.User.UserID)
	us.AssertExpectations(t)
	signer.AssertExpectations(t)
}

func TestLogin_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)
	signer := &mockSigner{}

	_, err := NewService(us, signer).Login(context.Background(), "ghost@example.com", "whatever")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	signer.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything)
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(aliceUser(t), nil)
	signer := &mockSigner{}

	_, err := NewService(us, signer).Login(context.Background(), "alice@example.com", "wrong")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	signer.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything)
}

func TestLogin_FailureCausesAreIndistinguishable(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(aliceUser(t), nil)
	svc := NewService(us, &mockSigner{})

	_, errUnknown := svc.Login(context.Background(), "ghost@example.com", "whatever")
	_, errWrong := svc.Login(context.Background(), "alice@example.com", "wrong")

	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLogin_StoreFailureIsNotUnauthorized(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, errors.New("connection refused"))

	_, err := NewService(us, &mockSigner{}).Login(context.Background(), "alice@example.com", "correct horse")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_SignerFailurePropagates(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(aliceUser(t), nil)
	signer := &mockSigner{}
	signer.On("Sign", "alice@example.com", "u1").Return("", errors.New("no key"))

	_, err := NewService(us, signer).Login(context.Background(), "alice@example.com", "correct horse")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}
