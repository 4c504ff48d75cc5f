// Package user is the directory facade: CRUD over user records plus the
// paginated, sorted listing and its CSV export.
package user

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-user-directory/internal/domain"
	"github.com/go-user-directory/internal/pagination"
	"github.com/go-user-directory/internal/pkg/id"
	"github.com/go-user-directory/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// Column names used in partial update maps.
const (
	fieldName         = "name"
	fieldEmail        = "email"
	fieldAge          = "age"
	fieldPasswordHash = "password_hash"
)

type Service interface {
	List(ctx context.Context, page, perPage int, sort string) (pagination.Result[domain.User], error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	ExportCSV(ctx context.Context, w io.Writer, page, perPage int, sort string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
	ListOrdered(ctx context.Context, field pagination.Field, desc bool, offset, limit int) ([]domain.User, int, error)
}

type service struct {
	repo       userStore
	bcryptCost int
}

type ServiceDeps struct {
	UserRepo   userStore
	BcryptCost int // 0 means bcrypt.DefaultCost
}

func NewService(deps ServiceDeps) Service {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{repo: deps.UserRepo, bcryptCost: cost}
}

// List returns one window of the directory with navigation metadata.
// Non-positive page/perPage fall back to defaults; an unknown sort field is
// rejected rather than silently ignored.
func (s *service) List(ctx context.Context, page, perPage int, sort string) (pagination.Result[domain.User], error) {
	page, perPage = pagination.Normalize(page, perPage)
	srt, err := pagination.ParseSort(sort)
	if err != nil {
		return pagination.Result[domain.User]{}, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	users, total, err := s.repo.ListOrdered(ctx, srt.Field, srt.Descending, pagination.Offset(page, perPage), perPage)
	if err != nil {
		return pagination.Result[domain.User]{}, err
	}
	return pagination.NewResult(page, perPage, total, users), nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *service) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         req.Name,
		Email:        req.Email,
		Age:          req.Age,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[fieldName] = *req.Name
	}
	if req.Email != nil {
		if existing, err := s.repo.GetByEmail(ctx, *req.Email); err == nil && existing.UserID != userID {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		updates[fieldEmail] = *req.Email
	}
	if req.Age != nil {
		updates[fieldAge] = *req.Age
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost)
		if err != nil {
			return nil, err
		}
		updates[fieldPasswordHash] = string(hash)
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

// ExportCSV streams the requested window as CSV rows (Name, Email, Age).
// Callers that want the whole directory pass a perPage large enough to cover
// it; normalization never caps the page size.
func (s *service) ExportCSV(ctx context.Context, w io.Writer, page, perPage int, sort string) error {
	result, err := s.List(ctx, page, perPage, sort)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Email", "Age"}); err != nil {
		return err
	}
	for _, u := range result.Data {
		if err := cw.Write([]string{u.Name, u.Email, strconv.Itoa(u.Age)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
