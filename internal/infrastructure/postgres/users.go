package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-user-directory/internal/domain"
	"github.com/go-user-directory/internal/pagination"
	"github.com/jackc/pgx/v5/pgconn"
)

// UserRepo provides typed PostgreSQL operations for the users table.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `user_id, name, email, age, password_hash, created_at, updated_at`

// sortColumns maps sortable fields to their columns. ListOrdered never
// interpolates caller input into SQL; only values from this map reach the
// ORDER BY clause.
var sortColumns = map[pagination.Field]string{
	pagination.FieldName:    "name",
	pagination.FieldEmail:   "email",
	pagination.FieldAge:     "age",
	pagination.FieldCreated: "created_at",
}

// updatable is the set of columns Update accepts in its partial-update map.
var updatable = map[string]bool{
	"name":          true,
	"email":         true,
	"age":           true,
	"password_hash": true,
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	const query = `INSERT INTO users (` + userColumns + `)
	               VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		u.UserID, u.Name, u.Email, u.Age, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.getOne(ctx, query, userID)
}

// GetByEmail looks up a user by exact email match. Comparison is
// case-sensitive: the address is matched as stored.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// Update applies a partial update. Keys must be columns from the updatable
// set; updated_at is always refreshed.
func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	cols := make([]string, 0, len(updates))
	for col := range updates {
		if !updatable[col] {
			return fmt.Errorf("column %q is not updatable: %w", col, domain.ErrBadRequest)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	set := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+2)
	for i, col := range cols {
		set = append(set, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, updates[col])
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", len(cols)+1))
	args = append(args, time.Now().UTC())
	args = append(args, userID)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE user_id = $%d`,
		strings.Join(set, ", "), len(cols)+2)
	res, err := r.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// ListOrdered returns one window of the directory ordered by the given field
// plus the total row count. Ties are broken by user_id so the ordering is
// deterministic across calls. The count runs as a second query; under
// concurrent writes the total may be stale relative to the window, which is
// an accepted property of the listing, not something to serialize away.
func (r *UserRepo) ListOrdered(ctx context.Context, field pagination.Field, desc bool, offset, limit int) ([]domain.User, int, error) {
	col, ok := sortColumns[field]
	if !ok {
		return nil, 0, fmt.Errorf("field %q is not sortable: %w", field, domain.ErrBadRequest)
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY %s %s, user_id LIMIT $1 OFFSET $2`,
		userColumns, col, dir)

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner, u *domain.User) error {
	return row.Scan(&u.UserID, &u.Name, &u.Email, &u.Age, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var u domain.User
	if err := scanUser(r.db.QueryRowContext(ctx, query, arg), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
