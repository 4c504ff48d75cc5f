package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/go-user-directory/internal/domain"
	"github.com/go-user-directory/internal/pagination"
	"github.com/stretchr/testify/assert"
)

// The repo's SQL paths need a live database; what is covered here are the
// guards that must hold before any query is issued.

func TestListOrdered_RejectsUnsortableField(t *testing.T) {
	r := NewUserRepo(nil)
	_, _, err := r.ListOrdered(context.Background(), pagination.Field("password_hash"), false, 0, 10)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdate_RejectsUnknownColumn(t *testing.T) {
	r := NewUserRepo(nil)
	err := r.Update(context.Background(), "u1", map[string]interface{}{"role": "admin"})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdate_EmptyMapIsNoop(t *testing.T) {
	r := NewUserRepo(nil)
	assert.NoError(t, r.Update(context.Background(), "u1", nil))
}

func TestSortColumns_CoverEverySortableField(t *testing.T) {
	for _, f := range []pagination.Field{
		pagination.FieldName, pagination.FieldEmail, pagination.FieldAge, pagination.FieldCreated,
	} {
		_, ok := sortColumns[f]
		assert.Truef(t, ok, "no column mapping for %q", f)
	}
}
