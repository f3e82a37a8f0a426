package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"record not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), ErrNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, ErrDuplicate},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"postgres lock timeout", &pgconn.PgError{Code: "55P03"}, ErrSystem},
		{"anything else", errors.New("connection reset"), ErrSystem},
		{"validation passes through", Invalid("amount", "must be positive"), ErrValidation},
		{"state passes through", &StateError{Message: "settled"}, ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("load thing", tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}

	assert.NoError(t, classify("noop", nil))
}

func TestSystemError_HidesCause(t *testing.T) {
	err := classify("update bank account", errors.New("pq: password authentication failed"))
	assert.Equal(t, "update bank account: internal error", err.Error())
}

func TestValidationError_ListsEveryField(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("description", "is required")
	verr.Add("amount", "must be positive")
	verr.Add("amount", "must have at most 2 decimal places")

	assert.True(t, verr.HasErrors())
	assert.Equal(t, "validation failed: amount: must be positive; must have at most 2 decimal places, description: is required", verr.Error())
}
