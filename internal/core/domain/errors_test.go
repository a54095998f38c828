package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrValidation", ErrValidation},
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrTransport", ErrTransport},
		{"ErrConcurrencyDrift", ErrConcurrencyDrift},
		{"ErrSaving", ErrSaving},
		{"ErrNotImplemented", ErrNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that sentinels do not match each other
func TestErrors_Distinct(t *testing.T) {
	all := []error{ErrValidation, ErrNotFound, ErrAlreadyExists, ErrTransport, ErrConcurrencyDrift, ErrSaving}
	for i, a := range all {
		for j, b := range all {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
		empty    bool
	}{
		{name: "nil", err: nil, empty: true},
		{name: "drift is silent", err: fmt.Errorf("fetch page: %w", ErrConcurrencyDrift), empty: true},
		{name: "not found hints refresh", err: fmt.Errorf("memo m1: %w", ErrNotFound), contains: "Refresh"},
		{name: "saving", err: ErrSaving, contains: "saving"},
		{name: "validation keeps detail", err: fmt.Errorf("%w: memo body is empty", ErrValidation), contains: "memo body is empty"},
		{name: "transport", err: fmt.Errorf("POST /api/memos: %w", ErrTransport), contains: "not saved"},
		{name: "other", err: errors.New("boom"), contains: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := UserMessage(tt.err)
			if tt.empty {
				assert.Empty(t, msg)
				return
			}
			assert.Contains(t, msg, tt.contains)
		})
	}
}
