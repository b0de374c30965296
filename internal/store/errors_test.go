package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNotFoundErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		text string
	}{
		{name: "node", err: ErrNodeNotFound, text: "not found: tree node"},
		{name: "question", err: ErrQuestionNotFound, text: "not found: question"},
		{name: "progress", err: ErrProgressNotFound, text: "not found: question progress"},
		{name: "session", err: ErrSessionNotFound, text: "not found: study session"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			wrapped := fmt.Errorf("load: %w", tc.err)

			assert.ErrorIs(t, wrapped, tc.err)
			assert.ErrorIs(t, wrapped, ErrNotFound)
			assert.ErrorIs(t, wrapped, domain.ErrNotFound)
			assert.NotErrorIs(t, wrapped, ErrDuplicate)
			assert.Contains(t, tc.err.Error(), tc.text)
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     *StoreError
		want    string
		wantIs  error
		wantNil bool
	}{
		{
			name:   "with cause",
			err:    NewStoreError("tree node", "create", "insert failed", ErrDuplicate),
			want:   "store: create tree node: insert failed: entity already exists",
			wantIs: ErrDuplicate,
		},
		{
			name:    "without cause",
			err:     NewStoreError("question", "update tags", "no rows", nil),
			want:    "store: update tags question: no rows",
			wantNil: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.err.Error())
			if tc.wantNil {
				assert.Nil(t, tc.err.Unwrap())
				return
			}
			assert.ErrorIs(t, tc.err, tc.wantIs)

			var target *StoreError
			assert.True(t, errors.As(fmt.Errorf("outer: %w", tc.err), &target))
			assert.Equal(t, "tree node", target.Entity)
		})
	}
}
