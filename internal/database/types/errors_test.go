package types_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/pubky/franky/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabaseError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cause      error
		wantStatus int
		wantPrecon bool
	}{
		{name: "already tagged", cause: types.ErrAlreadyTagged, wantStatus: http.StatusConflict, wantPrecon: true},
		{name: "tag not found", cause: types.ErrTagNotFound, wantStatus: http.StatusNotFound, wantPrecon: true},
		{name: "no tags", cause: types.ErrPostHasNoTags, wantStatus: http.StatusNotFound, wantPrecon: true},
		{name: "row not found", cause: types.ErrRowNotFound, wantStatus: http.StatusNotFound},
		{name: "invalid id", cause: fmt.Errorf("wrapped: %w", types.ErrInvalidPostID), wantStatus: http.StatusBadRequest, wantPrecon: true},
		{name: "invalid kind", cause: types.ErrInvalidKind, wantStatus: http.StatusBadRequest, wantPrecon: true},
		{name: "io failure", cause: errors.New("disk I/O error"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := types.NewDatabaseError(types.ErrorKindSaveFailed, "failed to create post", tt.cause, nil)
			assert.Equal(t, tt.wantStatus, err.StatusCode)
			assert.Equal(t, tt.wantPrecon, types.IsPrecondition(err))
			require.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestDatabaseError_Error(t *testing.T) {
	t.Parallel()

	err := types.NewDatabaseError(types.ErrorKindDeleteFailed, "failed to delete post", types.ErrRowNotFound,
		map[string]any{"postId": "alice:0001", "deleterId": "alice"})

	assert.Equal(t, "DELETE_FAILED: failed to delete post (deleterId=alice, postId=alice:0001): row not found", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, types.IsErrorKind(wrapped, types.ErrorKindDeleteFailed))
	assert.False(t, types.IsErrorKind(wrapped, types.ErrorKindSaveFailed))
	assert.False(t, types.IsErrorKind(types.ErrRowNotFound, types.ErrorKindDeleteFailed))
}
