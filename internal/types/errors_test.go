package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMirrorErrorMessages(t *testing.T) {
	cause := errors.New("exit status 1")
	entry := ImageEntry{Line: 3, Source: "library/nginx:1.25"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "configuration with items",
			err:  NewConfigurationError("missing required settings", []string{"A", "B"}, nil),
			want: "missing required settings: A, B",
		},
		{
			name: "authentication",
			err:  NewAuthenticationError("registry.example.com", cause),
			want: "login to registry.example.com failed: exit status 1",
		},
		{
			name: "pull",
			err:  NewTransferError(StepPull, entry, "r/ns/nginx:1.25", cause),
			want: "pull of library/nginx:1.25 failed (line 3): exit status 1",
		},
		{
			name: "push",
			err:  NewTransferError(StepPush, entry, "r/ns/nginx:1.25", cause),
			want: "push of library/nginx:1.25 -> r/ns/nginx:1.25 failed (line 3): exit status 1",
		},
		{
			name: "cleanup",
			err:  NewCleanupWarning("nginx:latest", cause),
			want: "failed to remove local image nginx:latest: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestIsErrorType(t *testing.T) {
	cause := errors.New("denied")
	err := fmt.Errorf("run failed: %w", NewAuthenticationError("r", cause))

	assert.True(t, IsErrorType(err, ErrTypeAuthentication))
	assert.False(t, IsErrorType(err, ErrTypeTransfer))
	assert.False(t, IsErrorType(cause, ErrTypeAuthentication))
	assert.ErrorIs(t, err, cause)
}

func TestTransferErrorContext(t *testing.T) {
	entry := ImageEntry{Line: 7, Source: "redis:7"}
	err := NewTransferError(StepTag, entry, "r/ns/redis:7", errors.New("boom"))

	var mErr *MirrorError
	if assert.ErrorAs(t, err, &mErr) {
		assert.Equal(t, StepTag, mErr.Step)
		assert.Equal(t, "r/ns/redis:7", mErr.Destination)
		assert.Equal(t, 7, mErr.Entry.Line)
		assert.Equal(t, "transfer", mErr.Type.String())
	}
}
