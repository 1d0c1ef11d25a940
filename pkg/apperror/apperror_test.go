package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"transient", New(TransientProvider, "timeout"), TransientProvider},
		{"permanent", New(PermanentProvider, "bad symbol"), PermanentProvider},
		{"wrapped", fmt.Errorf("fetch AAPL: %w", New(Validation, "negative price")), Validation},
		{"plain error defaults to persistence", errors.New("boom"), Persistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(New(TransientProvider, "rate limited")))
	assert.True(t, IsTransient(fmt.Errorf("outer: %w", New(TransientProvider, "503"))))
	assert.False(t, IsTransient(New(PermanentProvider, "401")))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(TransientProvider, cause, "fetch quote")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch quote")
	assert.Contains(t, err.Error(), "connection reset")

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, TransientProvider, appErr.Code())
}
