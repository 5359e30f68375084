package printing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobError_Is(t *testing.T) {
	timeout := NewRenderError(ErrCodeRenderTimeout, "render timed out", nil)
	wrapped := fmt.Errorf("stage render: %w", timeout)

	assert.True(t, errors.Is(wrapped, ErrRender))
	assert.True(t, errors.Is(wrapped, ErrRenderTimeout))
	assert.False(t, errors.Is(wrapped, ErrDispatch))

	noPages := NewRenderError(ErrCodeNoPages, "no pages", nil)
	assert.True(t, errors.Is(noPages, ErrRender))
	assert.False(t, errors.Is(noPages, ErrRenderTimeout))
}

func TestJobError_UnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStagingError(ErrCodeWriteFailed, "File save failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrStaging))
	assert.Equal(t, "File save failed: disk full", err.Error())
	assert.Equal(t, "File save failed", NewStagingError(ErrCodeFileMissing, "File save failed", nil).Error())
}

func TestAsJobError(t *testing.T) {
	assert.Nil(t, AsJobError(nil))

	original := NewIngressError(ErrCodeMissingFile, "No file uploaded", nil)
	assert.Same(t, original, AsJobError(fmt.Errorf("wrapped: %w", original)))

	plain := errors.New("boom")
	got := AsJobError(plain)
	require.NotNil(t, got)
	assert.Equal(t, ErrorKindDispatch, got.Kind)
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.True(t, errors.Is(got, plain))
}
