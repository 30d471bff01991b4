package exception

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestException_Error(t *testing.T) {
	ex := New(http.StatusNotFound, 1, "User was not found", "")
	assert.Equal(t, "[404/1] User was not found", ex.Error())

	ex = New(http.StatusBadRequest, 100, "public", "private detail")
	assert.Equal(t, "[400/100] private detail", ex.Error())

	ex.WithCause(errors.New("boom"))
	assert.Equal(t, "[400/100] private detail: boom", ex.Error())
}

func TestException_IsStatusClass(t *testing.T) {
	notFound := New(http.StatusNotFound, 101, "Resource was not found", "")
	badRequest := New(http.StatusBadRequest, 100, "Resource was not found", "")

	assert.True(t, errors.Is(notFound, ErrNotFound))
	assert.False(t, errors.Is(notFound, ErrBadRequest))
	assert.True(t, IsBadRequest(badRequest))
	assert.False(t, IsNotFound(badRequest))
	assert.True(t, errors.Is(New(http.StatusServiceUnavailable, 0, "", ""), ErrInternal))
}

func TestException_WrappedAndUnwrapped(t *testing.T) {
	cause := errors.New("driver failure")
	ex := New(http.StatusInternalServerError, 500, "Internal error", "").WithCause(cause)
	wrapped := fmt.Errorf("find user: %w", ex)

	assert.True(t, errors.Is(wrapped, cause))
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", New(http.StatusNotFound, 1, "", ""))))

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, 500, got.Code)

	_, ok = As(cause)
	assert.False(t, ok)
}
