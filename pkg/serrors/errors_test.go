package serrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseError_IsMatchesOnCode(t *testing.T) {
	sentinel := NewError("NOT_FOUND", "not found", "Errors.NotFound")
	specific := sentinel.WithMessage("request %d not found", 7)

	wrapped := fmt.Errorf("lookup: %w", specific)
	require.ErrorIs(t, wrapped, sentinel)
	require.NotErrorIs(t, wrapped, NewError("OTHER", "other", ""))
	require.Equal(t, "NOT_FOUND", Code(wrapped))
	require.Equal(t, "request 7 not found", specific.Error())
}

func TestBaseError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError("PERSISTENCE_FAILURE", "write failed", "").Wrap(cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, "write failed: connection reset", err.Error())
}

func TestValidationErrors_ErrorIsSorted(t *testing.T) {
	v := ValidationErrors{"title": "required", "amount": "must be positive"}
	require.Equal(t, "amount: must be positive; title: required", v.Error())
	require.Equal(t, "validation failed", ValidationErrors{}.Error())
}
