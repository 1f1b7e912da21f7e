package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	plain := New(KindNotFound, "connection missing")
	assert.Equal(t, "[not_found] connection missing", plain.Error())

	wrapped := Wrap(KindQueryFailed, "statement failed", errors.New("syntax error"))
	assert.Equal(t, "[query_failed] statement failed: syntax error", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(KindConnectionFailed, "cannot open pool", cause)

	assert.True(t, errors.Is(err, cause))

	// The kind survives another layer of fmt wrapping.
	outer := fmt.Errorf("while connecting: %w", err)
	assert.Equal(t, KindConnectionFailed, KindOf(outer))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"not found", New(KindNotFound, "x"), IsNotFound},
		{"timeout", New(KindTimeout, "x"), IsTimeout},
		{"connection failed", New(KindConnectionFailed, "x"), IsConnectionFailed},
		{"query failed", New(KindQueryFailed, "x"), IsQueryFailed},
		{"invalid config", New(KindInvalidConfig, "x"), IsInvalidConfig},
		{"invalid input", New(KindInvalidInput, "x"), IsInvalidInput},
		{"permission denied", New(KindPermissionDenied, "x"), IsPermissionDenied},
		{"unsupported dialect", New(KindUnsupportedDialect, "x"), IsUnsupportedDialect},
		{"contract violation", New(KindContractViolation, "x"), IsContractViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			assert.False(t, tt.pred(errors.New("unclassified")))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindTimeout, KindOf(Newf(KindTimeout, "after %d ms", 500)))
}

func TestWrapf(t *testing.T) {
	cause := errors.New("boom")
	err := Wrapf(KindQueryFailed, cause, "statement %d of %d failed", 2, 3)

	require.Equal(t, KindQueryFailed, KindOf(err))
	assert.Contains(t, err.Error(), "statement 2 of 3 failed")
	assert.True(t, errors.Is(err, cause))
}
