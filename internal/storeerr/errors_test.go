package storeerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := IO("append", "/db/arena", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestErrorIsComparesByKindNotValue(t *testing.T) {
	a := Store("set", "", fmt.Errorf("boom"))
	b := Store("get", "", fmt.Errorf("different boom"))
	assert.True(t, errors.Is(a, b), "two *Error values of the same Kind must satisfy errors.Is regardless of Op/Err")
}

func TestCancelledSentinelMatches(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Cancelled)
	assert.True(t, errors.Is(err, Cancelled))
}

func TestIncompatibleVersionMessageNamesBothVersions(t *testing.T) {
	err := IncompatibleVersion(3, 4)
	var serr *Error
	assert.True(t, errors.As(err, &serr))
	assert.Equal(t, KindIncompatibleVersion, serr.Kind)
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "4")
}
