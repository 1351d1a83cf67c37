package registry

import (
	"errors"
	"testing"

	"tamil_society/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry[int]()

	isNew, err := r.Register("a", 1)
	assert.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = r.Register("a", 2)
	assert.NoError(t, err)
	assert.False(t, isNew)

	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, _ = r.Register("b", 3)
	assert.Equal(t, []string{"a", "b"}, r.Names())
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry[string]()

	_, err := r.Register("", "x")
	assert.True(t, errors.Is(err, common.ErrRequiredField))

	_, err = r.MustGet("missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
