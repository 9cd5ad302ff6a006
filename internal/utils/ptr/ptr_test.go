package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTo(t *testing.T) {
	s := "test"
	p := To(s)
	if assert.NotNil(t, p) {
		assert.Equal(t, s, *p)
	}
	assert.NotSame(t, &s, p)
}

func TestDeref(t *testing.T) {
	assert.Equal(t, 0, Deref[int](nil))
	assert.Equal(t, "x", Deref(String("x")))
	assert.True(t, Deref(Bool(true)))
}

func TestValueOr(t *testing.T) {
	assert.Equal(t, 7, ValueOr(nil, 7))
	assert.Equal(t, 3, ValueOr(Int(3), 7))
}

func TestNonEmpty(t *testing.T) {
	assert.Nil(t, NonEmpty(""))
	assert.Equal(t, "a", *NonEmpty("a"))
}
