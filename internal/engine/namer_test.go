package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestBlankNamer_Serial tests labels carry a single increasing serial.
func TestBlankNamer_Serial(t *testing.T) {
	n := newBlankNamer(nil)

	assert.Equal(t, "a_1", n.Fresh("a"))
	assert.Equal(t, "b_2", n.Fresh("b"))
	assert.Equal(t, "a_3", n.Fresh("a"))
	assert.Equal(t, int64(3), n.Serial())
}

// TestBlankNamer_Collision tests reserved labels are skipped.
func TestBlankNamer_Collision(t *testing.T) {
	n := newBlankNamer(map[string]struct{}{"a_1": {}, "a_1x": {}})

	assert.Equal(t, "a_1xx", n.Fresh("a"))
}

// TestBlankNamer_DoesNotMutateReserved tests the caller's set is copied.
func TestBlankNamer_DoesNotMutateReserved(t *testing.T) {
	reserved := map[string]struct{}{"x": {}}
	n := newBlankNamer(reserved)
	n.Fresh("x")

	assert.Len(t, reserved, 1)
}
