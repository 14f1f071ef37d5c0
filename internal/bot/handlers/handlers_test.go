package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAdmin(t *testing.T) {
	h := &Handlers{adminID: 42}
	assert.True(t, h.isAdmin(42))
	assert.False(t, h.isAdmin(7))

	// Unset admin id grants access to nobody, not everybody.
	unset := &Handlers{}
	assert.False(t, unset.isAdmin(0))
	assert.False(t, unset.isAdmin(42))
}
