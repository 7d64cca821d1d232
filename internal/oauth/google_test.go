package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomState_UniqueAndURLSafe(t *testing.T) {
	a, err := RandomState()
	require.NoError(t, err)
	b, err := RandomState()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "=")
}
