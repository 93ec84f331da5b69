package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID()
	assert.False(t, id.IsZero())
	assert.NoError(t, id.Validate())
	assert.NotEqual(t, id, NewID())
}

func TestParseID(t *testing.T) {
	upper := strings.ToUpper("6ba7b810-9dad-41d1-80b4-00c04fd430c8")
	id, err := ParseID(upper)
	require.NoError(t, err)
	assert.Equal(t, "6ba7b810-9dad-41d1-80b4-00c04fd430c8", id.String(), "canonical lower case")

	_, err = ParseID("")
	assert.Error(t, err)
	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)

	assert.Error(t, ID("run-1").Validate())
	assert.True(t, ID("").IsZero())
}
