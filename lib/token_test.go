package lib_test

import (
	"testing"

	"dutchthrift_server/lib"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomToken(t *testing.T) {
	a, err := lib.GenerateRandomToken()
	require.NoError(t, err)
	b, err := lib.GenerateRandomToken()
	require.NoError(t, err)

	assert.Len(t, a, 44)
	assert.NotEqual(t, a, b)
}

func TestHashToken(t *testing.T) {
	hash := lib.HashToken("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)
	assert.Equal(t, hash, lib.HashToken("abc"))
	assert.NotEqual(t, hash, lib.HashToken("abd"))
}
