package lib_test

import (
	"strings"
	"testing"

	"dutchthrift_server/lib"
	"dutchthrift_server/structs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testArgon = structs.ArgonParams{Memory: 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHashPassword_Verify(t *testing.T) {
	hash, err := lib.HashPassword("correct horse battery", testArgon)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := lib.VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lib.VerifyPassword("wrong horse battery", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := lib.HashPassword("same", testArgon)
	require.NoError(t, err)
	b, err := lib.HashPassword("same", testArgon)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecodeArgon2Hash_Invalid(t *testing.T) {
	_, err := lib.DecodeArgon2Hash("not-a-hash")
	assert.ErrorIs(t, err, lib.ErrInvalidHash)

	_, err = lib.VerifyPassword("x", "$argon2id$v=1$m=1024,t=1,p=1$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, lib.ErrIncompatibleVersion)
}
