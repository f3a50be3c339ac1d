package password

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashIsSaltedPerCall(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	second, err := h.Hash("Passw0rd!")
	require.NoError(t, err)

	require.NotEqual(t, first, second, "two hashes of the same plaintext must differ")
	require.NotEqual(t, "Passw0rd!", first, "digest must never equal the plaintext")

	require.True(t, h.Verify("Passw0rd!", first))
	require.True(t, h.Verify("Passw0rd!", second))
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("correct horse")
	require.NoError(t, err)

	require.False(t, h.Verify("wrong horse", digest))
	require.False(t, h.Verify("", digest))
}

func TestVerifyMalformedDigestReturnsFalse(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	require.False(t, h.Verify("anything", ""))
	require.False(t, h.Verify("anything", "not-a-bcrypt-digest"))
	require.False(t, h.Verify("anything", "$2a$garbage"))
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	h := NewBcryptHasher(1000)
	require.Equal(t, bcrypt.DefaultCost, h.cost)

	h = NewBcryptHasher(-1)
	require.Equal(t, bcrypt.DefaultCost, h.cost)
}
