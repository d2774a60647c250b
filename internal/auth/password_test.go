package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasherWithIterations(minIterations)
	require.NoError(t, err)
	return h
}

func TestHashVerifyRoundtrip(t *testing.T) {
	h := fastHasher(t)

	encoded, err := h.Hash("secret1")
	require.NoError(t, err)

	ok, err := h.Verify("secret1", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("secret2", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashUsesFreshSalt(t *testing.T) {
	h := fastHasher(t)

	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)

	for _, encoded := range []string{a, b} {
		ok, err := h.Verify("same-password", encoded)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestHashEncodingIsSelfDescribing(t *testing.T) {
	h := fastHasher(t)

	encoded, err := h.Hash("secret1")
	require.NoError(t, err)

	parts := strings.Split(encoded, "$")
	require.Len(t, parts, 4)
	assert.Equal(t, "pbkdf2-sha256", parts[0])
}

func TestVerifyCorruptRecord(t *testing.T) {
	h := fastHasher(t)

	for _, encoded := range []string{
		"",
		"not-a-hash",
		"pbkdf2-sha256$10000$only-three",
		"pbkdf2-sha256$abc$c2FsdHNhbHRzYWx0c2FsdA==$aGFzaA==",
		"pbkdf2-sha256$10000$!!!$aGFzaA==",
		"md5$10000$c2FsdHNhbHRzYWx0c2FsdA==$aGFzaA==",
	} {
		ok, err := h.Verify("whatever", encoded)
		assert.False(t, ok, "input %q", encoded)
		assert.True(t, errors.Is(err, ErrCorruptCredential), "input %q", encoded)
	}
}

func TestHasherRejectsWeakIterations(t *testing.T) {
	_, err := NewHasherWithIterations(100)
	assert.Error(t, err)
}
