package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(TestParams())

	encoded, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := h.Verify(encoded, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(encoded, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_UniqueSalts(t *testing.T) {
	h := NewHasher(TestParams())

	a, err := h.Hash("samepassword")
	require.NoError(t, err)
	b, err := h.Hash("samepassword")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_OldParamsStillVerify(t *testing.T) {
	old := NewHasher(TestParams())
	encoded, err := old.Hash("migrating password")
	require.NoError(t, err)

	// A hasher with different params must still verify hashes produced
	// under the embedded parameters.
	current := NewHasher(DefaultParams())
	ok, err := current.Verify(encoded, "migrating password")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_Malformed(t *testing.T) {
	h := NewHasher(TestParams())

	for _, encoded := range []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	} {
		ok, err := h.Verify(encoded, "whatever")
		assert.Error(t, err, "input %q", encoded)
		assert.False(t, ok)
	}
}
