package notesstore

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeRunKey_BareCommand(t *testing.T) {
	key := EncodeRunKey("npm test", "")
	assert.Equal(t, url.PathEscape("npm test"), key)
}

func TestEncodeRunKey_WithWorkdir(t *testing.T) {
	key := EncodeRunKey("npm test", "packages/api")
	assert.Contains(t, key, "npm")
	assert.NotEqual(t, EncodeRunKey("npm test", ""), key, "workdir must change the key")
}

func TestRunRef(t *testing.T) {
	ref, err := RunRef("abc123")
	assert.NoError(t, err)
	assert.Equal(t, "refs/notes/vibe-validate/run/abc123", ref)
}

func TestRunRef_RejectsUnsafeTreeHash(t *testing.T) {
	_, err := RunRef("not-a-hash!")
	assert.Error(t, err)
}

func TestRunRef_AllowsSHA256CompositeHash(t *testing.T) {
	// A submodule-aware composite hash (§4.2) is a SHA-256 digest, 64
	// hex chars — longer than a raw git tree-ish but still ref-safe.
	hash := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcd"
	ref, err := RunRef(hash)
	assert.NoError(t, err)
	assert.Equal(t, "refs/notes/vibe-validate/run/"+hash, ref)
}

func TestValidateRefConstant(t *testing.T) {
	assert.Equal(t, "refs/notes/vibe-validate/validate", ValidateRef)
}
