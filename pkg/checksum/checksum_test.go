// Test Type: Unit Test
// Description: Tests for the checksum package - streamed hashing and per-run memoization

package checksum_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebhs/mdrive/pkg/checksum"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestHasherFile(t *testing.T) {
	t.Run("known_digest", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "abc.txt", "abc")

		sum, err := checksum.NewHasher().File(path)
		require.NoError(t, err)
		// sha1("abc")
		assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", sum)
	})

	t.Run("deterministic_across_hashers", func(t *testing.T) {
		dir := t.TempDir()
		a := writeFile(t, dir, "a.mp3", "same bytes")
		b := writeFile(t, dir, "b.mp3", "same bytes")

		sumA, err := checksum.NewHasher().File(a)
		require.NoError(t, err)
		sumB, err := checksum.NewHasher().File(b)
		require.NoError(t, err)
		assert.Equal(t, sumA, sumB)
	})

	t.Run("second_call_does_not_reread", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "song.mp3", "original")

		h := checksum.NewHasher()
		first, err := h.File(path)
		require.NoError(t, err)

		// Change the bytes behind the hasher's back; a cached result
		// must come back untouched.
		require.NoError(t, os.WriteFile(path, []byte("rewritten"), 0644))

		second, err := h.File(path)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("missing_file_errors", func(t *testing.T) {
		_, err := checksum.NewHasher().File(filepath.Join(t.TempDir(), "gone.mp3"))
		assert.Error(t, err)
	})
}

func TestFragment(t *testing.T) {
	assert.Equal(t, "deadbeef", checksum.Fragment("deadbeef00112233445566778899aabbccddeeff"))
	assert.Equal(t, "abc", checksum.Fragment("abc"))
}
