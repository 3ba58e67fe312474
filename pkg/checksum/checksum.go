// Package checksum computes content hashes of library files with
// per-run memoization, so a file is read at most once per run no
// matter how often its hash is needed.
package checksum

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/calebhs/mdrive/pkg/errors"
	"github.com/calebhs/mdrive/pkg/logging"
)

// FragmentLen is the number of hex characters used to disambiguate
// shuffled file names. 8 hex chars give a 40-bit space per basename,
// which the design accepts as collision-negligible.
const FragmentLen = 8

// Hasher computes streamed SHA-1 content hashes, cached per absolute
// path for the lifetime of a run. Not safe for concurrent use; the
// engine is single-threaded.
type Hasher struct {
	cache  map[string]string
	logger zerolog.Logger
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{
		cache:  make(map[string]string),
		logger: logging.GetLogger("checksum"),
	}
}

// File returns the hex-encoded SHA-1 of the file's content. Repeated
// calls for the same path return the cached digest without re-reading
// the file.
func (h *Hasher) File(path string) (string, error) {
	if sum, ok := h.cache[path]; ok {
		h.logger.Trace().Str("path", path).Msg("Hash cache hit")
		return sum, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot open %s for hashing", path)
	}
	defer f.Close()

	digest := sha1.New()
	if _, err := io.Copy(digest, f); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s for hashing", path)
	}

	sum := hex.EncodeToString(digest.Sum(nil))
	h.cache[path] = sum
	h.logger.Trace().Str("path", path).Str("hash", sum).Msg("Hashed file")
	return sum, nil
}

// Fragment returns the short prefix of a content hash used in
// shuffled file names.
func Fragment(hash string) string {
	if len(hash) < FragmentLen {
		return hash
	}
	return hash[:FragmentLen]
}
