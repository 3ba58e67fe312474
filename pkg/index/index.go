// Package index persists the library catalog: one record per seen
// library file, keyed by path, carrying the content hash, size and
// modification time. The catalog is what lets repeated runs skip
// re-copying, and what detects files that moved or were renamed but
// are content-identical, so the destination reflects only one
// physical source per content hash.
//
// The store is a single SQLite database file (pure-Go driver, no
// cgo). Writes are autocommitted, so every insert and stale-record
// deletion is durable as soon as it returns.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rs/zerolog"

	"github.com/calebhs/mdrive/pkg/checksum"
	"github.com/calebhs/mdrive/pkg/errors"
	"github.com/calebhs/mdrive/pkg/logging"
)

const schemaVersion = "1"

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	path  TEXT    NOT NULL UNIQUE,
	hash  TEXT    NOT NULL,
	size  INTEGER NOT NULL,
	mtime INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_hash ON files(hash);
CREATE INDEX IF NOT EXISTS idx_files_size ON files(size);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// CanonicalFile is the resolved source for a content hash: the
// on-disk path chosen to represent it, plus the hash itself.
type CanonicalFile struct {
	Path string
	Hash string
}

// Index wraps the SQLite connection together with the per-run hash
// cache. Exactly one writer by design; concurrent instances against
// the same database are unsupported.
type Index struct {
	conn     *sql.DB
	path     string
	hasher   *checksum.Hasher
	readOnly bool
	logger   zerolog.Logger
}

// Open creates or opens the index database at path and bootstraps the
// schema. The caller must Close the index when done.
func Open(path string, hasher *checksum.Hasher) (*Index, error) {
	return open(path, hasher, false)
}

// OpenReadOnly opens the index without permitting record mutations.
// Used by dry runs: lookups work, but nothing is inserted or deleted.
func OpenReadOnly(path string, hasher *checksum.Hasher) (*Index, error) {
	return open(path, hasher, true)
}

func open(path string, hasher *checksum.Hasher, readOnly bool) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIndexOpen, "cannot create index directory for %s", path)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIndexOpen, "cannot open index database %s", path)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, errors.ErrIndexOpen, "cannot reach index database %s", path)
	}

	// Single-threaded engine, one connection is all we want.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, errors.ErrIndexOpen, "cannot enable WAL mode")
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, errors.ErrIndexOpen, "cannot set busy timeout")
	}

	ix := &Index{
		conn:     conn,
		path:     path,
		hasher:   hasher,
		readOnly: readOnly,
		logger:   logging.GetLogger("index"),
	}
	if err := ix.bootstrap(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	ix.logger.Debug().Str("path", path).Bool("readOnly", readOnly).Msg("Index opened")
	return ix, nil
}

func (ix *Index) bootstrap() error {
	if _, err := ix.conn.Exec(schema); err != nil {
		return errors.Wrap(err, errors.ErrIndexOpen, "cannot bootstrap index schema")
	}
	if _, err := ix.conn.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`, schemaVersion); err != nil {
		return errors.Wrap(err, errors.ErrIndexOpen, "cannot record schema version")
	}
	return nil
}

// Close closes the underlying database connection.
func (ix *Index) Close() error {
	if ix.conn == nil {
		return nil
	}
	err := ix.conn.Close()
	ix.conn = nil
	return err
}

// Resolve returns the canonical on-disk file for the content of path.
//
// The file is hashed (cached per run), recorded in the catalog if not
// already present, and then the catalog is scanned for the oldest
// record with the same hash whose path still exists on disk. Records
// whose backing file vanished are deleted on the way. The canonical
// path may differ from the input path when the same content exists
// under several names; that is the dedup contract.
func (ix *Index) Resolve(path string) (CanonicalFile, error) {
	hash, err := ix.hasher.File(path)
	if err != nil {
		return CanonicalFile{}, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return CanonicalFile{}, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
	}

	if err := ix.record(path, hash, fi.Size(), fi.ModTime().Unix()); err != nil {
		return CanonicalFile{}, err
	}

	canonical, err := ix.canonicalFor(hash)
	if err != nil {
		return CanonicalFile{}, err
	}
	if canonical == "" {
		if ix.readOnly {
			// Nothing was inserted, so exhaustion just means the
			// catalog has never seen this content. The input file
			// itself is the live source.
			return CanonicalFile{Path: path, Hash: hash}, nil
		}
		return CanonicalFile{}, errors.Newf(errors.ErrIndexCorrupt,
			"no live record for hash %s of %s right after insert", hash, path)
	}

	return CanonicalFile{Path: canonical, Hash: hash}, nil
}

// record makes sure a catalog record exists for (path, hash). Records
// with the same size are checked first as a cheap pre-filter; only a
// record matching path and hash exactly counts as already known. A
// path record left over from an in-place edit is updated rather than
// duplicated.
func (ix *Index) record(path, hash string, size, mtime int64) error {
	rows, err := ix.conn.Query(`SELECT path, hash FROM files WHERE size = ?`, size)
	if err != nil {
		return errors.Wrap(err, errors.ErrIndexQuery, "size lookup failed")
	}

	known := false
	for rows.Next() {
		var recPath, recHash string
		if err := rows.Scan(&recPath, &recHash); err != nil {
			rows.Close()
			return errors.Wrap(err, errors.ErrIndexQuery, "size lookup scan failed")
		}
		if recPath == path && recHash == hash {
			known = true
		}
	}
	err = rows.Err()
	// The single connection must be free again before any write.
	rows.Close()
	if err != nil {
		return errors.Wrap(err, errors.ErrIndexQuery, "size lookup failed")
	}
	if known {
		return nil // already catalogued
	}

	if ix.readOnly {
		return nil
	}

	// Write the record only now that hashing succeeded; a crash can
	// never leave a record with a hash that was not computed from its
	// path.
	_, err = ix.conn.Exec(
		`INSERT INTO files (path, hash, size, mtime) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, size = excluded.size, mtime = excluded.mtime`,
		path, hash, size, mtime)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIndexQuery, "cannot record %s", path)
	}
	ix.logger.Debug().Str("path", path).Str("hash", hash).Msg("Catalogued library file")
	return nil
}

// canonicalFor scans same-hash records in insertion order and returns
// the first whose path still exists on disk, deleting stale records
// as it goes. Returns "" when no record survives.
func (ix *Index) canonicalFor(hash string) (string, error) {
	rows, err := ix.conn.Query(`SELECT id, path FROM files WHERE hash = ? ORDER BY id`, hash)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrIndexQuery, "hash lookup failed")
	}

	type rec struct {
		id   int64
		path string
	}
	var candidates []rec
	for rows.Next() {
		var r rec
		if err := rows.Scan(&r.id, &r.path); err != nil {
			rows.Close()
			return "", errors.Wrap(err, errors.ErrIndexQuery, "hash lookup scan failed")
		}
		candidates = append(candidates, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return "", errors.Wrap(err, errors.ErrIndexQuery, "hash lookup failed")
	}
	rows.Close()

	for _, c := range candidates {
		if fi, err := os.Stat(c.path); err == nil && fi.Mode().IsRegular() {
			return c.path, nil
		}
		if ix.readOnly {
			continue
		}
		if _, err := ix.conn.Exec(`DELETE FROM files WHERE id = ?`, c.id); err != nil {
			return "", errors.Wrapf(err, errors.ErrIndexQuery, "cannot delete stale record for %s", c.path)
		}
		ix.logger.Debug().Str("path", c.path).Str("hash", hash).Msg("Deleted stale catalog record")
	}
	return "", nil
}
