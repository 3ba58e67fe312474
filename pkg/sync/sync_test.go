// Test Type: Unit Test
// Description: Tests for the sync package - reconciliation, idempotence, dedup and shuffled naming

package sync_test

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebhs/mdrive/pkg/checksum"
	"github.com/calebhs/mdrive/pkg/filter"
	"github.com/calebhs/mdrive/pkg/index"
	"github.com/calebhs/mdrive/pkg/sync"
)

type env struct {
	library   string
	organized string
	shuffled  string
	dbPath    string
}

func newEnv(t *testing.T) env {
	t.Helper()
	root := t.TempDir()
	e := env{
		library:   filepath.Join(root, "library"),
		organized: filepath.Join(root, "drive", "organized"),
		shuffled:  filepath.Join(root, "drive", "shuffled"),
		dbPath:    filepath.Join(root, "index.db"),
	}
	require.NoError(t, os.MkdirAll(e.library, 0755))
	return e
}

func (e env) addSong(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(e.library, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes one full reconciliation with fresh per-run state, the
// way repeated CLI invocations would.
func (e env) run(t *testing.T, rules string, dryRun bool) (sync.DestinationSet, sync.Stats) {
	t.Helper()
	filters, err := filter.Parse(strings.NewReader(rules))
	require.NoError(t, err)

	hasher := checksum.NewHasher()
	var ix *index.Index
	if dryRun {
		ix, err = index.OpenReadOnly(e.dbPath, hasher)
	} else {
		ix, err = index.Open(e.dbPath, hasher)
	}
	require.NoError(t, err)
	defer ix.Close()

	engine := sync.New(filters, ix, e.library, e.organized, e.shuffled, dryRun)
	dests, stats, err := engine.Run()
	require.NoError(t, err)
	return dests, stats
}

func fragOf(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:checksum.FragmentLen]
}

func TestRunScenario(t *testing.T) {
	e := newEnv(t)
	e.addSong(t, "Artist/Song.mp3", "scenario content")

	dests, stats := e.run(t, "Artist/**\tboth\n", false)

	organized := filepath.Join(e.organized, "Artist", "Song.mp3")
	shuffled := filepath.Join(e.shuffled, fmt.Sprintf("Song - %s.mp3", fragOf("scenario content")))

	assert.FileExists(t, organized)
	assert.FileExists(t, shuffled)
	assert.True(t, dests.Contains(organized))
	assert.True(t, dests.Contains(shuffled))
	assert.Equal(t, 2, stats.Copied)
	assert.Equal(t, 0, stats.Failed)
}

func TestRunIdempotence(t *testing.T) {
	e := newEnv(t)
	e.addSong(t, "Artist/Song.mp3", "stable content")
	e.addSong(t, "Artist/Album/Other.mp3", "other content")
	rules := "Artist/**\tboth\n"

	first, firstStats := e.run(t, rules, false)
	assert.Equal(t, 4, firstStats.Copied)

	// Capture destination mtimes to prove nothing is rewritten.
	mtimes := map[string]int64{}
	for dest := range first {
		fi, err := os.Stat(dest)
		require.NoError(t, err)
		mtimes[dest] = fi.ModTime().UnixNano()
	}

	second, secondStats := e.run(t, rules, false)
	assert.Equal(t, 0, secondStats.Copied, "second run must not copy anything")
	assert.Equal(t, 4, secondStats.Skipped)
	assert.Equal(t, first, second, "destination set must be identical across runs")

	for dest, before := range mtimes {
		fi, err := os.Stat(dest)
		require.NoError(t, err)
		assert.Equal(t, before, fi.ModTime().UnixNano(), dest)
	}
}

func TestRunModes(t *testing.T) {
	t.Run("organized_only", func(t *testing.T) {
		e := newEnv(t)
		e.addSong(t, "Artist/Song.mp3", "organized only")

		dests, _ := e.run(t, "Artist/**\torganized\n", false)

		assert.FileExists(t, filepath.Join(e.organized, "Artist", "Song.mp3"))
		assert.NoDirExists(t, e.shuffled)
		assert.Len(t, dests, 1)
	})

	t.Run("shuffled_only", func(t *testing.T) {
		e := newEnv(t)
		e.addSong(t, "Artist/Song.mp3", "shuffled only")

		dests, _ := e.run(t, "Artist/**\tshuffled\n", false)

		shuffled := filepath.Join(e.shuffled, fmt.Sprintf("Song - %s.mp3", fragOf("shuffled only")))
		assert.FileExists(t, shuffled)
		assert.NoFileExists(t, filepath.Join(e.organized, "Artist", "Song.mp3"))
		assert.Len(t, dests, 1)
	})

	t.Run("excluded_files_stay_home", func(t *testing.T) {
		e := newEnv(t)
		e.addSong(t, "Artist/Song.mp3", "wanted")
		e.addSong(t, "Artist/notes.log", "unwanted")

		dests, _ := e.run(t, "!**/*.log\nArtist/**\tboth\n", false)

		assert.NoFileExists(t, filepath.Join(e.organized, "Artist", "notes.log"))
		assert.Len(t, dests, 2)
	})
}

func TestRunDedup(t *testing.T) {
	e := newEnv(t)
	e.addSong(t, "Artist/Song.mp3", "duplicated bytes")
	e.addSong(t, "Compilations/Song Again.mp3", "duplicated bytes")

	dests, stats := e.run(t, "**\tboth\n", false)

	// Both walked paths resolve to one canonical source, so one
	// organized mirror and one shuffled name exist on the drive.
	organized := filepath.Join(e.organized, "Artist", "Song.mp3")
	shuffled := filepath.Join(e.shuffled, fmt.Sprintf("Song - %s.mp3", fragOf("duplicated bytes")))

	assert.FileExists(t, organized)
	assert.FileExists(t, shuffled)
	assert.NoFileExists(t, filepath.Join(e.organized, "Compilations", "Song Again.mp3"))
	assert.Len(t, dests, 2)
	assert.Equal(t, 2, stats.Copied)
}

func TestRunDedupHandover(t *testing.T) {
	e := newEnv(t)
	a := e.addSong(t, "Artist/Song.mp3", "handover bytes")
	e.addSong(t, "Backup/Song.mp3", "handover bytes")

	e.run(t, "**\tboth\n", false)

	// The canonical file disappears from the library; the surviving
	// duplicate must take over as the copy source.
	require.NoError(t, os.Remove(a))

	dests, stats := e.run(t, "**\tboth\n", false)
	assert.Equal(t, 0, stats.Failed)
	assert.True(t, dests.Contains(filepath.Join(e.organized, "Backup", "Song.mp3")))
	shuffled := filepath.Join(e.shuffled, fmt.Sprintf("Song - %s.mp3", fragOf("handover bytes")))
	assert.True(t, dests.Contains(shuffled), "shuffled name is content-addressed and stays stable")
}

func TestShuffledName(t *testing.T) {
	hash := "deadbeef00112233445566778899aabbccddeeff"
	assert.Equal(t, "Song - deadbeef.mp3", sync.ShuffledName("/lib/Artist/Song.mp3", hash))
	assert.Equal(t, "no-ext - deadbeef", sync.ShuffledName("/lib/no-ext", hash))
	assert.Equal(t, "Song. Part 1 - deadbeef.flac", sync.ShuffledName("Song. Part 1.flac", hash))
}

func TestRunShuffledCollision(t *testing.T) {
	e := newEnv(t)
	e.addSong(t, "Artist/Song.mp3", "real content")

	// Pre-plant a different-sized impostor under the exact shuffled
	// name the real file will want.
	require.NoError(t, os.MkdirAll(e.shuffled, 0755))
	impostor := filepath.Join(e.shuffled, fmt.Sprintf("Song - %s.mp3", fragOf("real content")))
	require.NoError(t, os.WriteFile(impostor, []byte("completely different, longer content"), 0644))

	dests, stats := e.run(t, "Artist/**\tboth\n", false)

	assert.Equal(t, 1, stats.Failed, "collision must be reported as a copy failure")
	assert.True(t, dests.Contains(impostor), "existing file must stay protected from pruning")

	data, err := os.ReadFile(impostor)
	require.NoError(t, err)
	assert.Equal(t, "completely different, longer content", string(data), "existing file must not be overwritten")
}

func TestRunDryRun(t *testing.T) {
	e := newEnv(t)
	e.addSong(t, "Artist/Song.mp3", "dry bytes")

	dests, stats := e.run(t, "Artist/**\tboth\n", true)

	assert.Equal(t, 2, stats.Copied, "dry run reports planned copies")
	assert.Len(t, dests, 2)
	assert.NoDirExists(t, e.organized)
	assert.NoDirExists(t, e.shuffled)
	// The index file may be created by opening it, but it must hold
	// no records: a real run afterwards behaves like a first run.
	_, realStats := e.run(t, "Artist/**\tboth\n", false)
	assert.Equal(t, 2, realStats.Copied)
}
