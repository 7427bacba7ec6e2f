package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tkhalvaji/youtube-comment-analyzer/analyzer/fileutils"
)

// PersistenceError reports a failed checkpoint write. It is fatal for the
// current run: the previously saved store stays intact, so the only cost of
// aborting is re-analyzing the unsaved chunk.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store reads and writes canonical per-channel data files.
type Store struct {
	Dir    string
	Pretty bool
	Log    zerolog.Logger
}

// PathFor returns the store file path for a source file stem.
func (s *Store) PathFor(stem string) string {
	return filepath.Join(s.Dir, "appdata_"+stem+".json")
}

// StemOf derives the channel stem from a source snapshot path.
func StemOf(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads and validates a canonical store file. A missing file returns
// (nil, nil): an update from a source snapshot is required first. A corrupt
// or invalid file returns a *ValidationError.
func (s *Store) Load(path string) (*Channel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.Log.Warn().Str("path", path).Msg("store file not found, update from a source file is required")
			return nil, nil
		}
		return nil, fmt.Errorf("load store: %w", err)
	}
	ch, err := ParseChannel(b)
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("path", path).Str("channel", ch.Metadata.Title).Msg("store loaded")
	return ch, nil
}

// Save writes the full channel snapshot atomically (temp file plus rename in
// the store directory), so an interrupted save never corrupts the previous
// file.
func (s *Store) Save(path string, ch *Channel) error {
	if err := fileutils.WriteJSONAtomic(path, ch, s.Pretty); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	s.Log.Debug().Str("path", path).Msg("store saved")
	return nil
}

// Sink adapts the store to the processor's Saver for a fixed path.
func (s *Store) Sink(path string) Saver {
	return &storeSink{store: s, path: path}
}

type storeSink struct {
	store *Store
	path  string
}

func (ss *storeSink) Save(ch *Channel) error {
	return ss.store.Save(ss.path, ch)
}

// EncodeChannel serializes a channel the way Save writes it. Used by tests
// and tooling to compare store states byte-for-byte.
func EncodeChannel(ch *Channel) ([]byte, error) {
	return json.Marshal(ch)
}
