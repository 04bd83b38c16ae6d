package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
)

// Load reads the store at path. A missing file yields an empty store; a file
// that cannot be parsed yields *StoreCorruptError.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to open fingerprint store")
	}
	defer f.Close()

	return Decode(f, path)
}

// Save replaces the file at path with the full contents of s. The write goes
// to a temporary file in the same directory which is renamed over path only
// after it has been synced, so readers never observe a partial store.
func Save(path string, s *Store) error {
	af, err := common.CreateAtomic(path, 0644)
	if err != nil {
		return &StoreWriteError{Path: path, Cause: err}
	}
	defer af.Abort()

	if err := Encode(af, s); err != nil {
		return &StoreWriteError{Path: path, Cause: err}
	}
	if err := af.Commit(); err != nil {
		return &StoreWriteError{Path: path, Cause: err}
	}
	return nil
}

// Open loads the store and applies the configured corrupt-store policy.
// With CorruptPolicyFresh the unreadable file is moved aside and an empty
// store is returned; the move target is logged.
func Open(path, onCorrupt string, logger zerolog.Logger) (*Store, error) {
	s, err := Load(path)
	if err == nil {
		logger.Debug().Str("path", path).Int("entries", s.Len()).Msg("Fingerprint store loaded")
		return s, nil
	}

	var corrupt *StoreCorruptError
	if !errors.As(err, &corrupt) || onCorrupt != config.CorruptPolicyFresh {
		return nil, err
	}

	aside := fmt.Sprintf("%s.corrupt-%s", path, time.Now().UTC().Format("20060102T150405Z"))
	if mvErr := os.Rename(path, aside); mvErr != nil {
		return nil, common.CombineErrors([]error{err, common.WrapError(mvErr, "failed to move corrupt store aside")})
	}
	logger.Error().Err(err).Str("path", path).Str("moved_to", aside).Msg("Fingerprint store corrupt, starting fresh")
	return New(), nil
}

// Dump writes a human-readable listing (escaped ID and digest per line).
func Dump(w io.Writer, s *Store) error {
	snap := s.Snapshot()
	for _, id := range s.IDs() {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", EscapeID(id), snap[id]); err != nil {
			return err
		}
	}
	return nil
}
