package common

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// FileReadOptions controls FileManager.ReadFile.
type FileReadOptions struct {
	MaxSize int64 // 0 means unlimited
}

// DefaultFileReadOptions returns read options with no size limit.
func DefaultFileReadOptions() FileReadOptions {
	return FileReadOptions{}
}

// FileManager provides high-level file operations with standardized error handling and logging
type FileManager struct {
	logger zerolog.Logger
}

// NewFileManager creates a new FileManager instance
func NewFileManager(logger zerolog.Logger) *FileManager {
	return &FileManager{
		logger: logger.With().Str("component", "FileManager").Logger(),
	}
}

// FileExists checks if a file or directory exists
func (fm *FileManager) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// ReadFile reads a file, refusing directories and files above opts.MaxSize.
func (fm *FileManager) ReadFile(path string, opts FileReadOptions) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to get file info for: %s", path))
	}
	if info.IsDir() {
		return nil, NewValidationError("path", path, "is a directory, not a file")
	}
	if opts.MaxSize > 0 && info.Size() > opts.MaxSize {
		return nil, NewValidationError("file_size", info.Size(), fmt.Sprintf("exceeds maximum size of %d bytes", opts.MaxSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to read file: %s", path))
	}

	fm.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("File read successfully")
	return data, nil
}

// ReadLines reads a text file and returns its non-empty, non-comment lines, trimmed.
func (fm *FileManager) ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to open file: %s", path))
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fm.logger.Error().Err(closeErr).Str("path", path).Msg("Failed to close file.")
		}
	}()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to scan file: %s", path))
	}
	return lines, nil
}

// WriteFileAtomic writes the output of write to path through an AtomicFile.
func (fm *FileManager) WriteFileAtomic(path string, perm fs.FileMode, write func(w io.Writer) error) error {
	af, err := CreateAtomic(path, perm)
	if err != nil {
		return err
	}
	defer af.Abort()

	if err := write(af); err != nil {
		return WrapError(err, fmt.Sprintf("failed to write temporary file for: %s", path))
	}
	if err := af.Commit(); err != nil {
		return err
	}

	fm.logger.Debug().Str("path", path).Msg("File replaced atomically")
	return nil
}

// AtomicFile is a temporary file that replaces its target on Commit.
// Until Commit succeeds the target path is never touched, so readers observe
// either the previous contents or the complete new contents.
type AtomicFile struct {
	*os.File
	path     string
	perm     fs.FileMode
	finished bool
}

// CreateAtomic opens a temporary file next to path (same directory, so the
// final rename stays on one filesystem).
func CreateAtomic(path string, perm fs.FileMode) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, WrapError(err, "failed to create directory: "+dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, WrapError(err, "failed to create temporary file in: "+dir)
	}

	return &AtomicFile{File: tmp, path: path, perm: perm}, nil
}

// Commit flushes the temporary file to disk and renames it over the target.
func (af *AtomicFile) Commit() error {
	if af.finished {
		return NewError("atomic file for %s already finished", af.path)
	}
	af.finished = true
	tmpName := af.File.Name()

	if err := af.File.Sync(); err != nil {
		af.discard()
		return WrapError(err, "failed to sync temporary file: "+tmpName)
	}
	if err := af.File.Chmod(af.perm); err != nil {
		af.discard()
		return WrapError(err, "failed to set permissions on temporary file: "+tmpName)
	}
	if err := af.File.Close(); err != nil {
		_ = os.Remove(tmpName)
		return WrapError(err, "failed to close temporary file: "+tmpName)
	}
	if err := os.Rename(tmpName, af.path); err != nil {
		_ = os.Remove(tmpName)
		return WrapError(err, fmt.Sprintf("failed to rename %s to %s", tmpName, af.path))
	}

	syncDir(filepath.Dir(af.path))
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (af *AtomicFile) Abort() {
	if af.finished {
		return
	}
	af.finished = true
	af.discard()
}

func (af *AtomicFile) discard() {
	_ = af.File.Close()
	_ = os.Remove(af.File.Name())
}

// syncDir persists the rename; not supported everywhere, so errors are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
