package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/fingerprint"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const fileSuffix = "_snapshots.parquet"

// Archive stores the last MaxRecords versions of every resource.
type Archive struct {
	basePath   string
	maxRecords int
	locks      *idMutexes
	logger     zerolog.Logger
}

// NewArchive creates an Archive rooted at snapshot_config.base_path.
func NewArchive(cfg config.SnapshotConfig, logger zerolog.Logger) *Archive {
	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = config.DefaultSnapshotMaxRecords
	}
	return &Archive{
		basePath:   cfg.BasePath,
		maxRecords: maxRecords,
		locks:      newIDMutexes(),
		logger:     logger.With().Str("component", "SnapshotArchive").Logger(),
	}
}

// FilePath returns the Parquet file holding the versions of id. File names
// are derived from a digest of the ID, which may contain any character.
func (a *Archive) FilePath(id string) string {
	return filepath.Join(a.basePath, fingerprint.Of(id).String()+fileSuffix)
}

// Latest returns the newest record for id, or nil when none is archived.
func (a *Archive) Latest(id string) (*Record, error) {
	records, err := a.Records(id, 1)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// Records returns up to limit records for id, newest first (limit <= 0 means all).
func (a *Archive) Records(id string, limit int) ([]Record, error) {
	mu := a.locks.get(id)
	mu.Lock()
	defer mu.Unlock()

	records, err := a.read(a.FilePath(id))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Append archives rec, dropping versions beyond the configured maximum. A
// record identical to the newest one (same fingerprint) is not stored twice.
func (a *Archive) Append(rec Record) error {
	if rec.ResourceID == "" {
		return common.NewValidationError("resource_id", rec.ResourceID, "cannot be empty")
	}

	mu := a.locks.get(rec.ResourceID)
	mu.Lock()
	defer mu.Unlock()

	path := a.FilePath(rec.ResourceID)
	existing, err := a.read(path)
	if err != nil {
		// An unreadable archive only costs diff previews; start over.
		a.logger.Warn().Err(err).Str("path", path).Msg("Snapshot file unreadable, replacing it")
		existing = nil
	}
	if len(existing) > 0 && existing[0].Fingerprint == rec.Fingerprint {
		a.logger.Debug().Str("id", rec.ResourceID).Msg("Snapshot unchanged, skipping")
		return nil
	}

	records := append([]Record{rec}, existing...)
	sortNewestFirst(records)
	if len(records) > a.maxRecords {
		records = records[:a.maxRecords]
	}

	if err := a.write(path, records); err != nil {
		return common.WrapError(err, "failed to write snapshot for "+rec.ResourceID)
	}
	a.logger.Debug().Str("id", rec.ResourceID).Int("records", len(records)).Msg("Snapshot stored")
	return nil
}

func (a *Archive) read(path string) ([]Record, error) {
	osFile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open snapshot file '%s': %w", path, err)
	}
	defer func() {
		if err := osFile.Close(); err != nil {
			a.logger.Error().Err(err).Str("path", path).Msg("Failed to close snapshot file")
		}
	}()

	stat, err := osFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot file '%s': %w", path, err)
	}
	if stat.Size() == 0 {
		return nil, nil
	}

	pqFile, err := parquet.OpenFile(osFile, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file '%s': %w", path, err)
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	var records []Record
	for {
		var record Record
		if err := reader.Read(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error reading record from parquet file '%s': %w", path, err)
		}
		records = append(records, record)
	}

	sortNewestFirst(records)
	return records, nil
}

func (a *Archive) write(path string, records []Record) error {
	af, err := common.CreateAtomic(path, 0644)
	if err != nil {
		return err
	}
	defer af.Abort()

	writer := parquet.NewWriter(af, parquet.SchemaOf(Record{}), parquet.Compression(&parquet.Zstd))
	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("writing snapshot record: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing Parquet writer: %w", err)
	}
	return af.Commit()
}

func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
}
