package config

// SnapshotConfig defines the archive of normalized content used for diffs
type SnapshotConfig struct {
	Enabled         bool   `json:"enabled" yaml:"enabled"`
	BasePath        string `json:"base_path,omitempty" yaml:"base_path,omitempty" validate:"required_if=Enabled true"`
	MaxRecords      int    `json:"max_records,omitempty" yaml:"max_records,omitempty" validate:"omitempty,min=1"`
	MaxPreviewLines int    `json:"max_preview_lines,omitempty" yaml:"max_preview_lines,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultSnapshotConfig creates default snapshot configuration
func NewDefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		Enabled:         false,
		BasePath:        DefaultSnapshotBasePath,
		MaxRecords:      DefaultSnapshotMaxRecords,
		MaxPreviewLines: DefaultSnapshotMaxPreviewLines,
	}
}

// HistoryConfig defines the SQLite run history
type HistoryConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	SQLiteDBPath string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty" validate:"required_if=Enabled true"`
}

// NewDefaultHistoryConfig creates default history configuration
func NewDefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled:      true,
		SQLiteDBPath: DefaultHistorySQLiteDBPath,
	}
}
