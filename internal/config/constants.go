package config

const (
	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Monitor Defaults
	DefaultMonitorStorePath            = "data/fingerprints.tsv"
	DefaultMonitorMaxConcurrentChecks  = 5
	DefaultMonitorCheckIntervalSeconds = 3600
	DefaultMonitorOnCorruptStore       = CorruptPolicyFail

	// Fetch Defaults
	DefaultFetchTransport      = TransportHTTP
	DefaultFetchUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultFetchTimeoutSeconds = 30
	DefaultFetchMaxContentSize = 5 * 1024 * 1024
	DefaultFetchMaxRetries     = 2
	DefaultFetchRetryBaseDelay = 500 // milliseconds
	DefaultFetchRetryMaxDelay  = 10000
	DefaultFetchMaxRedirects   = 10

	// Browser Defaults
	DefaultBrowserPageTimeoutSeconds = 45

	// Snapshot Defaults
	DefaultSnapshotBasePath        = "data/snapshots"
	DefaultSnapshotMaxRecords      = 5
	DefaultSnapshotMaxPreviewLines = 40

	// History Defaults
	DefaultHistorySQLiteDBPath = "data/history.db"

	// Notification Defaults
	DefaultNotifyWhen      = NotifyWhenChanges
	DefaultEmailSubject    = "Website Changes Detected"
	DefaultSMTPPort        = 587
	DefaultNotifierTimeout = 20
)

// Fetch transports.
const (
	TransportHTTP    = "http"
	TransportColly   = "colly"
	TransportBrowser = "browser"
)

// Corrupt store policies.
const (
	CorruptPolicyFail  = "fail"
	CorruptPolicyFresh = "fresh"
)

// Notification triggers.
const (
	NotifyWhenChanges = "changes"
	NotifyWhenAlways  = "always"
	NotifyWhenNever   = "never"
)
