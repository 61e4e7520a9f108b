// Package constants provides shared constants used throughout the regwatch codebase.
// This includes registry column defaults, sentinels, limits, file permissions
// and other values that should be consistent across the application.
package constants

import "time"

// Registry column defaults. These match the MCA company master export.
const (
	// DefaultKeyField is the join key column (Corporate Identification Number)
	DefaultKeyField = "CIN"

	// DefaultNameField is the column reported for incorporations and deregistrations
	DefaultNameField = "CompanyName"

	// StatusField holds the company status (Active, Strike Off, ...)
	StatusField = "CompanyStatus"

	// AuthorizedCapitalField holds the authorized capital
	AuthorizedCapitalField = "AuthorizedCapital"

	// PaidupCapitalField holds the paid-up capital
	PaidupCapitalField = "PaidupCapital"

	// StateField holds the registration state code
	StateField = "CompanyStateCode"

	// StatusStrikeOff is the status value of a struck off company
	StatusStrikeOff = "Strike Off"

	// StatusUnknown is the default filled into missing statuses
	StatusUnknown = "Unknown"
)

// DefaultWatchedFields returns the default ordered watch-list.
// A new slice is returned on each call.
func DefaultWatchedFields() []string {
	return []string{StatusField, AuthorizedCapitalField, PaidupCapitalField}
}

// NotApplicable is the sentinel written on the side of a membership change
// that does not apply, and as the field name of membership records.
const NotApplicable = "N/A"

// Limit constants define various limits and capacities
const (
	// DefaultWorkers is the default number of field diff partitions
	DefaultWorkers = 1

	// MaxWorkers caps field diff and chain concurrency
	MaxWorkers = 64

	// MinPartitionSize is the smallest key partition worth a goroutine
	MinPartitionSize = 1024

	// DefaultCacheSize is the default number of memoized reconcile results
	DefaultCacheSize = 0

	// MaxCacheSize is the maximum number of memoized reconcile results
	MaxCacheSize = 1000
)

// Timeout constants
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds graceful shutdown after a failed command
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Logging constants
const (
	// LogRotationSizeMB is the maximum size in megabytes of a log file before rotation
	LogRotationSizeMB = 10

	// LogRotationAgeDays is the maximum age in days of rotated log files
	LogRotationAgeDays = 7

	// LogRotationBackups is the maximum number of old log files to retain
	LogRotationBackups = 5
)

// Path constants
const (
	// DefaultStorePath is the default directory or database for change logs
	DefaultStorePath = "output"

	// SQLiteFileName is the database file used when store.path is a directory
	SQLiteFileName = "regwatch.db"

	// ChangeLogFilePrefix prefixes change log file names in file stores
	ChangeLogFilePrefix = "change_log_"
)
