package constants

import "time"

const (
	AppName            = "cadence"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/cadence"
	DefaultConfigFile  = "config.yaml"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Collection keys
	CollectionHabits        = "habits"
	CollectionTimerSessions = "timer_sessions"
	CollectionCompletions   = "completions"
	CollectionPostpones     = "postpones"

	// Storage backends
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	// Habit defaults applied when a draft carries a non-positive value
	MinIntervalMinutes   = 1
	MinRepetitionsPerDay = 1
	DefaultIntervalMin   = 60
	DefaultPostponeMin   = 15
	MinPostponeMinutes   = 1

	// Backup constants
	MaxBackups    = 14
	BackupDirName = "backups"
	BackupPrefix  = "cadence-"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "cadence-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.cadence"
	TrayExecutablePrefix   = "cadence-tray"
	TraySecretHeader       = "X-Cadence-Secret"

	// Reminder defaults
	DefaultReminderCheckInterval = time.Minute
	DefaultReminderThrottleMin   = 30
)
