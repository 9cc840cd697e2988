package config

// Config is the on-disk configuration. YAML and JSON are both accepted;
// unknown keys are rejected so typos fail fast instead of being ignored.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Notifier NotifierConfig `json:"notifier,omitempty"`
	Digest   DigestConfig   `json:"digest,omitempty"`
}

type TelegramConfig struct {
	Token       string `json:"token"`
	PollTimeout string `json:"poll_timeout,omitempty"` // default "10s"
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"` // trace|debug|info|warn|error, default "info"
	Console bool          `json:"console"`
	File    FileLogConfig `json:"file,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"` // default "./remindbot.log"
}

// StorageConfig selects the persistence driver.
//
// Driver values:
//   - "sqlite" (default): SQLite database file
//   - "memory": in-memory store, contents lost on restart
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`         // default "./remindbot.db"
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// NotifierConfig controls the due-reminder delivery loop.
//
// Enabled is a pointer so an omitted section defaults to enabled=true.
type NotifierConfig struct {
	Enabled     *bool  `json:"enabled,omitempty"`
	Interval    string `json:"interval,omitempty"`     // default "60s"
	RatePerSec  int    `json:"rate_per_sec,omitempty"` // default 25
	SendTimeout string `json:"send_timeout,omitempty"` // default "30s"
}

// DigestConfig controls the optional weekly schedule digest.
type DigestConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"` // cron spec, default "0 8 * * MON"
}
