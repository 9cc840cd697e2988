package storage

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownUser is returned when a referenced user record does not exist.
// It marks a data-integrity condition, not a transient store failure.
var ErrUnknownUser = errors.New("unknown user")

// Config configures storage.
//
// Driver values:
//   - "sqlite" (default): SQLite database file
//   - "memory": in-memory store (tests, throwaway runs)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// User is a registered bot user. The id comes from Telegram; name and chat id
// are refreshed on every /start (latest write wins).
type User struct {
	ID        int64
	Name      string
	ChatID    int64
	CreatedAt time.Time
}

// Reminder is immutable after creation except for the Notified flag, which
// transitions false->true exactly once and never reverts.
type Reminder struct {
	ID        int64
	UserID    int64
	Body      string
	DueAt     time.Time
	Notified  bool
	CreatedAt time.Time
}

// ScheduleEntry is one recurring weekly task ("Monday | Gym at 6 PM").
type ScheduleEntry struct {
	ID     int64
	UserID int64
	Day    string // canonical weekday name, "Monday".."Sunday"
	Task   string
}

// Store is the persistence API shared by the bot handlers and the
// due-reminder loop. Every method is its own atomic unit of work; callers
// never span a transaction across calls.
type Store interface {
	// UpsertUser creates the user or refreshes name/chat id, keyed by ID.
	UpsertUser(ctx context.Context, u User) error

	// UserChatID resolves the delivery chat for a user.
	// Returns ErrUnknownUser if no such user exists.
	UserChatID(ctx context.Context, userID int64) (int64, error)

	// CreateReminder stores a new unnotified reminder and returns its id.
	CreateReminder(ctx context.Context, userID int64, body string, dueAt time.Time) (int64, error)

	// DueReminders returns every reminder with DueAt <= now that has not been
	// notified yet, ordered by DueAt ascending (id ascending on ties). It does
	// not mutate anything.
	DueReminders(ctx context.Context, now time.Time) ([]Reminder, error)

	// MarkNotified flips the notified flag. Idempotent: marking an already
	// notified (or missing) reminder is not an error.
	MarkNotified(ctx context.Context, reminderID int64) error

	AddScheduleEntry(ctx context.Context, userID int64, day, task string) error

	// ScheduleEntries returns a user's weekly plan ordered Monday..Sunday.
	ScheduleEntries(ctx context.Context, userID int64) ([]ScheduleEntry, error)

	// ScheduleOwners returns every user that has at least one schedule entry.
	ScheduleOwners(ctx context.Context) ([]User, error)

	Close() error
}

// Weekdays in schedule order. The zero index is Monday to match how people
// read a weekly plan, not time.Weekday.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func weekdayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return len(Weekdays)
}
