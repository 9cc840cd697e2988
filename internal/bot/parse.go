package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/storage"
)

const reminderTimeLayout = "2006-01-02 15:04"

var (
	errBadReminderFormat = errors.New(`use the format: Reminder Text | YYYY-MM-DD HH:MM`)
	errBadScheduleFormat = errors.New(`use the format: Day | Task (e.g. Monday | Gym at 6 PM)`)
	errEmptyTask         = errors.New("the task cannot be empty")
)

// parseReminderInput parses "text | 2024-01-01 10:00" into a body and an
// absolute due time in loc.
func parseReminderInput(s string, loc *time.Location) (body string, dueAt time.Time, err error) {
	text, rest, ok := strings.Cut(s, "|")
	if !ok {
		return "", time.Time{}, errBadReminderFormat
	}
	body = strings.TrimSpace(text)
	if body == "" {
		return "", time.Time{}, errBadReminderFormat
	}
	dueAt, perr := time.ParseInLocation(reminderTimeLayout, strings.TrimSpace(rest), loc)
	if perr != nil {
		return "", time.Time{}, errBadReminderFormat
	}
	return body, dueAt, nil
}

// parseScheduleInput parses "monday | Gym at 6 PM" into a canonical weekday
// name and a task.
func parseScheduleInput(s string) (day, task string, err error) {
	rawDay, rest, ok := strings.Cut(s, "|")
	if !ok {
		return "", "", errBadScheduleFormat
	}
	day = canonicalWeekday(rawDay)
	if day == "" {
		return "", "", fmt.Errorf("invalid day %q: use Monday, Tuesday, ...", strings.TrimSpace(rawDay))
	}
	task = strings.TrimSpace(rest)
	if task == "" {
		return "", "", errEmptyTask
	}
	return day, task, nil
}

// canonicalWeekday maps user input like "monday" or "MONDAY" to "Monday".
// Returns "" for anything that is not a weekday.
func canonicalWeekday(s string) string {
	s = strings.TrimSpace(s)
	for _, d := range storage.Weekdays {
		if strings.EqualFold(s, d) {
			return d
		}
	}
	return ""
}
