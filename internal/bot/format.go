package bot

import (
	"strings"

	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
)

const (
	btnAddReminder  = "Add Reminder"
	btnAddSchedule  = "Add Weekly Schedule"
	btnViewSchedule = "View Schedule"
)

// mainMenu is the persistent reply keyboard shown after /start.
func mainMenu() *kit.SendOptions {
	return &kit.SendOptions{
		ReplyKeyboard: [][]string{{btnAddReminder, btnAddSchedule, btnViewSchedule}},
	}
}

// FormatSchedule renders a weekly plan, one line per entry, in the
// Monday..Sunday order the store returns. Shared with the digest job.
func FormatSchedule(header string, entries []storage.ScheduleEntry) string {
	if len(entries) == 0 {
		return "Your weekly schedule is empty."
	}
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, e := range entries {
		b.WriteString("- ")
		b.WriteString(e.Day)
		b.WriteString(": ")
		b.WriteString(e.Task)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
