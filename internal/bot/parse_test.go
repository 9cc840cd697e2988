package bot

import (
	"testing"
	"time"
)

func TestParseReminderInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		body    string
		due     time.Time
		wantErr bool
	}{
		{
			name: "basic",
			raw:  "Call mom | 2024-01-01 10:00",
			body: "Call mom",
			due:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "extra whitespace",
			raw:  "  Buy milk  |  2030-12-24 08:30 ",
			body: "Buy milk",
			due:  time.Date(2030, 12, 24, 8, 30, 0, 0, time.UTC),
		},
		{name: "missing separator", raw: "Call mom 2024-01-01 10:00", wantErr: true},
		{name: "bad timestamp", raw: "Call mom | tomorrow", wantErr: true},
		{name: "empty body", raw: " | 2024-01-01 10:00", wantErr: true},
		{name: "empty input", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body, due, err := parseReminderInput(tt.raw, time.UTC)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseReminderInput(%q): expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseReminderInput(%q) error: %v", tt.raw, err)
			}
			if body != tt.body {
				t.Fatalf("body = %q, want %q", body, tt.body)
			}
			if !due.Equal(tt.due) {
				t.Fatalf("due = %v, want %v", due, tt.due)
			}
		})
	}
}

func TestParseScheduleInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		day     string
		task    string
		wantErr bool
	}{
		{name: "basic", raw: "Monday | Gym at 6 PM", day: "Monday", task: "Gym at 6 PM"},
		{name: "lowercase day", raw: "wednesday | piano", day: "Wednesday", task: "piano"},
		{name: "shouting day", raw: "SUNDAY | rest", day: "Sunday", task: "rest"},
		{name: "invalid day", raw: "Someday | nap", wantErr: true},
		{name: "empty task", raw: "Monday |   ", wantErr: true},
		{name: "missing separator", raw: "Monday gym", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			day, task, err := parseScheduleInput(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseScheduleInput(%q): expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseScheduleInput(%q) error: %v", tt.raw, err)
			}
			if day != tt.day || task != tt.task {
				t.Fatalf("got (%q, %q), want (%q, %q)", day, task, tt.day, tt.task)
			}
		})
	}
}
