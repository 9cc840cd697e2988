package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store with the same semantics as the sqlite driver.
// It backs tests and the "memory" config driver.
type Memory struct {
	mu        sync.Mutex
	users     map[int64]User
	reminders map[int64]Reminder
	schedule  []ScheduleEntry
	nextRemID int64
	nextSchID int64
}

func NewMemory() *Memory {
	return &Memory{
		users:     map[int64]User{},
		reminders: map[int64]Reminder{},
		nextRemID: 1,
		nextSchID: 1,
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) UpsertUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.users[u.ID]; ok {
		// Identity and creation time are fixed; name/chat refresh.
		prev.Name = u.Name
		prev.ChatID = u.ChatID
		m.users[u.ID] = prev
		return nil
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) UserChatID(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %d: %w", userID, ErrUnknownUser)
	}
	return u.ChatID, nil
}

func (m *Memory) CreateReminder(_ context.Context, userID int64, body string, dueAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextRemID
	m.nextRemID++
	m.reminders[id] = Reminder{
		ID:        id,
		UserID:    userID,
		Body:      body,
		DueAt:     dueAt,
		CreatedAt: time.Now(),
	}
	return id, nil
}

func (m *Memory) DueReminders(_ context.Context, now time.Time) ([]Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Reminder
	for _, r := range m.reminders {
		if !r.Notified && !r.DueAt.After(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) MarkNotified(_ context.Context, reminderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reminders[reminderID]
	if !ok {
		return nil
	}
	r.Notified = true
	m.reminders[reminderID] = r
	return nil
}

// Reminder returns a copy of the stored reminder, for tests.
func (m *Memory) Reminder(reminderID int64) (Reminder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[reminderID]
	return r, ok
}

func (m *Memory) AddScheduleEntry(_ context.Context, userID int64, day, task string) error {
	if weekdayIndex(day) >= len(Weekdays) {
		return fmt.Errorf("invalid weekday %q", day)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.schedule = append(m.schedule, ScheduleEntry{
		ID:     m.nextSchID,
		UserID: userID,
		Day:    day,
		Task:   task,
	})
	m.nextSchID++
	return nil
}

func (m *Memory) ScheduleEntries(_ context.Context, userID int64) ([]ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ScheduleEntry
	for _, e := range m.schedule {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return weekdayIndex(out[i].Day) < weekdayIndex(out[j].Day)
	})
	return out, nil
}

func (m *Memory) ScheduleOwners(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[int64]bool{}
	var out []User
	for _, e := range m.schedule {
		if seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true
		if u, ok := m.users[e.UserID]; ok {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
