package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "remindbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "./remindbot.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("sqlite store opened", logx.String("path", path))
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) UpsertUser(ctx context.Context, u User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(user_id, name, chat_id, created_at) VALUES(?,?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET name=excluded.name, chat_id=excluded.chat_id`,
		u.ID, u.Name, u.ChatID, createdAt.Unix(),
	)
	return err
}

func (s *sqliteStore) UserChatID(ctx context.Context, userID int64) (int64, error) {
	var chatID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id FROM users WHERE user_id = ?`, userID,
	).Scan(&chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("user %d: %w", userID, ErrUnknownUser)
	}
	if err != nil {
		return 0, err
	}
	return chatID, nil
}

func (s *sqliteStore) CreateReminder(ctx context.Context, userID int64, body string, dueAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders(user_id, body, due_at, notified, created_at) VALUES(?,?,?,0,?)`,
		userID, body, dueAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) DueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reminder_id, user_id, body, due_at, notified, created_at
		 FROM reminders
		 WHERE notified = 0 AND due_at <= ?
		 ORDER BY due_at ASC, reminder_id ASC`,
		now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Reminder
	for rows.Next() {
		var (
			r                Reminder
			dueAt, createdAt int64
			notified         int
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Body, &dueAt, &notified, &createdAt); err != nil {
			return nil, err
		}
		r.DueAt = time.Unix(dueAt, 0)
		r.CreatedAt = time.Unix(createdAt, 0)
		r.Notified = notified != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) MarkNotified(ctx context.Context, reminderID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET notified = 1 WHERE reminder_id = ?`, reminderID,
	)
	return err
}

func (s *sqliteStore) AddScheduleEntry(ctx context.Context, userID int64, day, task string) error {
	if weekdayIndex(day) >= len(Weekdays) {
		return fmt.Errorf("invalid weekday %q", day)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO weekly_schedule(user_id, day, task, created_at) VALUES(?,?,?,?)`,
		userID, day, task, time.Now().Unix(),
	)
	return err
}

func (s *sqliteStore) ScheduleEntries(ctx context.Context, userID int64) ([]ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT schedule_id, user_id, day, task
		 FROM weekly_schedule
		 WHERE user_id = ?
		 ORDER BY CASE day
		     WHEN 'Monday' THEN 0 WHEN 'Tuesday' THEN 1 WHEN 'Wednesday' THEN 2
		     WHEN 'Thursday' THEN 3 WHEN 'Friday' THEN 4 WHEN 'Saturday' THEN 5
		     ELSE 6 END,
		     schedule_id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ScheduleEntry
	for rows.Next() {
		var e ScheduleEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Day, &e.Task); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ScheduleOwners(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT u.user_id, u.name, u.chat_id, u.created_at
		 FROM users u
		 JOIN weekly_schedule w ON w.user_id = u.user_id
		 ORDER BY u.user_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []User
	for rows.Next() {
		var (
			u         User
			createdAt int64
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.ChatID, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, u)
	}
	return out, rows.Err()
}
