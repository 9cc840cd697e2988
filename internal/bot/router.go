package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

// Sender is the outbound side of the transport adapter.
type Sender interface {
	SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) error
}

// pendingKind tracks a two-step flow: the menu button arms the flow, the next
// message from the same chat completes it.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingReminder
	pendingSchedule
)

// Router consumes inbound updates and drives the registration, reminder
// intake and weekly schedule flows against the store.
type Router struct {
	store  storage.Store
	sender Sender
	log    logx.Logger
	loc    *time.Location

	mu      sync.Mutex
	pending map[int64]pendingKind // chat id -> armed flow
}

func NewRouter(store storage.Store, sender Sender, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		store:   store,
		sender:  sender,
		log:     log.With(logx.String("comp", "bot")),
		loc:     time.Local,
		pending: map[int64]pendingKind{},
	}
}

// Run consumes updates until ctx is cancelled. Handler errors are logged,
// never propagated: a malformed message must not stop the bot.
func (r *Router) Run(ctx context.Context, updates <-chan kit.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-updates:
			if !ok {
				return
			}
			if up.Message == nil {
				continue
			}
			r.handle(ctx, up.Message)
		}
	}
}

func (r *Router) handle(ctx context.Context, m *kit.Message) {
	to := kit.ChatTarget{ChatID: m.ChatID}
	text := strings.TrimSpace(m.Text)

	switch text {
	case "/start":
		r.handleStart(ctx, m, to)
		return
	case btnAddReminder:
		r.arm(m.ChatID, pendingReminder)
		r.reply(ctx, to, "Please send your reminder in the format: Reminder Text | YYYY-MM-DD HH:MM", nil)
		return
	case btnAddSchedule:
		r.arm(m.ChatID, pendingSchedule)
		r.reply(ctx, to, "Please send your weekly schedule in the format: Day | Task (e.g. Monday | Gym at 6 PM)", nil)
		return
	case btnViewSchedule:
		r.handleViewSchedule(ctx, m, to)
		return
	}

	switch r.disarm(m.ChatID) {
	case pendingReminder:
		r.handleAddReminder(ctx, m, to, text)
	case pendingSchedule:
		r.handleAddSchedule(ctx, m, to, text)
	default:
		r.reply(ctx, to, "Use the buttons below to interact with the bot.", mainMenu())
	}
}

func (r *Router) handleStart(ctx context.Context, m *kit.Message, to kit.ChatTarget) {
	name := m.FromUsername
	if name == "" {
		name = "Anonymous"
	}
	err := r.store.UpsertUser(ctx, storage.User{
		ID:     m.FromID,
		Name:   name,
		ChatID: m.ChatID,
	})
	if err != nil {
		r.log.Error("user registration failed", logx.Int64("user_id", m.FromID), logx.Err(err))
		r.reply(ctx, to, "Something went wrong, please try /start again.", nil)
		return
	}
	r.log.Info("user registered", logx.Int64("user_id", m.FromID), logx.String("name", name), logx.Int64("chat_id", m.ChatID))
	r.reply(ctx, to, "Welcome! Use the buttons below to interact with the bot.", mainMenu())
}

func (r *Router) handleAddReminder(ctx context.Context, m *kit.Message, to kit.ChatTarget, text string) {
	body, dueAt, err := parseReminderInput(text, r.loc)
	if err != nil {
		r.reply(ctx, to, "Error setting reminder. "+err.Error(), nil)
		return
	}
	id, err := r.store.CreateReminder(ctx, m.FromID, body, dueAt)
	if err != nil {
		r.log.Error("reminder create failed", logx.Int64("user_id", m.FromID), logx.Err(err))
		r.reply(ctx, to, "Error setting reminder. Please try again later.", nil)
		return
	}
	r.log.Info("reminder added", logx.Int64("reminder_id", id), logx.Int64("user_id", m.FromID), logx.Time("due_at", dueAt))
	r.reply(ctx, to, "Reminder set for "+dueAt.Format(reminderTimeLayout)+".", nil)
}

func (r *Router) handleAddSchedule(ctx context.Context, m *kit.Message, to kit.ChatTarget, text string) {
	day, task, err := parseScheduleInput(text)
	if err != nil {
		r.reply(ctx, to, "Error adding weekly schedule. "+err.Error(), nil)
		return
	}
	if err := r.store.AddScheduleEntry(ctx, m.FromID, day, task); err != nil {
		r.log.Error("schedule entry create failed", logx.Int64("user_id", m.FromID), logx.Err(err))
		r.reply(ctx, to, "Error adding weekly schedule. Please try again later.", nil)
		return
	}
	r.log.Info("weekly schedule added", logx.Int64("user_id", m.FromID), logx.String("day", day))
	r.reply(ctx, to, "Weekly schedule updated: "+day+" | "+task, nil)
}

func (r *Router) handleViewSchedule(ctx context.Context, m *kit.Message, to kit.ChatTarget) {
	entries, err := r.store.ScheduleEntries(ctx, m.FromID)
	if err != nil {
		r.log.Error("schedule fetch failed", logx.Int64("user_id", m.FromID), logx.Err(err))
		r.reply(ctx, to, "Error retrieving weekly schedule.", nil)
		return
	}
	r.reply(ctx, to, FormatSchedule("Your weekly schedule:", entries), nil)
}

func (r *Router) reply(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) {
	if err := r.sender.SendText(ctx, to, text, opt); err != nil {
		r.log.Warn("reply failed", logx.Int64("chat_id", to.ChatID), logx.Err(err))
	}
}

func (r *Router) arm(chatID int64, k pendingKind) {
	r.mu.Lock()
	r.pending[chatID] = k
	r.mu.Unlock()
}

func (r *Router) disarm(chatID int64) pendingKind {
	r.mu.Lock()
	k := r.pending[chatID]
	delete(r.pending, chatID)
	r.mu.Unlock()
	return k
}
