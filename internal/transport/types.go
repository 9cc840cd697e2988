package transport

import "context"

// Message is an inbound chat message, normalized away from the
// Telegram-specific update shape.
type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
}

type Update struct {
	Message *Message
}

// ChatTarget is the delivery address of one user's chat.
type ChatTarget struct {
	ChatID int64
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool

	// ReplyKeyboard, when non-empty, attaches a persistent reply keyboard
	// with one button per cell. Rows map to keyboard rows.
	ReplyKeyboard [][]string
}

// Adapter is the messaging platform boundary. Start feeds inbound updates
// into out until ctx is cancelled or Stop is called. SendText is best-effort,
// at-most-once per call: an error means the message may not have been sent.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) error
}
