package notifier

import (
	"context"
	"time"

	kit "remindbot/internal/transport"
)

// Config controls the due-reminder delivery loop.
type Config struct {
	Enabled     bool
	Interval    time.Duration // scan interval, default 60s
	RatePerSec  int           // outbound send rate limit, default 25
	SendTimeout time.Duration // per-delivery budget, default 30s
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 25
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	return c
}

// Sender is the outbound half of the transport adapter; the loop never needs
// the inbound side.
type Sender interface {
	SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) error
}

// CycleStats summarizes one scan→deliver→acknowledge cycle.
type CycleStats struct {
	Scanned   int // reminders returned by the scan
	Delivered int // sent and acknowledged
	Redeliver int // sent but acknowledge failed; will go out again
	Skipped   int // owner missing (data-integrity), retried next cycle
	Failed    int // send failed, retried next cycle
}
