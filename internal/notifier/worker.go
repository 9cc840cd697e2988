package notifier

import (
	"context"
	"errors"
	"time"

	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

// loop drives scan cycles at the configured interval until ctx is cancelled.
// The first scan runs immediately so a restarted process catches up on
// reminders that came due while it was down.
func (s *Service) loop(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		st := s.RunCycle(ctx, time.Now())
		if st.Scanned > 0 {
			s.log.Info("cycle finished",
				logx.Int("scanned", st.Scanned),
				logx.Int("delivered", st.Delivered),
				logx.Int("redeliver", st.Redeliver),
				logx.Int("skipped", st.Skipped),
				logx.Int("failed", st.Failed),
			)
		}

		s.mu.Lock()
		interval := s.cfg.Interval
		s.mu.Unlock()
		timer.Reset(interval)
	}
}

// RunCycle executes one scan→deliver→acknowledge pass over every reminder due
// at now. One reminder's failure never aborts the rest of the batch. Exported
// so tests can drive a bounded number of cycles with a fixed clock.
func (s *Service) RunCycle(ctx context.Context, now time.Time) CycleStats {
	var st CycleStats

	due, err := s.store.DueReminders(ctx, now)
	if err != nil {
		// Transient store failure: nothing was acknowledged, so the same
		// reminders come back at the next interval.
		s.log.Warn("due-reminder scan failed", logx.Err(err))
		return st
	}
	st.Scanned = len(due)

	for _, r := range due {
		// Shutdown between items is fine; anything unsent stays unnotified
		// and is picked up after the restart.
		if ctx.Err() != nil {
			return st
		}
		s.deliverOne(ctx, r, &st)
	}
	return st
}

func (s *Service) deliverOne(ctx context.Context, r storage.Reminder, st *CycleStats) {
	itemLog := s.log.With(logx.Int64("reminder_id", r.ID), logx.Int64("user_id", r.UserID))

	chatID, err := s.store.UserChatID(ctx, r.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUnknownUser) {
			// Data-integrity condition, not transient: the reminder stays
			// unnotified and is retried every cycle until the user record
			// reappears.
			itemLog.Warn("reminder owner missing, skipping", logx.Err(err))
			st.Skipped++
		} else {
			itemLog.Warn("owner lookup failed", logx.Err(err))
			st.Failed++
		}
		return
	}

	s.mu.Lock()
	lim := s.limiter
	sendTimeout := s.cfg.SendTimeout
	s.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		// Shutdown while queued behind the rate limiter: not yet in flight,
		// safe to leave for the next run.
		st.Failed++
		return
	}

	// Once the send starts, it and the acknowledge run detached from the loop
	// context: shutdown must not leave a delivered reminder unacknowledged.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	msg := "Reminder: " + r.Body
	if err := s.sender.SendText(dctx, kit.ChatTarget{ChatID: chatID}, msg, nil); err != nil {
		// Not acknowledged, so this is a delayed notification, never a lost one.
		itemLog.Warn("reminder delivery failed", logx.Err(err))
		st.Failed++
		return
	}

	if err := s.store.MarkNotified(dctx, r.ID); err != nil {
		// The accepted degraded mode: the message went out but the flag did
		// not stick, so the user will see it again next cycle.
		itemLog.Error("acknowledge failed after delivery, reminder will repeat", logx.Err(err))
		st.Redeliver++
		return
	}

	itemLog.Info("reminder delivered", logx.Time("due_at", r.DueAt))
	st.Delivered++
}
