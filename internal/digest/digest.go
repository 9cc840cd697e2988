// Package digest sends each user with a weekly schedule a summary of their
// plan on a cron spec (default Monday morning).
package digest

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/internal/bot"
	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

const defaultSchedule = "0 8 * * MON"

type Config struct {
	Enabled  bool
	Schedule string
}

type Service struct {
	cfg    Config
	store  storage.Store
	sender bot.Sender
	log    logx.Logger

	cron *cron.Cron
}

func New(cfg Config, store storage.Store, sender bot.Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Schedule) == "" {
		cfg.Schedule = defaultSchedule
	}
	return &Service{
		cfg:    cfg,
		store:  store,
		sender: sender,
		log:    log.With(logx.String("comp", "digest")),
	}
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Schedule, s.run); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	s.log.Info("weekly digest scheduled", logx.String("spec", s.cfg.Schedule))
	return nil
}

// Stop halts the cron scheduler and waits for a running digest to finish,
// bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// run sends one digest per schedule owner. Per-user failures are logged and
// the rest of the cohort still gets its digest.
func (s *Service) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	owners, err := s.store.ScheduleOwners(ctx)
	if err != nil {
		s.log.Warn("digest owner scan failed", logx.Err(err))
		return
	}

	sent := 0
	for _, u := range owners {
		entries, err := s.store.ScheduleEntries(ctx, u.ID)
		if err != nil {
			s.log.Warn("digest schedule fetch failed", logx.Int64("user_id", u.ID), logx.Err(err))
			continue
		}
		if len(entries) == 0 {
			continue
		}
		msg := bot.FormatSchedule("Your week ahead:", entries)
		if err := s.sender.SendText(ctx, kit.ChatTarget{ChatID: u.ChatID}, msg, nil); err != nil {
			s.log.Warn("digest send failed", logx.Int64("user_id", u.ID), logx.Err(err))
			continue
		}
		sent++
	}
	if sent > 0 {
		s.log.Info("weekly digest sent", logx.Int("users", sent))
	}
}
