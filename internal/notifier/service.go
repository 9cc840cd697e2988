package notifier

import (
	"context"
	"sync"

	rtsup "remindbot/internal/runtime/supervisor"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"

	"golang.org/x/time/rate"
)

// Service runs the due-reminder pipeline: a fixed-interval scan for reminders
// whose due time has passed, one delivery per reminder, and a durable
// acknowledge after each successful delivery.
//
// Failure policy (per item, never per cycle):
//   - scan failure: cycle skipped, retried at the next interval
//   - missing owner: item skipped, retried next cycle
//   - send failure: acknowledge NOT called, retried next cycle
//   - acknowledge failure after a successful send: logged, re-delivered next
//     cycle (at-least-once: the loop favors a duplicate over a silent drop)
type Service struct {
	mu sync.Mutex

	log    logx.Logger
	store  storage.Store
	sender Sender

	cfg     Config
	limiter *rate.Limiter

	sup *rtsup.Supervisor
}

func New(cfg Config, store storage.Store, sender Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:    log.With(logx.String("comp", "notifier")),
		store:  store,
		sender: sender,
	}
	s.applyLocked(cfg)
	return s
}

// Apply updates interval and rate at runtime. The loop picks up the new
// interval at its next wakeup.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	cfg = cfg.withDefaults()
	s.cfg = cfg
	// Token bucket: burst = rate per sec, so a large due cohort drains quickly
	// without tripping Telegram's flood limits.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Start launches the loop. Idempotent; a disabled service starts nothing.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.sup != nil || !s.cfg.Enabled {
		s.mu.Unlock()
		return
	}
	s.sup = rtsup.New(ctx,
		rtsup.WithLogger(s.log),
		rtsup.WithCancelOnError(false),
	)
	sup := s.sup
	s.mu.Unlock()

	// The loop itself never returns an error, but a panic in a store or
	// transport implementation must not kill reminder delivery for good.
	sup.GoRestart("reminder.loop", s.loop,
		rtsup.WithStopOnCleanExit(true),
	)
}

// Stop cancels the loop and waits for an in-flight cycle to wind down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	sup := s.sup
	s.sup = nil
	s.mu.Unlock()

	if sup == nil {
		return nil
	}
	return sup.Stop(ctx)
}
