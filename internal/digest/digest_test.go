package digest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	failChat int64
}

func (f *fakeSender) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChat != 0 && to.ChatID == f.failChat {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, sentMessage{ChatID: to.ChatID, Text: text})
	return nil
}

func seedSchedules(t *testing.T, mem *storage.Memory) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, mem.UpsertUser(ctx, storage.User{ID: 1, Name: "a", ChatID: 10}))
	require.NoError(t, mem.UpsertUser(ctx, storage.User{ID: 2, Name: "b", ChatID: 20}))
	require.NoError(t, mem.UpsertUser(ctx, storage.User{ID: 3, Name: "c", ChatID: 30}))
	require.NoError(t, mem.AddScheduleEntry(ctx, 1, "Friday", "review"))
	require.NoError(t, mem.AddScheduleEntry(ctx, 1, "Monday", "gym"))
	require.NoError(t, mem.AddScheduleEntry(ctx, 2, "Sunday", "rest"))
	// User 3 has no schedule and must not receive a digest.
}

func TestRunSendsOneDigestPerOwner(t *testing.T) {
	t.Parallel()
	mem := storage.NewMemory()
	seedSchedules(t, mem)
	sender := &fakeSender{}

	s := New(Config{Enabled: true}, mem, sender, logx.Nop())
	s.run()

	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(10), sender.sent[0].ChatID)
	assert.Equal(t, int64(20), sender.sent[1].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Your week ahead:")
	assert.Contains(t, sender.sent[0].Text, "- Monday: gym")
	assert.Contains(t, sender.sent[0].Text, "- Friday: review")
	assert.Contains(t, sender.sent[1].Text, "- Sunday: rest")
}

func TestRunSendFailureDoesNotAbortCohort(t *testing.T) {
	t.Parallel()
	mem := storage.NewMemory()
	seedSchedules(t, mem)
	sender := &fakeSender{failChat: 10}

	s := New(Config{Enabled: true}, mem, sender, logx.Nop())
	s.run()

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(20), sender.sent[0].ChatID)
}

func TestStartDisabledIsNoop(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: false}, storage.NewMemory(), &fakeSender{}, logx.Nop())
	require.NoError(t, s.Start())
	// Stop on a never-started service must not block.
	s.Stop(context.Background())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Schedule: "not a cron spec"}, storage.NewMemory(), &fakeSender{}, logx.Nop())
	require.Error(t, s.Start())
}

func TestDefaultScheduleApplied(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Schedule: "  "}, storage.NewMemory(), &fakeSender{}, logx.Nop())
	assert.Equal(t, defaultSchedule, s.cfg.Schedule)
}
