package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/FiveCrux/FiveCrux-sub000/config"
)

type fakeSlots struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (f *fakeSlots) ExpireEnded(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("job context has no deadline")
	}
	return f.n, f.err
}

type fakeGiveaways struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeGiveaways) DrawDue(context.Context) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New(&config.SchedulerConfig{ExpireSlots: "every five minutes"}, &fakeSlots{}, &fakeGiveaways{}, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "expire_slots")

	// five-field specs are rejected: the seconds field is required
	_, err = New(&config.SchedulerConfig{DrawGiveaways: "*/5 * * * *"}, &fakeSlots{}, &fakeGiveaways{}, zap.NewNop())
	require.Error(t, err)
}

func TestNew_DisabledJobs(t *testing.T) {
	logger, logs := observed()
	s, err := New(&config.SchedulerConfig{ExpireSlots: "0 */5 * * * *"}, &fakeSlots{}, &fakeGiveaways{}, logger)
	require.NoError(t, err)
	require.Len(t, s.cron.Entries(), 1)
	require.Equal(t, 1, logs.FilterMessage("scheduler job disabled").Len())
}

func TestScheduler_Jobs(t *testing.T) {
	logger, logs := observed()
	slots := &fakeSlots{n: 3}
	giveaways := &fakeGiveaways{err: errors.New("db gone")}
	s, err := New(&config.SchedulerConfig{}, slots, giveaways, logger)
	require.NoError(t, err)

	s.ExpireSlots()
	require.EqualValues(t, 1, slots.calls.Load())
	finished := logs.FilterMessage("scheduler job finished").All()
	require.Len(t, finished, 1)
	require.Equal(t, int64(3), finished[0].ContextMap()["affected"])

	s.DrawGiveaways()
	require.EqualValues(t, 1, giveaways.calls.Load())
	failed := logs.FilterMessage("scheduler job failed").All()
	require.Len(t, failed, 1)
	require.Equal(t, "draw_giveaways", failed[0].ContextMap()["job"])

	// nothing to do is not worth a log line
	slots.n = 0
	s.ExpireSlots()
	require.Len(t, logs.FilterMessage("scheduler job finished").All(), 1)
}

func TestScheduler_StartStop(t *testing.T) {
	slots := &fakeSlots{}
	giveaways := &fakeGiveaways{}
	s, err := New(&config.SchedulerConfig{ExpireSlots: "* * * * * *", DrawGiveaways: "@every 1s"}, slots, giveaways, zap.NewNop())
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool {
		return slots.calls.Load() > 0 && giveaways.calls.Load() > 0
	}, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
