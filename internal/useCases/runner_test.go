package useCases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
	"github.com/larriantoniy/tg_sales_bot/internal/metrics"
	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

func newTestRunner(factory ClientFactory) *Runner {
	r, _ := newTestRunnerWith(factory, &fakeDispatcher{result: domain.Delivered()})
	return r
}

func newTestRunnerWith(factory ClientFactory, d ports.LeadDispatcher) (*Runner, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	conv := NewConversation(testLogger(), newTestRegistry(0), testCatalog, d, m)
	r := NewRunner(testLogger(), factory, conv, NewSender(testLogger(), 0))
	r.restartBase = time.Millisecond
	return r, m
}

func runInBackground(t *testing.T, r *Runner) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return cancel, done
}

func TestRunnerKeepsPerUserOrder(t *testing.T) {
	tg := newFakeTelegram()
	r := newTestRunner(func(*slog.Logger) (ports.TelegramClient, error) { return tg, nil })
	cancel, done := runInBackground(t, r)

	for _, id := range []int64{1, 2} {
		tg.updates <- domain.Message{UserID: id, ChatID: id, Kind: domain.EventStart}
		tg.updates <- domain.Message{UserID: id, ChatID: id, Kind: domain.EventText, Text: domain.AnswerWithAutostart}
		tg.updates <- domain.Message{UserID: id, ChatID: id, Kind: domain.EventText, Text: domain.AnswerAppControl}
		tg.updates <- domain.Message{UserID: id, ChatID: id, Kind: domain.EventText, Text: domain.AnswerGpsYes}
	}

	require.Eventually(t, func() bool { return len(tg.replies()) == 8 }, 2*time.Second, 5*time.Millisecond)
	for _, id := range []int64{1, 2} {
		got := tg.repliesTo(id)
		require.Len(t, got, 4)
		assert.Equal(t, greetingReply(id, ""), got[0])
		assert.Equal(t, askControlReply(id), got[1])
		assert.Equal(t, askGpsReply(id), got[2])
		assert.Equal(t, contactButton, got[3].ContactButton)
	}

	cancel()
	assert.NoError(t, <-done)
	tg.mu.Lock()
	assert.True(t, tg.closed)
	tg.mu.Unlock()
}

func TestRunnerRestartsClosedClient(t *testing.T) {
	var calls atomic.Int32
	second := newFakeTelegram()
	r := newTestRunner(func(*slog.Logger) (ports.TelegramClient, error) {
		switch calls.Add(1) {
		case 1:
			tg := newFakeTelegram()
			close(tg.updates)
			return tg, nil
		case 2:
			return nil, errors.New("tdlib not ready")
		default:
			return second, nil
		}
	})
	cancel, done := runInBackground(t, r)

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)

	// перезапущенный клиент обслуживает пользователей как обычно
	second.updates <- domain.Message{UserID: 5, ChatID: 5, Kind: domain.EventStart}
	require.Eventually(t, func() bool { return len(second.replies()) == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunnerRestartKeepsLeadDispatchAlive(t *testing.T) {
	dispatcher := &fakeDispatcher{
		result:  domain.Delivered(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	first, second := newFakeTelegram(), newFakeTelegram()
	var calls atomic.Int32
	r, m := newTestRunnerWith(func(*slog.Logger) (ports.TelegramClient, error) {
		if calls.Add(1) == 1 {
			return first, nil
		}
		return second, nil
	}, dispatcher)
	cancel, done := runInBackground(t, r)
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	for _, msg := range []domain.Message{
		{Kind: domain.EventStart},
		{Kind: domain.EventText, Text: domain.AnswerWithoutAutostart},
		{Kind: domain.EventText, Text: domain.AnswerRemoteFob},
		{Kind: domain.EventText, Text: domain.AnswerGpsNo},
		{Kind: domain.EventText, Text: "89991234567"},
	} {
		msg.UserID, msg.ChatID = 7, 7
		first.updates <- msg
	}
	<-dispatcher.started

	// клиент падает, пока заявка уходит в CRM
	close(first.updates)
	require.Eventually(t, func() bool {
		return r.sender.client() == ports.TelegramClient(second)
	}, 2*time.Second, time.Millisecond)
	close(dispatcher.release)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.LeadsDispatched.WithLabelValues("delivered")) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.NoError(t, dispatcher.ctxErr())

	// ответ об успехе уходит через новый клиент
	require.Eventually(t, func() bool { return len(second.repliesTo(7)) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, deliveredReply(7), second.repliesTo(7)[0])
}

func TestUserDispatcherFullQueueDoesNotBlockOthers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	var handled sync.Map
	d := newUserDispatcher(ctx, testLogger(), time.Minute, func(_ context.Context, msg domain.Message) {
		if msg.UserID == 1 {
			<-release
		}
		handled.Store(msg.UserID, true)
	})
	defer func() {
		close(release)
		cancel()
		d.wait()
	}()

	dropped := 0
	for i := 0; i < userQueueSize+2; i++ {
		if !d.submit(domain.Message{UserID: 1}) {
			dropped++
		}
	}
	assert.Positive(t, dropped)

	submitted := make(chan bool, 1)
	go func() { submitted <- d.submit(domain.Message{UserID: 3}) }()
	select {
	case ok := <-submitted:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("user 3 waits behind user 1")
	}
	require.Eventually(t, func() bool {
		_, ok := handled.Load(int64(3))
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestUserDispatcherWorkerStopsWhenIdle(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := newUserDispatcher(ctx, testLogger(), 20*time.Millisecond, func(_ context.Context, msg domain.Message) {
		mu.Lock()
		seen = append(seen, msg.Text)
		mu.Unlock()
	})

	d.submit(domain.Message{UserID: 1, Text: "a"})
	d.submit(domain.Message{UserID: 1, Text: "b"})

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.queues) == 0
	}, time.Second, 5*time.Millisecond)

	// после простоя воркер поднимается заново
	d.submit(domain.Message{UserID: 1, Text: "c"})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)
	cancel()
	d.wait()

	assert.Equal(t, []string{"a", "b", "c"}, seen)
}
