package useCases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

var ErrUpdatesClosed = errors.New("telegram updates channel closed")

const (
	restartBase   = time.Second
	restartCap    = time.Minute
	userQueueSize = 16
	workerIdle    = time.Minute
)

type ClientFactory func(log *slog.Logger) (ports.TelegramClient, error)

// Runner поднимает Telegram-клиента, раздаёт события по пользователям
// и перезапускает клиента с экспоненциальной паузой, если он упал.
type Runner struct {
	log     *slog.Logger
	factory ClientFactory
	conv    *Conversation
	sender  *Sender

	restartBase time.Duration
	idle        time.Duration
}

func NewRunner(log *slog.Logger, factory ClientFactory, conv *Conversation, sender *Sender) *Runner {
	return &Runner{
		log:         log,
		factory:     factory,
		conv:        conv,
		sender:      sender,
		restartBase: restartBase,
		idle:        workerIdle,
	}
}

// Run блокируется до отмены ctx. Попытки перезапуска не ограничены.
// Обработчики пользователей живут на ctx раннера: перезапуск клиента не обрывает
// начатую отправку заявки.
func (r *Runner) Run(ctx context.Context) error {
	d := newUserDispatcher(ctx, r.log, r.idle, r.handle)
	defer d.wait()

	backoff := retry.WithCappedDuration(restartCap, retry.NewExponential(r.restartBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.runOnce(ctx, d)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		r.log.Error("telegram client stopped, restarting", "error", err)
		return retry.RetryableError(err)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (r *Runner) runOnce(ctx context.Context, d *userDispatcher) error {
	cli, err := r.factory(r.log)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer cli.Close()

	updates, err := cli.Listen()
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	r.sender.Attach(cli)
	defer r.sender.Attach(nil)
	r.log.Info("client started")

	for {
		select {
		case <-ctx.Done():
			r.log.Info("client stopped")
			return nil
		case msg, ok := <-updates:
			if !ok {
				return ErrUpdatesClosed
			}
			d.submit(msg)
		}
	}
}

func (r *Runner) handle(ctx context.Context, msg domain.Message) {
	replies, err := r.conv.Handle(ctx, msg)
	if err != nil {
		r.log.Error("handle message", "user_id", msg.UserID, "error", err)
		return
	}
	if len(replies) == 0 {
		return
	}
	_ = r.sender.Send(ctx, replies)
}

// userDispatcher держит по очереди и горутине на активного пользователя:
// события одного пользователя обрабатываются строго по порядку, разные — параллельно.
type userDispatcher struct {
	ctx    context.Context
	log    *slog.Logger
	idle   time.Duration
	handle func(context.Context, domain.Message)

	mu     sync.Mutex
	queues map[int64]chan domain.Message
	wg     sync.WaitGroup
}

func newUserDispatcher(ctx context.Context, log *slog.Logger, idle time.Duration, handle func(context.Context, domain.Message)) *userDispatcher {
	return &userDispatcher{
		ctx:    ctx,
		log:    log,
		idle:   idle,
		handle: handle,
		queues: make(map[int64]chan domain.Message),
	}
}

// submit кладёт событие в очередь пользователя и никогда не ждёт: цикл обновлений
// общий для всех, поэтому переполненная очередь одного пользователя теряет событие,
// а не останавливает остальных. mu держится и на время записи, иначе воркер мог бы
// закрыться между поиском очереди и записью.
func (d *userDispatcher) submit(msg domain.Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, ok := d.queues[msg.UserID]
	if !ok {
		q = make(chan domain.Message, userQueueSize)
		d.queues[msg.UserID] = q
		d.wg.Add(1)
		go d.worker(msg.UserID, q)
	}

	select {
	case q <- msg:
		return true
	default:
		d.log.Warn("user queue full, event dropped", "user_id", msg.UserID, "event", msg.Kind.String())
		return false
	}
}

func (d *userDispatcher) worker(userID int64, q chan domain.Message) {
	ctx := d.ctx
	defer d.wg.Done()

	timer := time.NewTimer(d.idle)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-q:
			d.handle(ctx, msg)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d.idle)
		case <-timer.C:
			d.mu.Lock()
			if len(q) > 0 {
				d.mu.Unlock()
				timer.Reset(d.idle)
				continue
			}
			delete(d.queues, userID)
			d.mu.Unlock()
			d.log.Debug("user worker idle, stopped", "user_id", userID)
			return
		}
	}
}

func (d *userDispatcher) wait() {
	d.wg.Wait()
}
