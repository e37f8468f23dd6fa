package useCases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
	"github.com/larriantoniy/tg_sales_bot/internal/metrics"
	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

// Conversation ведёт пользователя по опросу: реестр сессий, подбор, отправка заявки.
type Conversation struct {
	log        *slog.Logger
	registry   *Registry
	catalog    domain.Catalog
	dispatcher ports.LeadDispatcher
	metrics    *metrics.Metrics

	// необязательные
	products ports.ProductInfoFetcher
	notifier ports.OwnerNotifier

	now func() time.Time
}

type ConversationOption func(*Conversation)

// WithProductInfo — подтягивать цену с карточки товара к каждой рекомендации
func WithProductInfo(f ports.ProductInfoFetcher) ConversationOption {
	return func(c *Conversation) { c.products = f }
}

// WithOwnerNotifier — сообщать менеджеру о доставленных заявках
func WithOwnerNotifier(n ports.OwnerNotifier) ConversationOption {
	return func(c *Conversation) { c.notifier = n }
}

func NewConversation(
	log *slog.Logger,
	registry *Registry,
	catalog domain.Catalog,
	dispatcher ports.LeadDispatcher,
	m *metrics.Metrics,
	opts ...ConversationOption,
) *Conversation {
	c := &Conversation{
		log:        log,
		registry:   registry,
		catalog:    catalog,
		dispatcher: dispatcher,
		metrics:    m,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle обрабатывает одно событие пользователя и возвращает ответы.
// Событие, которое не подходит к текущему шагу, ответов не даёт.
func (c *Conversation) Handle(ctx context.Context, msg domain.Message) ([]domain.Reply, error) {
	log := c.log.With("user_id", msg.UserID, "event", msg.Kind.String())

	if msg.Kind == domain.EventStart {
		return c.start(ctx, log, msg)
	}

	var (
		tr      domain.Transition
		lead    *domain.LeadRecord
		session domain.Session
	)
	err := c.registry.Update(ctx, msg.UserID, func(cur *domain.Session) (*domain.Session, error) {
		if cur == nil {
			return nil, nil
		}
		tr, lead = cur.Apply(msg, c.catalog, c.now())
		session = *cur
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	if tr == domain.TransitionNone {
		log.Debug("event ignored")
		return nil, nil
	}

	log = log.With("session_id", session.ID, "state", session.State.String())
	log.Info("session transition", "transition", tr.String())
	c.metrics.Transitions.WithLabelValues(tr.String()).Inc()

	chatID := msg.ChatID
	switch tr {
	case domain.TransitionAskControl:
		return []domain.Reply{askControlReply(chatID)}, nil
	case domain.TransitionAskGps:
		return []domain.Reply{askGpsReply(chatID)}, nil
	case domain.TransitionRecommended:
		infos := c.productInfos(ctx, log, session.Recommended)
		return []domain.Reply{recommendationReply(chatID, session.Recommended, infos)}, nil
	case domain.TransitionPhoneRejected:
		return []domain.Reply{phoneRejectedReply(chatID)}, nil
	case domain.TransitionCancelled:
		return []domain.Reply{cancelledReply(chatID)}, nil
	case domain.TransitionLeadCaptured:
		// сессия уже удалена из реестра, замок отпущен: отправляем копию заявки
		return []domain.Reply{c.dispatch(ctx, log, chatID, *lead)}, nil
	}
	return nil, nil
}

// start всегда начинает опрос заново, старая сессия со всеми ответами выбрасывается
func (c *Conversation) start(ctx context.Context, log *slog.Logger, msg domain.Message) ([]domain.Reply, error) {
	err := c.registry.Update(ctx, msg.UserID, func(cur *domain.Session) (*domain.Session, error) {
		if cur != nil {
			log.Info("session replaced by /start", "old_session_id", cur.ID, "old_state", cur.State.String())
		}
		s := domain.NewSession(msg.UserID, msg.ChatID, c.now())
		log.Info("session started", "session_id", s.ID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	c.metrics.SessionsStarted.Inc()
	return []domain.Reply{greetingReply(msg.ChatID, msg.FirstName)}, nil
}

func (c *Conversation) dispatch(ctx context.Context, log *slog.Logger, chatID int64, lead domain.LeadRecord) domain.Reply {
	log = log.With("lead_id", lead.ID)

	started := time.Now()
	res := c.dispatcher.Dispatch(ctx, lead)
	c.metrics.ObserveDispatch(res.OK(), time.Since(started))

	if !res.OK() {
		log.Error("lead dispatch failed", "reason", res.Reason)
		return failedReply(chatID)
	}

	log.Info("lead delivered", "phone", lead.Phone.String(), "items", lead.ItemNames())
	if c.notifier != nil {
		if err := c.notifier.NotifyLead(ctx, lead); err != nil {
			log.Warn("owner notify failed", "error", err)
		}
	}
	return deliveredReply(chatID)
}

// productInfos качает карточки параллельно; ошибка по одному товару не мешает остальным
func (c *Conversation) productInfos(ctx context.Context, log *slog.Logger, items []domain.CatalogItem) []string {
	if c.products == nil || len(items) == 0 {
		return nil
	}

	infos := make([]string, len(items))
	var wg sync.WaitGroup
	for i, it := range items {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			info, err := c.products.GetProductInfo(ctx, url)
			if err != nil {
				log.Warn("product info unavailable", "url", url, "error", err)
				info = productInfoUnavailable
			}
			infos[i] = info
		}(i, it.DetailURL)
	}
	wg.Wait()
	return infos
}

// ActiveSessions — для метрики active_sessions
func (c *Conversation) ActiveSessions(ctx context.Context) int {
	n, err := c.registry.Len(ctx)
	if err != nil {
		c.log.Warn("count sessions failed", "error", err)
		return 0
	}
	return n
}
