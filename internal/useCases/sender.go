package useCases

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

var ErrNoClient = errors.New("telegram client is not attached")

// Bot API не даёт слать больше ~30 сообщений в секунду на бота
const (
	sendRate  = 25
	sendBurst = 5
)

// Sender доставляет ответы через текущего Telegram-клиента.
// Клиент подменяется раннером при перезапуске транспорта.
type Sender struct {
	log     *slog.Logger
	limiter *rate.Limiter

	ownerChatID int64 // 0 — уведомления выключены

	mu sync.RWMutex
	tg ports.TelegramClient
}

func NewSender(log *slog.Logger, ownerChatID int64) *Sender {
	return &Sender{
		log:         log,
		limiter:     rate.NewLimiter(rate.Limit(sendRate), sendBurst),
		ownerChatID: ownerChatID,
	}
}

// Attach подключает клиента; nil отключает отправку
func (s *Sender) Attach(tg ports.TelegramClient) {
	s.mu.Lock()
	s.tg = tg
	s.mu.Unlock()
}

func (s *Sender) client() ports.TelegramClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tg
}

// Send отправляет ответы по порядку; на первой ошибке останавливается
func (s *Sender) Send(ctx context.Context, replies []domain.Reply) error {
	for _, r := range replies {
		if err := s.send(ctx, r); err != nil {
			s.log.Error("SendReply", "chat_id", r.ChatID, "error", err)
			return err
		}
	}
	return nil
}

func (s *Sender) send(ctx context.Context, r domain.Reply) error {
	tg := s.client()
	if tg == nil {
		return ErrNoClient
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return tg.SendReply(r)
}

// NotifyLead реализует ports.OwnerNotifier
func (s *Sender) NotifyLead(ctx context.Context, lead domain.LeadRecord) error {
	if s.ownerChatID == 0 {
		return nil
	}
	return s.send(ctx, domain.Reply{
		ChatID: s.ownerChatID,
		Text:   ownerLeadText(lead),
	})
}
