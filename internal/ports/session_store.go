package ports

import (
	"context"
	"time"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
)

// SessionStore хранит сессии опроса по userID.
// Блокировки по пользователю — забота реестра, хранилище только читает и пишет.
type SessionStore interface {
	// Get возвращает domain.ErrSessionNotFound, если сессии нет
	Get(ctx context.Context, userID int64) (*domain.Session, error)
	// Save сохраняет сессию; ttl <= 0 — без срока жизни
	Save(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, userID int64) error
	// Len — число активных сессий, для метрик
	Len(ctx context.Context) (int, error)
}
