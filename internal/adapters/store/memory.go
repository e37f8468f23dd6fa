package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
)

type memoryEntry struct {
	session   domain.Session
	expiresAt time.Time // zero — без срока
}

// MemoryStore держит сессии в процессе. Значения копируются на входе и выходе,
// чтобы вызывающий не менял хранимую сессию в обход Save.
type MemoryStore struct {
	log     *slog.Logger
	entries sync.Map // int64 -> *memoryEntry
	now     func() time.Time
}

func NewMemoryStore(log *slog.Logger) *MemoryStore {
	return &MemoryStore{log: log, now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	v, ok := m.entries.Load(userID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	e := v.(*memoryEntry)
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.entries.CompareAndDelete(userID, v)
		return nil, domain.ErrSessionNotFound
	}
	s := cloneSession(e.session)
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	e := &memoryEntry{session: cloneSession(*s)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries.Store(s.UserID, e)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID int64) error {
	m.entries.Delete(userID)
	return nil
}

func (m *MemoryStore) Len(ctx context.Context) (int, error) {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n, nil
}

// Sweep удаляет истёкшие сессии и возвращает их количество.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	removed := 0
	m.entries.Range(func(k, v any) bool {
		e := v.(*memoryEntry)
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			if m.entries.CompareAndDelete(k, v) {
				removed++
			}
		}
		return true
	})
	return removed
}

// RunSweeper чистит хранилище раз в interval до отмены ctx
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.Info("expired sessions removed", "count", n)
			}
		}
	}
}

func cloneSession(s domain.Session) domain.Session {
	if s.Recommended != nil {
		items := make([]domain.CatalogItem, len(s.Recommended))
		copy(items, s.Recommended)
		s.Recommended = items
	}
	return s
}
