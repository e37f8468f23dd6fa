package useCases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

// userLock — мьютекс одного пользователя; refs считает ждущих, чтобы удалить его, когда никого нет
type userLock struct {
	mu   sync.Mutex
	refs int
}

// Registry — единственная точка доступа к сессиям.
// Операции над одним userID взаимно исключают друг друга, разные пользователи друг друга не ждут:
// общий mu держится только на время работы с картой замков.
type Registry struct {
	store ports.SessionStore
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	locks map[int64]*userLock
}

func NewRegistry(store ports.SessionStore, ttl time.Duration) *Registry {
	return &Registry{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		locks: make(map[int64]*userLock),
	}
}

func (r *Registry) lock(userID int64) func() {
	r.mu.Lock()
	l, ok := r.locks[userID]
	if !ok {
		l = &userLock{}
		r.locks[userID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, userID)
		}
		r.mu.Unlock()
	}
}

// load достаёт сессию; истёкшая считается отсутствующей и удаляется. Вызывать под замком.
func (r *Registry) load(ctx context.Context, userID int64) (*domain.Session, error) {
	s, err := r.store.Get(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(r.ttl, r.now()) {
		if err := r.store.Delete(ctx, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s, nil
}

// Update выполняет fn под замком пользователя. fn получает текущую сессию (nil, если её нет)
// и возвращает следующую: nil или завершённая сессия удаляются из реестра, остальные сохраняются.
func (r *Registry) Update(ctx context.Context, userID int64, fn func(cur *domain.Session) (*domain.Session, error)) error {
	unlock := r.lock(userID)
	defer unlock()

	cur, err := r.load(ctx, userID)
	if err != nil {
		return fmt.Errorf("load session %d: %w", userID, err)
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}

	if next == nil || next.Terminated() {
		if cur == nil {
			return nil
		}
		if err := r.store.Delete(ctx, userID); err != nil {
			return fmt.Errorf("remove session %d: %w", userID, err)
		}
		return nil
	}

	if err := r.store.Save(ctx, next, r.ttl); err != nil {
		return fmt.Errorf("save session %d: %w", userID, err)
	}
	return nil
}

// GetOrCreate возвращает текущую сессию или заводит новую с первого шага
func (r *Registry) GetOrCreate(ctx context.Context, userID, chatID int64) (*domain.Session, error) {
	var out *domain.Session
	err := r.Update(ctx, userID, func(cur *domain.Session) (*domain.Session, error) {
		if cur == nil {
			cur = domain.NewSession(userID, chatID, r.now())
		}
		out = cur
		return cur, nil
	})
	return out, err
}

// Set заменяет сессию пользователя целиком
func (r *Registry) Set(ctx context.Context, s *domain.Session) error {
	return r.Update(ctx, s.UserID, func(*domain.Session) (*domain.Session, error) {
		return s, nil
	})
}

func (r *Registry) Remove(ctx context.Context, userID int64) error {
	return r.Update(ctx, userID, func(*domain.Session) (*domain.Session, error) {
		return nil, nil
	})
}

// Get — снимок сессии или domain.ErrSessionNotFound
func (r *Registry) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	unlock := r.lock(userID)
	defer unlock()

	s, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Len(ctx context.Context) (int, error) {
	return r.store.Len(ctx)
}
