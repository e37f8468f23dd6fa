package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type State int

const (
	StateAwaitingAutostart State = iota + 1
	StateAwaitingControl
	StateAwaitingGps
	StateAwaitingPhone
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingAutostart:
		return "awaiting_autostart"
	case StateAwaitingControl:
		return "awaiting_control"
	case StateAwaitingGps:
		return "awaiting_gps"
	case StateAwaitingPhone:
		return "awaiting_phone"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Transition — что произошло с сессией после события.
type Transition int

const (
	// TransitionNone — событие не подходит к шагу, ничего не меняем
	TransitionNone Transition = iota
	TransitionAskControl
	TransitionAskGps
	// TransitionRecommended — подбор выполнен, результат в Session.Recommended
	TransitionRecommended
	TransitionPhoneRejected
	// TransitionLeadCaptured — номер принят, заявку надо отправить
	TransitionLeadCaptured
	TransitionCancelled
)

func (t Transition) String() string {
	switch t {
	case TransitionAskControl:
		return "ask_control"
	case TransitionAskGps:
		return "ask_gps"
	case TransitionRecommended:
		return "recommended"
	case TransitionPhoneRejected:
		return "phone_rejected"
	case TransitionLeadCaptured:
		return "lead_captured"
	case TransitionCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Session — прохождение опроса одним пользователем.
type Session struct {
	ID          uuid.UUID       `json:"id"`
	UserID      int64           `json:"user_id"`
	ChatID      int64           `json:"chat_id"`
	State       State           `json:"state"`
	Preferences UserPreferences `json:"preferences"`
	Recommended []CatalogItem   `json:"recommended,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewSession начинает опрос с первого вопроса, без старых ответов.
func NewSession(userID, chatID int64, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		ChatID:    chatID,
		State:     StateAwaitingAutostart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Terminated() bool { return s.State == StateTerminated }

// Expired — сессия не обновлялась дольше ttl. ttl <= 0 означает "не истекает".
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.UpdatedAt) > ttl
}

// Apply продвигает сессию по событию. Start обрабатывается реестром, сюда не доходит.
// Для TransitionLeadCaptured возвращается заявка; сессия к этому моменту уже Terminated.
func (s *Session) Apply(msg Message, catalog Catalog, now time.Time) (Transition, *LeadRecord) {
	if s.State == StateTerminated {
		return TransitionNone, nil
	}
	if msg.Kind == EventCancel {
		s.moveTo(StateTerminated, now)
		return TransitionCancelled, nil
	}

	switch s.State {
	case StateAwaitingAutostart:
		v, ok := autostartAnswers[msg.Text]
		if msg.Kind != EventText || !ok {
			return TransitionNone, nil
		}
		s.Preferences.SetAutostart(v)
		s.moveTo(StateAwaitingControl, now)
		return TransitionAskControl, nil

	case StateAwaitingControl:
		m, ok := controlAnswers[msg.Text]
		if msg.Kind != EventText || !ok {
			return TransitionNone, nil
		}
		s.Preferences.SetControlMode(m)
		s.moveTo(StateAwaitingGps, now)
		return TransitionAskGps, nil

	case StateAwaitingGps:
		v, ok := gpsAnswers[msg.Text]
		if msg.Kind != EventText || !ok {
			return TransitionNone, nil
		}
		s.Preferences.SetGps(v)
		s.Recommended = Recommend(catalog, s.Preferences)
		s.moveTo(StateAwaitingPhone, now)
		return TransitionRecommended, nil

	case StateAwaitingPhone:
		raw := msg.Text
		switch msg.Kind {
		case EventContact:
			raw = msg.ContactPhone
		case EventText:
		default:
			return TransitionNone, nil
		}
		phone, ok := NormalizePhone(raw)
		if !ok {
			s.UpdatedAt = now
			return TransitionPhoneRejected, nil
		}
		lead := NewLeadRecord(s.UserID, phone, s.Recommended, now)
		s.moveTo(StateTerminated, now)
		return TransitionLeadCaptured, &lead
	}

	return TransitionNone, nil
}

func (s *Session) moveTo(st State, now time.Time) {
	s.State = st
	s.UpdatedAt = now
}
