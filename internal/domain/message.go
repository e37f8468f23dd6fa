package domain

import "strings"

type EventKind int

const (
	EventText EventKind = iota
	EventStart
	EventCancel
	EventContact
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventCancel:
		return "cancel"
	case EventContact:
		return "contact"
	default:
		return "text"
	}
}

// Message описывает входящее событие из Telegram, уже разобранное транспортом
type Message struct {
	ChatID    int64
	UserID    int64
	FirstName string
	Kind      EventKind
	Text      string
	// ContactPhone заполнен только для EventContact
	ContactPhone string
}

// Reply — исходящее сообщение пользователю.
type Reply struct {
	ChatID int64
	Text   string
	HTML   bool
	// Keyboard — строки кнопок с готовыми ответами
	Keyboard [][]string
	// ContactButton — подпись кнопки "поделиться контактом"
	ContactButton  string
	RemoveKeyboard bool
}

// ParseCommand распознаёт /start и /cancel, в том числе "/start@my_bot" и "/start payload".
// Прочие команды и обычный текст — не команды.
func ParseCommand(text string) (EventKind, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return EventText, false
	}
	cmd, _, _ := strings.Cut(text[1:], " ")
	cmd, _, _ = strings.Cut(cmd, "@")

	switch strings.ToLower(cmd) {
	case "start":
		return EventStart, true
	case "cancel":
		return EventCancel, true
	default:
		return EventText, false
	}
}
