package tg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zelenin/go-tdlib/client"

	"github.com/larriantoniy/tg_sales_bot/internal/adapters/tg/pump"
	"github.com/larriantoniy/tg_sales_bot/internal/domain"
	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

var ErrRateLimited = errors.New("tdlib: too many requests")

// TelegramClient реализует ports.TelegramClient поверх TDLib, авторизуясь токеном бота
type TelegramClient struct {
	client *client.Client
	logger *slog.Logger
	selfID int64

	mu       sync.Mutex
	listener *client.Listener

	done      chan struct{}
	closeOnce sync.Once
}

func NewBotClient(baseDir string, sc *ports.SessionConfig, log *slog.Logger) (*TelegramClient, error) {
	sessionDir := filepath.Join(baseDir, sc.SessionName)
	dbDir := filepath.Join(sessionDir, "database")
	filesDir := filepath.Join(sessionDir, "files")

	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir files dir: %w", err)
	}

	if _, err := client.SetLogVerbosityLevel(&client.SetLogVerbosityLevelRequest{
		NewVerbosityLevel: 1,
	}); err != nil {
		log.Error("TDLib SetLogVerbosityLevel", "error", err)
	}

	probeNetwork(log, sc.Proxy)

	var opts []client.Option
	if opt, ok := proxyOption(sc.Proxy); ok {
		opts = append(opts, opt)
	}

	authorizer := client.BotAuthorizer(toTdParams(sc, dbDir, filesDir), sc.BotToken)

	tdCli, err := client.NewClient(authorizer, opts...)
	if err != nil {
		log.Error("TDLib NewClient error", "session", sc.SessionName, "error", err)
		return nil, err
	}

	me, err := tdCli.GetMe()
	if err != nil {
		log.Error("GetMe failed", "session", sc.SessionName, "error", err)
		tdCli.Close()
		return nil, err
	}

	log.Info("TDLib bot authorized", "self_id", me.Id, "session", sc.SessionName)

	return &TelegramClient{
		client: tdCli,
		logger: log,
		selfID: me.Id,
		done:   make(chan struct{}),
	}, nil
}

func (t *TelegramClient) Close() {
	t.closeOnce.Do(func() { close(t.done) })

	t.mu.Lock()
	if t.listener != nil {
		t.listener.Close()
		t.listener = nil
	}
	t.mu.Unlock()

	if _, err := t.client.Close(); err != nil {
		t.logger.Warn("TDLib Close", "error", err)
	}
}

// Listen возвращает канал событий из личных чатов с ботом.
// Канал закрывается после Close.
func (t *TelegramClient) Listen() (<-chan domain.Message, error) {
	listener := t.client.GetListener()
	t.mu.Lock()
	t.listener = listener
	t.mu.Unlock()

	// после Close событие выбрасываем: читатель мог уже уйти
	return pump.Forward(listener.Updates, t.done, func(update client.Type) (domain.Message, bool) {
		upd, ok := update.(*client.UpdateNewMessage)
		if !ok {
			return domain.Message{}, false
		}
		return t.toDomain(upd.Message)
	}), nil
}

func (t *TelegramClient) toDomain(m *client.Message) (domain.Message, bool) {
	if m == nil || m.IsOutgoing {
		return domain.Message{}, false
	}
	sender, ok := m.SenderId.(*client.MessageSenderUser)
	if !ok || sender.UserId == t.selfID {
		return domain.Message{}, false
	}
	// бот отвечает только в личке: там id чата совпадает с id пользователя
	if m.ChatId != sender.UserId {
		return domain.Message{}, false
	}

	msg := domain.Message{ChatID: m.ChatId, UserID: sender.UserId}

	switch content := m.Content.(type) {
	case *client.MessageText:
		msg.Text = content.Text.Text
		if kind, isCmd := domain.ParseCommand(msg.Text); isCmd {
			msg.Kind = kind
		}
	case *client.MessageContact:
		msg.Kind = domain.EventContact
		msg.ContactPhone = content.Contact.PhoneNumber
	default:
		t.logger.Debug("unsupported message content", "type", m.Content.MessageContentType())
		return domain.Message{}, false
	}

	if msg.Kind == domain.EventStart {
		msg.FirstName = t.firstName(sender.UserId)
	}
	return msg, true
}

func (t *TelegramClient) firstName(userID int64) string {
	usr, err := t.client.GetUser(&client.GetUserRequest{UserId: userID})
	if err != nil {
		t.logger.Warn("GetUser failed", "user_id", userID, "error", err)
		return ""
	}
	return usr.FirstName
}

func (t *TelegramClient) SendReply(r domain.Reply) error {
	text := &client.FormattedText{Text: r.Text}
	if r.HTML {
		parsed, err := client.ParseTextEntities(&client.ParseTextEntitiesRequest{
			Text:      r.Text,
			ParseMode: &client.TextParseModeHTML{},
		})
		if err != nil {
			t.logger.Warn("ParseTextEntities failed, sending plain text", "chat_id", r.ChatID, "error", err)
		} else {
			text = parsed
		}
	}

	req := &client.SendMessageRequest{
		ChatId: r.ChatID,
		InputMessageContent: &client.InputMessageText{
			Text:       text,
			ClearDraft: true,
		},
		ReplyMarkup: replyMarkup(r),
	}

	if _, err := t.client.SendMessage(req); err != nil {
		if isTooManyRequests(err) {
			t.logger.Error("SendMessage rate-limited", "chat_id", r.ChatID, "error", err)
			return ErrRateLimited
		}
		t.logger.Error("SendMessage failed", "chat_id", r.ChatID, "error", err)
		return err
	}
	return nil
}

// replyMarkup: готовые ответы — обычные кнопки, кнопка контакта — отдельной строкой снизу
func replyMarkup(r domain.Reply) client.ReplyMarkup {
	if len(r.Keyboard) == 0 && r.ContactButton == "" {
		if r.RemoveKeyboard {
			return &client.ReplyMarkupRemoveKeyboard{}
		}
		return nil
	}

	rows := make([][]*client.KeyboardButton, 0, len(r.Keyboard)+1)
	for _, labels := range r.Keyboard {
		row := make([]*client.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, &client.KeyboardButton{
				Text: label,
				Type: &client.KeyboardButtonTypeText{},
			})
		}
		rows = append(rows, row)
	}
	if r.ContactButton != "" {
		rows = append(rows, []*client.KeyboardButton{{
			Text: r.ContactButton,
			Type: &client.KeyboardButtonTypeRequestPhoneNumber{},
		}})
	}

	return &client.ReplyMarkupShowKeyboard{
		Rows:           rows,
		ResizeKeyboard: true,
		OneTime:        true,
	}
}

func isTooManyRequests(err error) bool {
	// TDLib оборачивается в client.Error
	var tdErr *client.Error
	if errors.As(err, &tdErr) {
		if tdErr.Code == 429 {
			return true
		}
		if strings.Contains(strings.ToLower(tdErr.Message), "too many requests") {
			return true
		}
	}
	return false
}
