package ports

import "github.com/larriantoniy/tg_sales_bot/internal/domain"

// TelegramClient определяет интерфейс для работы с Telegram
// Реализуется конкретными адаптерами (TDLib, Bot API и т.д.).
type TelegramClient interface {
	// Listen возвращает канал входящих событий; канал закрывается, когда клиент остановлен
	Listen() (<-chan domain.Message, error)
	// SendReply отправляет ответ с клавиатурой/разметкой
	SendReply(reply domain.Reply) error
	Close()
}
