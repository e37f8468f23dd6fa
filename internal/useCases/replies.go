package useCases

import (
	"fmt"
	"html"
	"strings"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
)

const (
	contactButton = "📞 Отправить номер телефона"

	productInfoUnavailable = "Не удалось загрузить информацию о товаре."
)

func keyboard(labels []string) [][]string {
	return [][]string{labels}
}

func greetingReply(chatID int64, firstName string) domain.Reply {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "друг"
	}
	return domain.Reply{
		ChatID: chatID,
		Text: fmt.Sprintf("👋🏻 Приветствуем, %s!\n\n", name) +
			"Готов помочь подобрать идеальную систему для твоего автомобиля!\n\n" +
			"🦾 Давай определимся с ключевыми функциями\n\n" +
			"☀️ Подавляющее большинство наших клиентов выбирают систему с главной целью — реализовать дистанционный запуск двигателя.\n\n" +
			"В нашем климате прогрев двигателя перед поездкой — это необходимость. Даже при небольшом минусе это значительно снижает износ мотора.\n\n" +
			"Ну и конечно, садиться в уже тёплый и комфортный салон — это просто приятно.\n\n" +
			"Какая функция для вас в приоритете?",
		Keyboard: keyboard(domain.StateAwaitingAutostart.Labels()),
	}
}

func askControlReply(chatID int64) domain.Reply {
	return domain.Reply{
		ChatID: chatID,
		Text: "📡 Теперь давай выберем способ управления\n\n" +
			"🙄 Есть устаревший метод — управление с брелока сигнализации. Его минус в нестабильном сигнале: есть риск не получить оповещение о тревоге. Поэтому мы рекомендуем более современный вариант — управление со смартфона.\n\n" +
			"☺️ Через мобильное приложение ты сможешь дистанционно открывать и закрывать авто, отслеживать его местоположение и статус, настраивать датчики и многое другое. Главное — ты гарантированно получишь пуш-уведомление о любом происшествии, где бы ты ни был.\n\n" +
			"Как вам удобнее управлять системой?",
		Keyboard: keyboard(domain.StateAwaitingControl.Labels()),
	}
}

func askGpsReply(chatID int64) domain.Reply {
	return domain.Reply{
		ChatID: chatID,
		Text: "🔥 Отлично! Мы почти подобрали твою идеальную систему. Остался последний шаг.\n\n" +
			"Если ты часто передаешь ключи другим людям или тебе критично важно отслеживать каждое перемещение автомобиля, то тебе нужна система со встроенным GPS-модулем.\n\n" +
			"Он позволит тебе в реальном времени видеть точное местоположение машины, а в приложении можно будет посмотреть детальный маршрут ее поездки.\n\n" +
			"Нужна ли функция GPS-отслеживания?",
		Keyboard: keyboard(domain.StateAwaitingGps.Labels()),
	}
}

const phoneRequest = "Для получения консультации и оформления заказа, пожалуйста, оставьте ваш номер телефона. " +
	"Наш специалист свяжется с вами в ближайшее время.\n\n" +
	"👇 Нажмите на кнопку ниже, чтобы отправить номер, или напишите его сообщением."

// recommendationReply — список товаров ссылками, infos[i] — строка с ценой для items[i] (может быть пустой).
// Пустой список — отдельное сообщение "ничего не нашли", номер всё равно просим.
func recommendationReply(chatID int64, items []domain.CatalogItem, infos []string) domain.Reply {
	var b strings.Builder
	if len(items) == 0 {
		b.WriteString("К сожалению, по вашим критериям не нашлось готовой системы в каталоге. ")
		b.WriteString("Но наш специалист подберёт вариант индивидуально.\n\n")
	} else {
		b.WriteString("Вот подходящие для вас варианты:\n\n")
		for i, it := range items {
			fmt.Fprintf(&b, "• <a href=\"%s\">%s</a>\n", html.EscapeString(it.DetailURL), html.EscapeString(it.Name))
			if i < len(infos) && infos[i] != "" {
				b.WriteString(html.EscapeString(infos[i]))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	b.WriteString(phoneRequest)

	return domain.Reply{
		ChatID:        chatID,
		Text:          b.String(),
		HTML:          true,
		ContactButton: contactButton,
	}
}

func phoneRejectedReply(chatID int64) domain.Reply {
	return domain.Reply{
		ChatID: chatID,
		Text: "Не получилось распознать номер 🤔\n\n" +
			"Отправьте его в формате +7 999 123-45-67 или нажмите кнопку ниже.",
		ContactButton: contactButton,
	}
}

func deliveredReply(chatID int64) domain.Reply {
	return domain.Reply{
		ChatID:         chatID,
		Text:           "✅ Спасибо! Ваш номер принят. Мы уже обрабатываем заявку, и наш специалист скоро с вами свяжется. Хорошего дня!",
		RemoveKeyboard: true,
	}
}

func failedReply(chatID int64) domain.Reply {
	return domain.Reply{
		ChatID:         chatID,
		Text:           "Произошла ошибка при отправке номера. Пожалуйста, попробуйте позже — просто напишите /start.",
		RemoveKeyboard: true,
	}
}

func cancelledReply(chatID int64) domain.Reply {
	return domain.Reply{
		ChatID:         chatID,
		Text:           "Диалог прерван. Если понадобится помощь — просто напишите /start.",
		RemoveKeyboard: true,
	}
}

func ownerLeadText(lead domain.LeadRecord) string {
	items := "—"
	if names := lead.ItemNames(); len(names) > 0 {
		items = strings.Join(names, ", ")
	}
	return fmt.Sprintf(
		"📥 Новая заявка из бота\n\nТелефон: %s\nПодобрано: %s",
		lead.Phone.Display(),
		items,
	)
}
