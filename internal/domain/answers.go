package domain

// Подписи кнопок. Транспорт присылает их как обычный текст,
// сессия сверяет текст с ожидаемыми для текущего шага.
const (
	AnswerWithAutostart    = "С автозапуском"
	AnswerWithoutAutostart = "БЕЗ автозапуска"

	AnswerAppControl = "😎 Приложение в телефоне"
	AnswerRemoteFob  = "📺 Брелок"

	AnswerGpsYes = "Да, отслеживать перемещения"
	AnswerGpsNo  = "Нет, не нужно"
)

var (
	autostartAnswers = map[string]bool{
		AnswerWithAutostart:    true,
		AnswerWithoutAutostart: false,
	}
	controlAnswers = map[string]ControlMode{
		AnswerAppControl: ControlApp,
		AnswerRemoteFob:  ControlRemoteFob,
	}
	gpsAnswers = map[string]bool{
		AnswerGpsYes: true,
		AnswerGpsNo:  false,
	}
)

// Labels возвращает кнопки, которые ждёт шаг. Для остальных состояний — nil.
func (s State) Labels() []string {
	switch s {
	case StateAwaitingAutostart:
		return []string{AnswerWithAutostart, AnswerWithoutAutostart}
	case StateAwaitingControl:
		return []string{AnswerAppControl, AnswerRemoteFob}
	case StateAwaitingGps:
		return []string{AnswerGpsYes, AnswerGpsNo}
	default:
		return nil
	}
}
