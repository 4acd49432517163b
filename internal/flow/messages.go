package flow

import "fmt"

// User-facing reply texts.
const (
	MsgGreeting      = "Привет! Я готов к работе. Используйте /newpars для парсинга."
	MsgAskLink       = "Введите ссылку на Telegram канал."
	MsgBadLink       = "Ссылка должна начинаться с https://t.me/. Попробуйте снова."
	MsgChecking      = "Начинаю проверку каналов."
	MsgAskCode       = "Введите код для авторизации."
	MsgAskPassword   = "Введите 2FA пароль."
	MsgBadCode       = "Неверный код. Введите код заново."
	MsgTimeExpired   = "Время истекло."
	MsgAuthorized    = "Аккаунт авторизован. Приступаю к работе."
	MsgPrivate       = "Ошибка: Канал приватный и требует заявки."
	MsgBusy          = "Парсинг уже выполняется. Дождитесь завершения."
)

// joinedMessage announces the harvesting run with its parameters.
func joinedMessage(cap, paceMin, paceMax int) string {
	return fmt.Sprintf("Вступил в канал, начинаю парсить последние %d постов с задержкой %d-%d сек", cap, paceMin, paceMax)
}

// resultMessage reports the harvested post count with correct
// singular/plural phrasing.
func resultMessage(n int) string {
	if n == 1 {
		return "1 пост успешно сохранен в таблицу"
	}
	return fmt.Sprintf("%d постов успешно сохранены в таблицу", n)
}
