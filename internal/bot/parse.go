package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// splitArgs разбивает хвост команды на аргументы по пробелам.
func splitArgs(arguments string) []string {
	return strings.Fields(arguments)
}

// callerUsername возвращает юзернейм отправителя; без юзернейма
// участник записывается как Anonymous.
func callerUsername(user *tgbotapi.User) string {
	if user == nil || user.UserName == "" {
		return "Anonymous"
	}
	return user.UserName
}

// parseJoinRaidCallback разбирает callback-данные кнопки "Join Raid"
// вида join_raid:<id>. Возвращает аргумент и признак совпадения.
func parseJoinRaidCallback(data string) (string, bool) {
	raidID, ok := strings.CutPrefix(data, "join_raid:")
	if !ok || raidID == "" {
		return "", false
	}
	return raidID, true
}
