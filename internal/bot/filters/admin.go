package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// chatMemberGetter — срез Bot API, нужный проверке прав.
type chatMemberGetter interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// AdminChecker проверяет, является ли пользователь администратором чата.
type AdminChecker struct {
	bot chatMemberGetter
}

func NewAdminChecker(bot chatMemberGetter) *AdminChecker {
	return &AdminChecker{bot: bot}
}

// IsAdmin возвращает true для создателя и администраторов чата.
// Ошибка Bot API трактуется как отсутствие прав.
func (c *AdminChecker) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		log.WithFields(log.Fields{
			"component": "AdminChecker",
			"chat_id":   chatID,
			"user_id":   userID,
		}).WithError(err).Warn("Не удалось получить статус участника")
		return false
	}

	return member.Status == "administrator" || member.Status == "creator"
}
