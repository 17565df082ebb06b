// Package guard — handlers.go применяет вердикты анти-спама
// к Telegram: удаление сообщений и ограничение прав.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gorillamansion.xyz/telegram-bot/internal/common"
)

// adminChecker сообщает, является ли пользователь администратором чата.
type adminChecker interface {
	IsAdmin(ctx context.Context, chatID, userID int64) bool
}

// Handler применяет анти-спам к входящим сообщениям.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	admins  adminChecker
	// Максимум повторов restrict при RetryAfter от Telegram
	maxRetries int
}

// NewHandler создаёт обработчик анти-спама.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, admins adminChecker, maxRetries int) *Handler {
	return &Handler{
		service:    service,
		bot:        bot,
		admins:     admins,
		maxRetries: maxRetries,
	}
}

// HandleMessage прогоняет текстовое сообщение через все правила.
// Ни одна ошибка не выходит наружу: одно плохое сообщение не должно
// останавливать конвейер.
func (h *Handler) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.From == nil || message.Text == "" {
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	username := message.From.UserName
	if username == "" {
		username = "Unknown"
	}

	// Правила ссылок и флуда
	verdict := h.service.CheckMessage(userID, message.Text)
	if verdict.DeleteMessage {
		h.deleteMessage(chatID, message.MessageID)
	}
	if verdict.Mute {
		h.applyMute(ctx, chatID, userID, username, verdict)
	}

	// Правило длинных токенов: администраторы и владелец освобождены
	// только от него, не от ссылок и флуда
	if h.admins != nil && h.admins.IsAdmin(ctx, chatID, userID) {
		return
	}
	if verdict := h.service.CheckLongTokens(userID, message.Text); verdict.Mute {
		h.applyMute(ctx, chatID, userID, username, verdict)
	}
}

// applyMute ограничивает пользователя и уведомляет чат.
// Сначала дедуп-защита, потом restrict, потом уведомление.
func (h *Handler) applyMute(ctx context.Context, chatID, userID int64, username string, verdict Verdict) {
	logger := log.WithFields(log.Fields{
		"chat_id": chatID,
		"user_id": userID,
		"reason":  verdict.Reason,
	})

	if h.service.ShouldSkipMute(userID) {
		logger.Debug("Пользователь недавно обработан, мут пропущен")
		return
	}

	until := time.Now().UTC().Add(verdict.Duration)
	if err := h.restrictWithRetry(ctx, chatID, userID, until); err != nil {
		logger.WithError(err).Error("Не удалось ограничить пользователя")
		return
	}

	logger.WithField("duration", verdict.Duration.String()).Info("Пользователь замучен")
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"❌ @%s has been muted for %s.\nReason: %s.",
		username, common.FormatMinutes(verdict.Duration), verdict.Reason,
	))
	if _, err := h.bot.Send(msg); err != nil {
		logger.WithError(err).Error("Ошибка отправки уведомления о муте")
	}
}

// restrictWithRetry снимает право отправки сообщений до указанного момента.
// RetryAfter от Telegram → ждём ровно столько и повторяем, но не больше
// maxRetries раз; остальные ошибки не повторяются.
func (h *Handler) restrictWithRetry(ctx context.Context, chatID, userID int64, until time.Time) error {
	restrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		UntilDate: until.Unix(),
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages: false,
		},
	}

	var lastErr error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		_, err := h.bot.Request(restrict)
		if err == nil {
			return nil
		}
		lastErr = err

		retryAfter := retryAfterDuration(err)
		if retryAfter <= 0 {
			return err
		}

		log.WithFields(log.Fields{
			"user_id": userID,
			"wait":    retryAfter.String(),
		}).Warn("Telegram rate limit, повторяем restrict")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}
	}
	return fmt.Errorf("исчерпаны повторы restrict: %w", lastErr)
}

// retryAfterDuration достаёт паузу из ошибки Telegram о rate limit.
func retryAfterDuration(err error) time.Duration {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}

func (h *Handler) deleteMessage(chatID int64, messageID int) {
	del := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := h.bot.Request(del); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id":    chatID,
			"message_id": messageID,
		}).Error("Не удалось удалить сообщение со ссылкой")
	} else {
		log.WithField("chat_id", chatID).Debug("Сообщение со ссылкой удалено")
	}
}
