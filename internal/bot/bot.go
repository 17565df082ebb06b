// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает обработчики фич и запускает polling.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gorillamansion.xyz/telegram-bot/internal/bot/filters"
	"gorillamansion.xyz/telegram-bot/internal/bot/middleware"
	"gorillamansion.xyz/telegram-bot/internal/config"
	"gorillamansion.xyz/telegram-bot/internal/features/guard"
	"gorillamansion.xyz/telegram-bot/internal/features/market"
	"gorillamansion.xyz/telegram-bot/internal/features/raids"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	admins  *filters.AdminChecker
	limiter *middleware.CommandLimiter

	raidHandler   *raids.Handler
	guardHandler  *guard.Handler
	marketHandler *market.Handler

	jobs *JobManager

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	raidHandler *raids.Handler,
	guardHandler *guard.Handler,
	marketHandler *market.Handler,
	admins *filters.AdminChecker,
	jobManager *JobManager,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		admins:        admins,
		limiter:       middleware.NewCommandLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		raidHandler:   raidHandler,
		guardHandler:  guardHandler,
		marketHandler: marketHandler,
		jobs:          jobManager,
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.limiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.limiter.Close()
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}
	message := update.Message

	// Событие вступления новых участников
	if message.NewChatMembers != nil {
		b.handleNewMembers(message.Chat.ID, message.NewChatMembers)
		return
	}

	if message.From == nil || message.Text == "" {
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	if message.IsCommand() {
		if !b.limiter.Allow(userID) {
			log.WithField("user_id", userID).Debug("rate limited")
			return
		}
		b.routeCommand(ctx, chatID, userID, message)
		return
	}

	// Не команда — антиспам-конвейер
	b.guardHandler.HandleMessage(ctx, message)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, message *tgbotapi.Message) {
	cmd := message.Command()
	args := splitArgs(message.CommandArguments())

	log.WithFields(log.Fields{
		"cmd":     cmd,
		"args":    args,
		"user_id": userID,
	}).Debug("routing command")

	switch cmd {
	case "start":
		b.sendMenu(chatID, "👋 Welcome to <b>Gorilla Mansion Stats Bot</b>!\n\nExplore the features using the menu below.")

	case "help":
		b.sendRaidHelp(chatID)

	case "new_raid":
		if !b.isAdmin(ctx, chatID, userID) {
			b.sendMessage(chatID, "❌ Only administrators can create raids.")
			return
		}
		b.raidHandler.HandleNewRaid(ctx, chatID, userID, args)

	case "join_raid":
		if len(args) == 0 {
			b.sendMessage(chatID, "⚠️ Usage: /join_raid <raid_id>")
			return
		}
		b.raidHandler.HandleJoin(ctx, chatID, userID, callerUsername(message.From), args[0])

	case "raid_status":
		b.raidHandler.HandleRaidStatus(ctx, chatID, args)

	case "list_raids":
		b.raidHandler.HandleListRaids(ctx, chatID)

	case "list_raids_detailed":
		b.raidHandler.HandleListRaidsDetailed(ctx, chatID)

	case "show_proofs":
		b.raidHandler.HandleShowProofs(ctx, chatID, args)

	case "delete_all_raids":
		if !b.requireAdmin(ctx, chatID, userID) {
			return
		}
		b.raidHandler.HandleDeleteAllRaids(chatID)

	case "reset_database":
		if !b.requireAdmin(ctx, chatID, userID) {
			return
		}
		b.raidHandler.HandleResetDatabase(ctx, chatID)

	case "start_proof_verification":
		if !b.requireAdmin(ctx, chatID, userID) {
			return
		}
		b.jobs.StartVerification(chatID)

	case "stop_proof_verification":
		if !b.requireAdmin(ctx, chatID, userID) {
			return
		}
		b.jobs.StopVerification(chatID)

	case "start_raid_posts":
		if !b.requireAdmin(ctx, chatID, userID) {
			return
		}
		b.jobs.StartRaidPosts(chatID)

	case "stop_raid_posts":
		if !b.requireAdmin(ctx, chatID, userID) {
			return
		}
		b.jobs.StopRaidPosts(chatID)

	case "start_auto_posts":
		if !b.requireAdmin(ctx, chatID, userID) {
			return
		}
		b.jobs.StartAutoPosts(chatID)

	case "stop_auto_posts":
		if !b.requireAdmin(ctx, chatID, userID) {
			return
		}
		b.jobs.StopAutoPosts(chatID)

	case "top_cryptos":
		b.marketHandler.HandleTopCryptos(chatID)
	}
}

// handleCallback обрабатывает нажатия inline-кнопок.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Снимаем "часики" на кнопке
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}

	if query.Message == nil || query.From == nil {
		return
	}
	chatID := query.Message.Chat.ID

	log.WithFields(log.Fields{
		"data":    query.Data,
		"user_id": query.From.ID,
	}).Debug("callback query")

	if raidID, ok := parseJoinRaidCallback(query.Data); ok {
		b.raidHandler.HandleJoin(ctx, chatID, query.From.ID, callerUsername(query.From), raidID)
		return
	}

	switch query.Data {
	case "list_raids":
		b.raidHandler.HandleListRaids(ctx, chatID)

	case "help_raids":
		b.sendRaidHelp(chatID)

	case "about_bot":
		b.sendHTML(chatID,
			"ℹ️ <b>About the Bot:</b>\n\n"+
				"This bot helps you:\n"+
				"• Track cryptocurrency stats.\n"+
				"• Manage and participate in exclusive raids on X.\n\n"+
				"Use <b>/start</b> to explore all features.")

	case "top_cryptos":
		b.marketHandler.HandleTopCryptos(chatID)

	case "confirm_delete_raids":
		if !b.requireAdmin(ctx, chatID, query.From.ID) {
			return
		}
		b.raidHandler.HandleConfirmDelete(ctx, chatID, query.Message.MessageID)

	case "cancel_delete_raids":
		b.raidHandler.HandleCancelDelete(chatID, query.Message.MessageID)

	default:
		b.sendHTML(chatID, "❓ <b>Unknown option.</b> Please try again.")
	}
}

// handleNewMembers приветствует новых участников меню с кнопками.
func (b *Bot) handleNewMembers(chatID int64, newMembers []tgbotapi.User) {
	for _, user := range newMembers {
		name := user.FirstName
		if user.LastName != "" {
			name += " " + user.LastName
		}

		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"👋 Welcome, %s!\n\nExplore the bot's features using the options below.", name))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = menuKeyboard()

		if _, err := b.api.Send(msg); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Не удалось поприветствовать участника")
			continue
		}
		log.WithField("user", user.UserName).Info("Новый участник обработан")
	}
}

// menuKeyboard — стартовое меню бота.
func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🌐 Web Site", "https://www.gorillamansion.xyz/"),
			tgbotapi.NewInlineKeyboardButtonURL("🌟 VIP Signals", "https://t.me/Toastedspam88"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Raid Help", "help_raids"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Top Cryptos", "top_cryptos"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ About the Bot", "about_bot"),
		),
	)
}

func (b *Bot) sendMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = menuKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки меню")
	}
}

func (b *Bot) sendRaidHelp(chatID int64) {
	msg := tgbotapi.NewMessage(chatID,
		"🎯 <b>Raid Help:</b>\n\n"+
			"This is the help for participating in our RAIDS:\n"+
			"1️⃣ Click the <b>LIST RAIDS</b> button.\n"+
			"2️⃣ Select <b>JOIN RAID</b> on any listed raid.\n"+
			"3️⃣ To participate, ensure you <b>use the same username</b> on Telegram and X.\n\n"+
			"Enjoy participating and tracking your progress!")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 List Raids", "list_raids"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки справки")
	}
}

// isAdmin проверяет роль отправителя в чате.
func (b *Bot) isAdmin(ctx context.Context, chatID, userID int64) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return b.admins.IsAdmin(checkCtx, chatID, userID)
}

// requireAdmin проверяет права и отвечает отказом не-админам.
func (b *Bot) requireAdmin(ctx context.Context, chatID, userID int64) bool {
	if !b.isAdmin(ctx, chatID, userID) {
		b.sendMessage(chatID, "❌ This command is restricted to administrators.")
		return false
	}
	return true
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
