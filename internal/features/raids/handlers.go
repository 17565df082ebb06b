// Package raids — handlers.go обрабатывает команды и кнопки рейдов.
package raids

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gorillamansion.xyz/telegram-bot/internal/common"
)

// Handler обрабатывает команды рейдов.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик рейдов.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleNewRaid — команда /new_raid <name> <description> <username> <action_type> [<tweet_url>].
// Описание может состоять из нескольких слов, поэтому разбираем с хвоста.
func (h *Handler) HandleNewRaid(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 4 {
		h.sendMessage(chatID, "Usage: /new_raid <name> <description> <username> <action_type> [<tweet_url>]")
		return
	}

	// Если последний аргумент — тип действия, ссылки на твит нет
	var spec RaidSpec
	last := strings.ToLower(args[len(args)-1])
	if last == ActionRetweet || last == ActionLike || last == ActionFollow {
		spec = RaidSpec{
			Name:        args[0],
			Description: strings.Join(args[1:len(args)-2], " "),
			Username:    args[len(args)-2],
			ActionType:  last,
			CreatorID:   userID,
		}
	} else {
		if len(args) < 5 {
			h.sendMessage(chatID, "Usage: /new_raid <name> <description> <username> <action_type> [<tweet_url>]")
			return
		}
		spec = RaidSpec{
			Name:        args[0],
			Description: strings.Join(args[1:len(args)-3], " "),
			Username:    args[len(args)-3],
			ActionType:  args[len(args)-2],
			TweetURL:    args[len(args)-1],
			CreatorID:   userID,
		}
	}

	raidID, err := h.service.CreateRaid(ctx, spec)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidActionType),
			errors.Is(err, common.ErrInvalidUsername),
			errors.Is(err, common.ErrInvalidTweetID):
			h.sendMessage(chatID, "❌ "+err.Error())
		default:
			log.WithError(err).Error("Ошибка создания рейда")
			h.sendMessage(chatID, "❌ Failed to create the raid. Please try again later.")
		}
		return
	}

	raid, err := h.service.GetRaid(ctx, raidID)
	if err != nil {
		log.WithError(err).WithField("raid_id", raidID).Warn("Рейд создан, но не прочитан")
		h.sendMessage(chatID, fmt.Sprintf("✅ New raid '%s' created! Join with /join_raid %d.", spec.Name, raidID))
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ New raid '%s' created successfully!\n"+
			"📛 Description: %s\n"+
			"🔗 Target: %s\n"+
			"✔️ Action Required: %s\n"+
			"📌 Participants can join using /join_raid %d.",
		raid.Name, raid.Description,
		common.TargetURL(raid.ActionType, raid.Username, raid.TweetID),
		capitalize(raid.ActionType), raid.ID,
	))
}

// HandleJoin регистрирует пользователя в рейде (кнопка join_raid:<id>
// или команда /join_raid <id>).
func (h *Handler) HandleJoin(ctx context.Context, chatID, userID int64, username string, raidIDArg string) {
	raidID, err := strconv.ParseInt(raidIDArg, 10, 64)
	if err != nil {
		h.sendMessage(chatID, "Usage: /join_raid <raid_id>")
		return
	}
	if username == "" {
		username = "Anonymous"
	}

	raid, err := h.service.Join(ctx, raidID, userID, username)
	switch {
	case errors.Is(err, common.ErrRaidNotFound):
		h.sendMessage(chatID, "❌ This raid no longer exists.")
	case errors.Is(err, common.ErrAlreadyJoined):
		h.sendMessage(chatID, fmt.Sprintf("❌ @%s, you are already a participant in this raid.", username))
	case err != nil:
		log.WithError(err).WithField("raid_id", raidID).Error("Ошибка регистрации участника")
		h.sendMessage(chatID, "❌ Failed to join the raid. Please try again later.")
	default:
		h.sendMessage(chatID, fmt.Sprintf("✅ @%s, you have successfully joined the raid '%s'!", username, raid.Name))
	}
}

// HandleRaidStatus — команда /raid_status <raid_id>.
func (h *Handler) HandleRaidStatus(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(chatID, "Usage: /raid_status <raid_id>")
		return
	}
	raidID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "Usage: /raid_status <raid_id>")
		return
	}

	raid, participants, counts, err := h.service.RaidStatus(ctx, raidID)
	if errors.Is(err, common.ErrRaidNotFound) {
		h.sendMessage(chatID, "❌ Invalid raid ID. Please check the available raids.")
		return
	}
	if err != nil {
		log.WithError(err).WithField("raid_id", raidID).Error("Ошибка получения статуса рейда")
		h.sendMessage(chatID, "❌ Failed to retrieve raid status. Please try again later.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb,
		"🎯 <b>Raid Status:</b>\n\n"+
			"🆔 <b>Raid ID:</b> <code>%d</code>\n"+
			"📛 <b>Name:</b> <code>%s</code>\n"+
			"📖 <b>Description:</b> %s\n"+
			"🔗 <b>Username:</b> <a href='https://x.com/%s'>%s</a>\n"+
			"✔️ <b>Action Required:</b> %s\n\n"+
			"👥 <b>Total Participants:</b> %d\n"+
			"✅ <b>Completed:</b> %d\n"+
			"⌛ <b>Pending:</b> %d\n\n"+
			"<b>Participants:</b>\n",
		raid.ID, common.EscapeHTML(raid.Name), common.EscapeHTML(raid.Description),
		raid.Username, raid.Username, capitalize(raid.ActionType),
		counts.Total, counts.Completed, counts.Pending,
	)
	for _, p := range participants {
		fmt.Fprintf(&sb, "  - @%s: %s\n", common.EscapeHTML(p.Username), statusIcon(p.Status))
	}

	h.sendHTML(chatID, common.TruncateMessage(sb.String()))
}

// HandleListRaids публикует активные рейды, каждый отдельным сообщением
// с кнопкой Join Raid. Используется и кнопкой меню, и рассылкой.
func (h *Handler) HandleListRaids(ctx context.Context, chatID int64) {
	raids, err := h.service.ListRaids(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения списка рейдов")
		h.sendMessage(chatID, "❌ Failed to retrieve raids. Please try again later.")
		return
	}
	if len(raids) == 0 {
		h.sendHTML(chatID, "📋 <b>Active Raids:</b>\n\nNo active raids to display.")
		return
	}

	for _, s := range raids {
		targetURL := common.TargetURL(s.ActionType, s.Username, s.TweetID)
		if targetURL == "" {
			log.WithField("raid_id", s.ID).Warn("Рейд с битыми данными пропущен в списке")
			targetURL = "Invalid URL"
		}

		text := fmt.Sprintf(
			"📋 <b>Active Raid:</b>\n\n"+
				"🆔 <b>Raid ID:</b> <code>%d</code>\n"+
				"📛 <b>Name:</b> <code>%s</code>\n"+
				"📖 <b>Description:</b> %s\n"+
				"🔗 <b>Link:</b> <a href='%s'>View Target</a>\n"+
				"✔️ <b>Action Required:</b> %s\n"+
				"👥 <b>Participants:</b> %d\n"+
				"✅ <b>Completed:</b> %d\n"+
				"⌛ <b>Pending:</b> %d\n\n"+
				"Click the button below to join this raid!",
			s.ID, common.EscapeHTML(s.Name), common.EscapeHTML(s.Description),
			targetURL, capitalize(s.ActionType),
			s.Counts.Total, s.Counts.Completed, s.Counts.Pending,
		)

		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Join Raid", fmt.Sprintf("join_raid:%d", s.ID)),
			),
		)
		if _, err := h.bot.Send(msg); err != nil {
			log.WithError(err).WithField("raid_id", s.ID).Error("Ошибка отправки рейда")
		}
	}
}

// HandleListRaidsDetailed — команда /list_raids_detailed:
// один длинный отчёт с участниками и пруфами по каждому рейду.
func (h *Handler) HandleListRaidsDetailed(ctx context.Context, chatID int64) {
	raids, err := h.service.ListRaids(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения списка рейдов")
		h.sendMessage(chatID, "❌ Failed to retrieve detailed raids. Please try again later.")
		return
	}
	if len(raids) == 0 {
		h.sendMessage(chatID, "No active raids to display.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Detailed Active Raids:</b>\n\n")
	for _, s := range raids {
		fmt.Fprintf(&sb,
			"🆔 <b>Raid ID:</b> <code>%d</code>\n"+
				"📛 <b>Name:</b> <code>%s</code>\n"+
				"📖 <b>Description:</b> %s\n"+
				"✔️ <b>Action Required:</b> %s\n"+
				"👥 <b>Participants:</b> %d\n"+
				"✅ <b>Completed:</b> %d\n"+
				"⌛ <b>Pending:</b> %d\n\n",
			s.ID, common.EscapeHTML(s.Name), common.EscapeHTML(s.Description),
			capitalize(s.ActionType), s.Counts.Total, s.Counts.Completed, s.Counts.Pending,
		)

		_, participants, _, err := h.service.RaidStatus(ctx, s.ID)
		if err == nil && len(participants) > 0 {
			sb.WriteString("<b>Participants:</b>\n")
			for _, p := range participants {
				fmt.Fprintf(&sb, "  - @%s: %s\n", common.EscapeHTML(p.Username), statusIcon(p.Status))
			}
		} else {
			sb.WriteString("👤 No participants yet.\n")
		}

		_, proofs, err := h.service.Proofs(ctx, s.ID)
		if err == nil && len(proofs) > 0 {
			sb.WriteString("\n<b>Proofs:</b>\n")
			for _, p := range proofs {
				fmt.Fprintf(&sb, "  - @%s\n    ✔️ <b>Proof:</b> %s\n    🕒 <b>Submitted At:</b> %s\n",
					common.EscapeHTML(p.Username), common.EscapeHTML(p.Proof),
					p.SubmittedAt.Format("2006-01-02 15:04:05"))
			}
		} else {
			sb.WriteString("\n<b>Proofs:</b> None\n")
		}
		sb.WriteString("\n")
	}

	h.sendHTML(chatID, common.TruncateMessage(sb.String()))
}

// HandleShowProofs — команда /show_proofs <raid_id>.
func (h *Handler) HandleShowProofs(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(chatID, "Usage: /show_proofs <raid_id>")
		return
	}
	raidID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "Usage: /show_proofs <raid_id>")
		return
	}

	raid, proofs, err := h.service.Proofs(ctx, raidID)
	if errors.Is(err, common.ErrRaidNotFound) {
		h.sendMessage(chatID, "❌ Invalid raid ID. Please check the available raids.")
		return
	}
	if err != nil {
		log.WithError(err).WithField("raid_id", raidID).Error("Ошибка получения пруфов")
		h.sendMessage(chatID, "❌ An error occurred while retrieving proofs.")
		return
	}
	if len(proofs) == 0 {
		h.sendMessage(chatID, fmt.Sprintf("No proofs have been submitted for the raid '%s'.", raid.Name))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb,
		"📋 <b>Proofs for Raid:</b>\n\n"+
			"🆔 <b>Raid ID:</b> <code>%d</code>\n"+
			"📛 <b>Name:</b> <code>%s</code>\n"+
			"📖 <b>Description:</b> %s\n\n"+
			"<b>Submitted Proofs:</b>\n",
		raid.ID, common.EscapeHTML(raid.Name), common.EscapeHTML(raid.Description),
	)
	for _, p := range proofs {
		fmt.Fprintf(&sb, "  - @%s\n    ✔️ <b>Proof:</b> %s\n    🕒 <b>Submitted At:</b> %s\n\n",
			common.EscapeHTML(p.Username), common.EscapeHTML(p.Proof),
			p.SubmittedAt.Format("2006-01-02 15:04:05"))
	}

	h.sendHTML(chatID, common.TruncateMessage(sb.String()))
}

// HandleDeleteAllRaids — команда /delete_all_raids: запрашивает подтверждение.
// Само удаление выполняется кнопкой confirm_delete_raids.
func (h *Handler) HandleDeleteAllRaids(chatID int64) {
	msg := tgbotapi.NewMessage(chatID,
		"⚠️ Are you sure you want to delete all raids and associated data?\n\n"+
			"This action cannot be undone.")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm Delete", "confirm_delete_raids"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "cancel_delete_raids"),
		),
	)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки подтверждения удаления")
	}
}

// HandleConfirmDelete выполняет подтверждённое удаление всех рейдов.
func (h *Handler) HandleConfirmDelete(ctx context.Context, chatID int64, messageID int) {
	if err := h.service.DeleteAll(ctx); err != nil {
		log.WithError(err).Error("Ошибка удаления рейдов")
		h.editMessage(chatID, messageID, "❌ Failed to delete raids. Please try again later.")
		return
	}
	h.editMessage(chatID, messageID, "✅ All raids and associated data have been successfully deleted.")
	log.Info("Все рейды удалены администратором")
}

// HandleCancelDelete отменяет удаление.
func (h *Handler) HandleCancelDelete(chatID int64, messageID int) {
	h.editMessage(chatID, messageID, "❌ Raid deletion has been canceled.")
}

// HandleResetDatabase — команда /reset_database: очистка без подтверждения
// (доступна только администраторам, проверка в bot-слое).
func (h *Handler) HandleResetDatabase(ctx context.Context, chatID int64) {
	if err := h.service.DeleteAll(ctx); err != nil {
		log.WithError(err).Error("Ошибка сброса базы")
		h.sendMessage(chatID, "❌ Failed to reset the database. Please try again later.")
		return
	}
	h.sendMessage(chatID, "✅ Database has been reset successfully!")
	log.Info("База рейдов сброшена администратором")
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := h.bot.Send(edit); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка редактирования сообщения")
	}
}

func statusIcon(status string) string {
	if status == StatusCompleted {
		return "✅"
	}
	return "⌛"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
