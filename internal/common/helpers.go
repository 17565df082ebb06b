// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: экранирование HTML для Telegram, сборка ссылок на X,
// обрезка длинных сообщений и форматирование длительностей.
package common

import (
	"fmt"
	"strings"
	"time"
)

// MaxMessageLength — лимит Telegram на длину одного сообщения.
const MaxMessageLength = 4000

// EscapeHTML экранирует текст для parse_mode=HTML.
// Telegram принимает только &, < и > как спецсимволы.
func EscapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// TruncateMessage обрезает сообщение до лимита Telegram.
// Если текст длиннее MaxMessageLength, хвост заменяется на «...».
func TruncateMessage(text string) string {
	if len(text) <= MaxMessageLength {
		return text
	}
	return text[:MaxMessageLength-3] + "..."
}

// TargetURL собирает ссылку на цель рейда.
//
// Правила:
//   - follow → профиль: https://x.com/<username>
//   - retweet/like → твит: https://x.com/<username>/status/<tweet_id>
//   - иначе → пустая строка (данные рейда битые)
func TargetURL(actionType, username, tweetID string) string {
	switch actionType {
	case "follow":
		if username == "" {
			return ""
		}
		return fmt.Sprintf("https://x.com/%s", username)
	case "retweet", "like":
		if username == "" || tweetID == "" {
			return ""
		}
		return fmt.Sprintf("https://x.com/%s/status/%s", username, tweetID)
	}
	return ""
}

// FormatMinutes форматирует длительность мута в целых минутах.
// Пример: FormatMinutes(60*time.Minute) → "60 minutes".
func FormatMinutes(d time.Duration) string {
	return fmt.Sprintf("%.0f minutes", d.Minutes())
}

// NormalizeHandle приводит X-ник к каноничному виду для сравнения:
// убирает префикс @ и переводит в нижний регистр.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}
