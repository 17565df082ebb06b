package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Handler отвечает на /top_cryptos и колбэк меню.
type Handler struct {
	client *Client
	bot    *tgbotapi.BotAPI
	topN   int
}

func NewHandler(client *Client, bot *tgbotapi.BotAPI, topN int) *Handler {
	return &Handler{client: client, bot: bot, topN: topN}
}

// HandleTopCryptos отправляет в чат топ валют по капитализации.
func (h *Handler) HandleTopCryptos(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cryptos, err := h.client.TopCryptos(ctx, h.topN)
	if err != nil {
		log.WithError(err).Error("Не удалось получить листинг CoinMarketCap")
		h.send(chatID, "😔 Sorry, I couldn't fetch crypto prices right now. Try again later.")
		return
	}

	h.send(chatID, FormatTop(cryptos))
}

// FormatTop собирает текст сообщения с ценами.
func FormatTop(cryptos []Crypto) string {
	var b strings.Builder
	b.WriteString("📊 Top Cryptocurrencies by Market Cap:\n\n")
	for i, c := range cryptos {
		fmt.Fprintf(&b, "%d. %s (%s): $%.2f\n", i+1, c.Name, c.Symbol, c.Price)
	}
	return b.String()
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Не удалось отправить сообщение")
	}
}
