// Package phrases хранит набор фраз для периодического автопостинга.
package phrases

import "math/rand"

var cryptoPhrases = []string{
	"🚀 The future is decentralized.",
	"💡 Knowledge is your best investment in the crypto world.",
	"🔐 Never share your private keys. Security comes first!",
	"🌍 Blockchain knows no borders.",
	"📈 Bitcoin is not just money; it's a revolution.",
	"🛑 Never invest more than you can afford to lose.",
	"🌞 Innovation never sleeps in the crypto world.",
	"🌱 Start small, grow with wisdom.",
	"⚡ Fast, borderless, unstoppable.",
	"🧠 DYOR — do your own research before every trade.",
	"💎 Diamond hands are built in bear markets.",
	"🔗 One block at a time, history is written on-chain.",
}

// Random возвращает случайную фразу из набора.
func Random() string {
	return cryptoPhrases[rand.Intn(len(cryptoPhrases))]
}
