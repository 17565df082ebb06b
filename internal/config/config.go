// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// --- Внешние API ---
	TwitterBearerToken string `envconfig:"TWITTER_BEARER_TOKEN" required:"true"`
	TwitterBaseURL     string `envconfig:"TWITTER_BASE_URL" default:"https://api.twitter.com/2/"`
	// Ключ CoinMarketCap необязателен: без него /top_cryptos просто не работает
	CoinMarketCapAPIKey string `envconfig:"COINMARKETCAP_API_KEY"`
	CoinMarketCapURL    string `envconfig:"COINMARKETCAP_URL" default:"https://pro-api.coinmarketcap.com/v1/cryptocurrency/listings/latest"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"gorilla_raids"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Verification ---
	VerifyInterval time.Duration `envconfig:"VERIFY_INTERVAL" default:"15m"`
	VerifyFirstRun time.Duration `envconfig:"VERIFY_FIRST_RUN" default:"10s"`
	// Пауза между кампаниями в одном проходе — лимиты X API
	VerifyCampaignPause time.Duration `envconfig:"VERIFY_CAMPAIGN_PAUSE" default:"60s"`
	// Максимум повторов запроса при 429
	VerifyMaxRetries int `envconfig:"VERIFY_MAX_RETRIES" default:"3"`

	// --- Broadcasts ---
	RaidPostsInterval time.Duration `envconfig:"RAID_POSTS_INTERVAL" default:"1h"`
	AutoPostsInterval time.Duration `envconfig:"AUTO_POSTS_INTERVAL" default:"10m"`
	JobFirstDelay     time.Duration `envconfig:"JOB_FIRST_DELAY" default:"10s"`

	// --- Guard (анти-спам) ---
	GuardFloodWindow   time.Duration `envconfig:"GUARD_FLOOD_WINDOW" default:"10s"`
	GuardFloodLimit    int           `envconfig:"GUARD_FLOOD_LIMIT" default:"4"`
	GuardMuteDuration  time.Duration `envconfig:"GUARD_MUTE_DURATION" default:"60m"`
	GuardShortMute     time.Duration `envconfig:"GUARD_SHORT_MUTE" default:"5m"`
	GuardDedupInterval time.Duration `envconfig:"GUARD_DEDUP_INTERVAL" default:"30s"`
	GuardMaxRetries    int           `envconfig:"GUARD_MAX_RETRIES" default:"3"`

	// --- Market ---
	MarketTopN int `envconfig:"MARKET_TOP_N" default:"5"`

	// --- Rate Limiting (транспортный, не guard) ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.GuardFloodLimit <= 0 || c.GuardFloodWindow <= 0 {
		return fmt.Errorf("некорректные GUARD_FLOOD_LIMIT/GUARD_FLOOD_WINDOW")
	}
	if c.VerifyMaxRetries <= 0 || c.GuardMaxRetries <= 0 {
		return fmt.Errorf("VERIFY_MAX_RETRIES и GUARD_MAX_RETRIES должны быть > 0")
	}
	if c.MarketTopN <= 0 {
		return fmt.Errorf("MARKET_TOP_N должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
