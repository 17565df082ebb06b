// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики
// и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"gorillamansion.xyz/telegram-bot/internal/bot"
	"gorillamansion.xyz/telegram-bot/internal/bot/filters"
	"gorillamansion.xyz/telegram-bot/internal/config"
	"gorillamansion.xyz/telegram-bot/internal/db/postgres"
	"gorillamansion.xyz/telegram-bot/internal/features/guard"
	"gorillamansion.xyz/telegram-bot/internal/features/market"
	"gorillamansion.xyz/telegram-bot/internal/features/raids"
	"gorillamansion.xyz/telegram-bot/internal/features/verify"
	"gorillamansion.xyz/telegram-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Рейды: репозиторий, сервис, обработчики ===
	raidRepo := raids.NewRepository(pool)
	raidService := raids.NewService(raidRepo)
	raidHandler := raids.NewHandler(raidService, botAPI)

	// === 4. Внешние клиенты ===
	verifyClient := verify.NewClient(cfg.TwitterBaseURL, cfg.TwitterBearerToken, cfg.VerifyMaxRetries)
	marketClient := market.NewClient(cfg.CoinMarketCapURL, cfg.CoinMarketCapAPIKey)
	marketHandler := market.NewHandler(marketClient, botAPI, cfg.MarketTopN)

	// === 5. Антиспам ===
	admins := filters.NewAdminChecker(botAPI)
	guardService := guard.NewService(guard.Config{
		FloodWindow:   cfg.GuardFloodWindow,
		FloodLimit:    cfg.GuardFloodLimit,
		MuteDuration:  cfg.GuardMuteDuration,
		ShortMute:     cfg.GuardShortMute,
		DedupInterval: cfg.GuardDedupInterval,
	})
	guardHandler := guard.NewHandler(guardService, botAPI, admins, cfg.GuardMaxRetries)

	// === 6. Планировщик и периодические задачи ===
	scheduler := jobs.NewScheduler()
	jobManager := bot.NewJobManager(botAPI, cfg, scheduler, raidService, raidHandler, verifyClient)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		raidHandler,
		guardHandler,
		marketHandler,
		admins,
		jobManager,
	)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Raids},
		{2, migration002Participants},
		{3, migration003Proofs},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Raids = `
CREATE TABLE IF NOT EXISTS raids (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT,
    username VARCHAR(255) NOT NULL,
    tweet_id VARCHAR(64),
    action_type VARCHAR(32) NOT NULL,
    creator_id BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_raids_created_at ON raids(created_at DESC);
`

var migration002Participants = `
CREATE TABLE IF NOT EXISTS participants (
    id BIGSERIAL PRIMARY KEY,
    raid_id BIGINT NOT NULL REFERENCES raids(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    username VARCHAR(255) NOT NULL,
    status VARCHAR(32) NOT NULL DEFAULT 'pending',
    joined_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (raid_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_participants_raid_id ON participants(raid_id);
CREATE INDEX IF NOT EXISTS idx_participants_status ON participants(raid_id, status);
`

var migration003Proofs = `
CREATE TABLE IF NOT EXISTS proofs (
    id BIGSERIAL PRIMARY KEY,
    raid_id BIGINT NOT NULL REFERENCES raids(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    username VARCHAR(255) NOT NULL,
    proof TEXT NOT NULL,
    submitted_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_proofs_raid_id ON proofs(raid_id);
`
