// jobs.go управляет периодическими задачами: глобальной верификацией
// пруфов и початовым автопостингом рейдов и фраз.
package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gorillamansion.xyz/telegram-bot/internal/bot/middleware"
	"gorillamansion.xyz/telegram-bot/internal/common"
	"gorillamansion.xyz/telegram-bot/internal/config"
	"gorillamansion.xyz/telegram-bot/internal/features/phrases"
	"gorillamansion.xyz/telegram-bot/internal/features/raids"
	"gorillamansion.xyz/telegram-bot/internal/features/verify"
	"gorillamansion.xyz/telegram-bot/internal/jobs"
)

// sender — срез Bot API для отправки сообщений.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// JobManager включает и выключает периодические задачи.
// Верификация пруфов — одна глобальная задача; автопостинг рейдов
// и фраз управляется на каждый чат отдельно.
type JobManager struct {
	api       sender
	cfg       *config.Config
	scheduler *jobs.Scheduler

	raidService  *raids.Service
	raidHandler  *raids.Handler
	verifyClient *verify.Client
}

func NewJobManager(
	api sender,
	cfg *config.Config,
	scheduler *jobs.Scheduler,
	raidService *raids.Service,
	raidHandler *raids.Handler,
	verifyClient *verify.Client,
) *JobManager {
	return &JobManager{
		api:          api,
		cfg:          cfg,
		scheduler:    scheduler,
		raidService:  raidService,
		raidHandler:  raidHandler,
		verifyClient: verifyClient,
	}
}

// StartVerification запускает глобальную верификацию пруфов.
// Задача одна на бота: уведомления и статусы уходят в чат,
// из которого её включили.
func (m *JobManager) StartVerification(chatID int64) {
	key := jobs.JobKey{Kind: jobs.JobProofVerification}
	if m.scheduler.IsRunning(key) {
		m.send(chatID, "🔄 Proof verification is already running.")
		return
	}

	engine := verify.NewEngine(
		m.raidService,
		m.verifyClient,
		m.cfg.VerifyCampaignPause,
		func(raidID int64, username, actionType string) {
			m.send(chatID, "✅ @"+username+" completed the "+actionType+" action for Raid ID "+strconv.FormatInt(raidID, 10)+".")
		},
	)

	run := func() {
		defer middleware.RecoverFromPanic()

		// Проход работает до конца, сколько бы ни заняли паузы между
		// кампаниями; наложение запусков исключает планировщик
		requests, err := engine.RunPass(context.Background())
		if err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("Проход верификации не удался")
			return
		}
		log.WithFields(log.Fields{
			"chat_id":  chatID,
			"requests": requests,
		}).Info("Проход верификации завершён")
	}

	err := m.scheduler.Start(key, m.cfg.VerifyInterval, m.cfg.VerifyFirstRun, run)
	if errors.Is(err, common.ErrJobAlreadyRunning) {
		m.send(chatID, "🔄 Proof verification is already running.")
		return
	}
	m.send(chatID, "✅ Proof verification has been started!")
}

// StopVerification останавливает глобальную верификацию пруфов.
func (m *JobManager) StopVerification(chatID int64) {
	key := jobs.JobKey{Kind: jobs.JobProofVerification}
	if errors.Is(m.scheduler.Stop(key), common.ErrJobNotRunning) {
		m.send(chatID, "🔄 Proof verification is not running.")
		return
	}
	m.send(chatID, "✅ Proof verification has been stopped!")
}

// StartRaidPosts запускает автопостинг списка рейдов в чате.
func (m *JobManager) StartRaidPosts(chatID int64) {
	key := jobs.JobKey{Kind: jobs.JobRaidPosts, ChatID: chatID}
	if m.scheduler.IsRunning(key) {
		m.send(chatID, "🔔 Auto-posting of raids is already running!")
		return
	}

	run := func() {
		defer middleware.RecoverFromPanic()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		m.raidHandler.HandleListRaids(ctx, chatID)
	}

	err := m.scheduler.Start(key, m.cfg.RaidPostsInterval, m.cfg.JobFirstDelay, run)
	if errors.Is(err, common.ErrJobAlreadyRunning) {
		m.send(chatID, "🔔 Auto-posting of raids is already running!")
		return
	}
	m.send(chatID, "🔔 Auto-posting of raids has been started!")
}

// StopRaidPosts останавливает автопостинг рейдов в чате.
func (m *JobManager) StopRaidPosts(chatID int64) {
	key := jobs.JobKey{Kind: jobs.JobRaidPosts, ChatID: chatID}
	if errors.Is(m.scheduler.Stop(key), common.ErrJobNotRunning) {
		m.send(chatID, "🔕 Auto-posting of raids is not running.")
		return
	}
	m.send(chatID, "✅ Auto-posting of raids has been stopped!")
}

// StartAutoPosts запускает автопостинг случайных фраз в чате.
func (m *JobManager) StartAutoPosts(chatID int64) {
	key := jobs.JobKey{Kind: jobs.JobAutoPosts, ChatID: chatID}
	if m.scheduler.IsRunning(key) {
		m.send(chatID, "🔔 Auto-posting is already running!")
		return
	}

	run := func() {
		defer middleware.RecoverFromPanic()
		m.send(chatID, phrases.Random())
	}

	err := m.scheduler.Start(key, m.cfg.AutoPostsInterval, m.cfg.JobFirstDelay, run)
	if errors.Is(err, common.ErrJobAlreadyRunning) {
		m.send(chatID, "🔔 Auto-posting is already running!")
		return
	}
	m.send(chatID, "🔔 Auto-posting of crypto phrases has been started!")
}

// StopAutoPosts останавливает автопостинг фраз в чате.
func (m *JobManager) StopAutoPosts(chatID int64) {
	key := jobs.JobKey{Kind: jobs.JobAutoPosts, ChatID: chatID}
	if errors.Is(m.scheduler.Stop(key), common.ErrJobNotRunning) {
		m.send(chatID, "🔕 Auto-posting is not running.")
		return
	}
	m.send(chatID, "🔕 Auto-posting has been stopped!")
}

func (m *JobManager) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := m.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
