// Package verify — engine.go выполняет один проход верификации:
// обходит все рейды, сверяет участников со списком из X API
// и фиксирует пруфы.
package verify

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"gorillamansion.xyz/telegram-bot/internal/common"
	"gorillamansion.xyz/telegram-bot/internal/features/raids"
)

// store — операции хранилища, нужные движку верификации.
type store interface {
	ListRaids(ctx context.Context) ([]raids.RaidSummary, error)
	PendingParticipants(ctx context.Context, raidID int64) ([]raids.Participant, error)
	MarkCompleted(ctx context.Context, participantID int64) error
	RecordProof(ctx context.Context, raidID, userID int64, username, proof string) error
}

// interactions — клиент внешней проверки.
type interactions interface {
	FetchInteractors(ctx context.Context, endpoint string) (map[string]struct{}, error)
}

// Notifier уведомляет чат о подтверждённом участнике. Может быть nil.
type Notifier func(raidID int64, username, actionType string)

// Engine — движок верификации пруфов.
type Engine struct {
	store  store
	client interactions
	// Безусловная пауза между кампаниями — лимиты X API.
	// Не реакция на 429: 429 обрабатывает клиент.
	campaignPause time.Duration
	notify        Notifier
}

// NewEngine создаёт движок верификации.
func NewEngine(store store, client interactions, campaignPause time.Duration, notify Notifier) *Engine {
	return &Engine{
		store:         store,
		client:        client,
		campaignPause: campaignPause,
		notify:        notify,
	}
}

// RunPass выполняет один проход по всем рейдам, новые первыми.
// Ошибка на одной кампании никогда не прерывает проход: кампания
// пропускается до следующего запуска. Возвращает число запросов
// к X API (информационно).
func (e *Engine) RunPass(ctx context.Context) (int, error) {
	allRaids, err := e.store.ListRaids(ctx)
	if err != nil {
		return 0, err
	}
	if len(allRaids) == 0 {
		log.Debug("Нет рейдов для верификации")
		return 0, nil
	}

	requestsMade := 0
	for i, raid := range allRaids {
		e.verifyRaid(ctx, raid.Raid, &requestsMade)

		// Пауза после кампании, кроме последней
		if i < len(allRaids)-1 {
			select {
			case <-ctx.Done():
				log.Info("Проход верификации прерван контекстом")
				return requestsMade, ctx.Err()
			case <-time.After(e.campaignPause):
			}
		}
	}

	log.WithField("requests", requestsMade).Info("Проход верификации завершён")
	return requestsMade, nil
}

// verifyRaid проверяет одну кампанию. Все ошибки логируются и глушатся.
func (e *Engine) verifyRaid(ctx context.Context, raid raids.Raid, requestsMade *int) {
	logger := log.WithField("raid_id", raid.ID)

	if raid.Username == "" || raid.ActionType == "" {
		logger.Warn("Рейд с неполной конфигурацией пропущен")
		return
	}

	endpoint, err := Endpoint(raid.ActionType, raid.Username, raid.TweetID)
	if err != nil {
		logger.WithError(err).Warn("Не удалось выбрать эндпоинт, рейд пропущен")
		return
	}

	logger.Debug("Проверяем взаимодействия")
	interacting, err := e.client.FetchInteractors(ctx, endpoint)
	*requestsMade++
	if err != nil {
		if errors.Is(err, common.ErrNoData) {
			logger.Debug("Взаимодействий не найдено")
		} else {
			logger.WithError(err).Warn("Ошибка X API, рейд пропущен до следующего прохода")
		}
		return
	}

	// Только pending: уже завершённые отфильтрованы, поэтому повторный
	// проход с тем же ответом API ничего не меняет.
	pending, err := e.store.PendingParticipants(ctx, raid.ID)
	if err != nil {
		logger.WithError(err).Error("Ошибка чтения участников")
		return
	}

	for _, p := range pending {
		if _, ok := interacting[common.NormalizeHandle(p.Username)]; !ok {
			continue
		}

		// Сначала статус, потом пруф: пруф не должен появиться раньше,
		// чем хранилище считает участника завершившим.
		if err := e.store.MarkCompleted(ctx, p.ID); err != nil {
			logger.WithError(err).WithField("participant_id", p.ID).Error("Ошибка смены статуса")
			continue
		}
		proof := "Completed " + raid.ActionType
		if err := e.store.RecordProof(ctx, raid.ID, p.UserID, p.Username, proof); err != nil {
			logger.WithError(err).WithField("participant_id", p.ID).Error("Ошибка записи пруфа")
			continue
		}

		logger.WithField("username", p.Username).Info("Участник подтверждён")
		if e.notify != nil {
			e.notify(raid.ID, p.Username, raid.ActionType)
		}
	}
}
