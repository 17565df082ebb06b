// Package jobs управляет фоновыми задачами (cron).
// scheduler.go реализует именованные периодические задачи: верификацию
// пруфов, рассылку рейдов и рассылку фраз по чатам.
package jobs

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"gorillamansion.xyz/telegram-bot/internal/common"
)

// JobKind — вид периодической задачи.
type JobKind int

const (
	// JobProofVerification — глобальный проход верификации пруфов
	// (единственный экземпляр, ChatID = 0)
	JobProofVerification JobKind = iota
	// JobRaidPosts — рассылка активных рейдов в конкретный чат
	JobRaidPosts
	// JobAutoPosts — рассылка фраз в конкретный чат
	JobAutoPosts
)

func (k JobKind) String() string {
	switch k {
	case JobProofVerification:
		return "proof_verification"
	case JobRaidPosts:
		return "raid_posts"
	case JobAutoPosts:
		return "auto_posts"
	}
	return "unknown"
}

// JobKey однозначно идентифицирует задачу: вид + чат.
// Типизированный ключ вместо строковых имён.
type JobKey struct {
	Kind   JobKind
	ChatID int64 // 0 для глобальных задач
}

// entry — запущенная задача: отложенный первый запуск и cron-запись.
type entry struct {
	firstRun *time.Timer
	cronID   cron.EntryID
	// cronID валиден только после срабатывания firstRun
	registered bool
}

// Scheduler управляет именованными периодическими задачами.
//
// Семантика:
//   - Start с уже занятым ключом → ErrJobAlreadyRunning, работающая
//     задача не трогается;
//   - Stop снимает будущие запуски, но НЕ прерывает уже идущий
//     (cron.Remove не убивает запущенную горутину);
//   - Stop по незанятому ключу — безвредный no-op.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[JobKey]*entry
}

// NewScheduler создаёт планировщик задач.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		entries: make(map[JobKey]*entry),
	}
}

// Run запускает внутренний cron. Вызывается один раз при старте приложения.
func (s *Scheduler) Run() {
	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Start регистрирует задачу: первый запуск через firstDelay, дальше
// каждые interval. Возвращает ErrJobAlreadyRunning, если ключ занят.
func (s *Scheduler) Start(key JobKey, interval, firstDelay time.Duration, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		return common.ErrJobAlreadyRunning
	}

	// Запуски одной задачи не накладываются: пока предыдущий запуск
	// не завершился, очередной тик пропускается. Длинный запуск не
	// прерывается — он дорабатывает, а расписание его пережидает.
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(fn))

	e := &entry{}
	e.firstRun = time.AfterFunc(firstDelay, func() {
		job.Run()

		// Переходим на периодическое расписание, если задачу
		// не остановили, пока шёл первый запуск
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.entries[key] != e {
			return
		}
		e.cronID = s.cron.Schedule(cron.Every(interval), job)
		e.registered = true
	})
	s.entries[key] = e

	log.WithFields(log.Fields{
		"job":      key.Kind.String(),
		"chat_id":  key.ChatID,
		"interval": interval.String(),
	}).Info("Задача запущена")
	return nil
}

// Stop снимает задачу с расписания. Повторный Stop безвреден и
// возвращает ErrJobNotRunning.
func (s *Scheduler) Stop(key JobKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return common.ErrJobNotRunning
	}
	e.firstRun.Stop()
	if e.registered {
		s.cron.Remove(e.cronID)
	}
	delete(s.entries, key)

	log.WithFields(log.Fields{
		"job":     key.Kind.String(),
		"chat_id": key.ChatID,
	}).Info("Задача остановлена")
	return nil
}

// IsRunning сообщает, зарегистрирована ли задача.
func (s *Scheduler) IsRunning(key JobKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Shutdown останавливает cron и дожидается завершения идущих задач.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for key, e := range s.entries {
		e.firstRun.Stop()
		delete(s.entries, key)
	}
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
