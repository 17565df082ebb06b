// Package guard — service.go держит состояние анти-спама:
// скользящие окна сообщений, счётчики предупреждений и защиту
// от повторных мутов. Состояние живёт в памяти процесса и
// теряется при рестарте — этого достаточно для гашения коротких
// всплесков.
package guard

import (
	"strings"
	"sync"
	"time"
)

// Verdict — решение по одному сообщению.
type Verdict struct {
	Mute     bool
	Duration time.Duration
	Reason   string
	// DeleteMessage — сообщение нужно удалить (правило ссылок)
	DeleteMessage bool
}

// Config — пороги анти-спама.
type Config struct {
	FloodWindow   time.Duration // Окно подсчёта сообщений
	FloodLimit    int           // Допустимое число сообщений в окне
	MuteDuration  time.Duration // Мут за ссылки и флуд
	ShortMute     time.Duration // Мут за первые предупреждения о длинных токенах
	DedupInterval time.Duration // Защита от повторных мутов одного пользователя
}

// Service — явный объект состояния анти-спама. Создаётся один раз
// при старте и передаётся в обработчик сообщений; никаких глобалей.
//
// Один мьютекс сериализует read-modify-write по пользователю;
// операции разных пользователей короткие, конкуренция незаметна.
type Service struct {
	mu sync.Mutex

	cfg Config
	// Часы инжектируются для тестов
	now func() time.Time

	// user_id → времена недавних сообщений (флуд-окно)
	messageTimes map[int64][]time.Time
	// user_id → выданные предупреждения за длинные токены
	longTokenWarnings map[int64]int
	// user_id → когда пользователя в последний раз мутили
	recentlyHandled map[int64]time.Time
}

// NewService создаёт сервис анти-спама.
func NewService(cfg Config) *Service {
	return &Service{
		cfg:               cfg,
		now:               time.Now,
		messageTimes:      make(map[int64][]time.Time),
		longTokenWarnings: make(map[int64]int),
		recentlyHandled:   make(map[int64]time.Time),
	}
}

// CheckMessage прогоняет сообщение через правила ссылок и флуда.
//
// Порядок фиксирован: сработавшее правило ссылок удаляет сообщение
// и НЕ учитывает его во флуд-окне — удалённое сообщение не флуд.
func (s *Service) CheckMessage(userID int64, text string) Verdict {
	if HasLink(text) {
		return Verdict{
			Mute:          true,
			Duration:      s.cfg.MuteDuration,
			Reason:        "Posting links",
			DeleteMessage: true,
		}
	}

	if s.recordAndCheckFlood(userID) {
		return Verdict{
			Mute:     true,
			Duration: s.cfg.MuteDuration,
			Reason:   "Spamming",
		}
	}

	return Verdict{}
}

// recordAndCheckFlood добавляет отметку времени, отбрасывает устаревшие
// и сравнивает остаток с порогом. Окно строго временнОе: каждое
// сообщение — prune, потом check.
func (s *Service) recordAndCheckFlood(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	times := append(s.messageTimes[userID], now)

	cutoff := now.Add(-s.cfg.FloodWindow)
	kept := times[:0]
	for _, t := range times {
		if !t.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	s.messageTimes[userID] = kept

	return len(kept) > s.cfg.FloodLimit
}

// CheckLongTokens применяет правило длинных токенов с эскалацией:
// первое и второе предупреждение — короткий мут, дальше — длинный.
// Токены попадают в причину мута.
func (s *Service) CheckLongTokens(userID int64, text string) Verdict {
	tokens := LongTokens(text)
	if len(tokens) == 0 {
		return Verdict{}
	}

	s.mu.Lock()
	warnings := s.longTokenWarnings[userID]
	s.longTokenWarnings[userID] = warnings + 1
	s.mu.Unlock()

	duration := s.cfg.ShortMute
	if warnings >= 2 {
		duration = s.cfg.MuteDuration
	}
	return Verdict{
		Mute:     true,
		Duration: duration,
		Reason:   "Using long words: " + strings.Join(tokens, ", "),
	}
}

// ShouldSkipMute — защита от дублей: если пользователя мутили в течение
// DedupInterval, новый мут пропускается целиком, включая уведомление.
// Отметка ставится оптимистично ДО попытки ограничения: упавший вызов
// Telegram всё равно считается «обработанным» на время интервала.
func (s *Service) ShouldSkipMute(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if last, ok := s.recentlyHandled[userID]; ok && now.Sub(last) < s.cfg.DedupInterval {
		return true
	}
	s.recentlyHandled[userID] = now
	return false
}
