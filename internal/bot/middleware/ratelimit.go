// Package middleware — транспортная защита обработчиков: троттлинг команд
// и восстановление после паник.
package middleware

import (
	"sync"
	"time"
)

// CommandLimiter ограничивает частоту команд на пользователя скользящим
// окном. Антиспам-правила чата живут в guard; здесь только защита самого
// бота от долбёжки командами.
type CommandLimiter struct {
	mu      sync.Mutex
	history map[int64][]time.Time
	limit   int
	window  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewCommandLimiter(limit int, window time.Duration) *CommandLimiter {
	cl := &CommandLimiter{
		history: make(map[int64][]time.Time),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
	}
	go cl.vacuum()
	return cl
}

// Close останавливает фоновую горутину очистки.
func (cl *CommandLimiter) Close() {
	cl.stopOnce.Do(func() { close(cl.stopCh) })
}

// Allow регистрирует команду и сообщает, укладывается ли пользователь
// в лимит окна.
func (cl *CommandLimiter) Allow(userID int64) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	recent := pruneBefore(cl.history[userID], now.Add(-cl.window))

	if len(recent) >= cl.limit {
		cl.history[userID] = recent
		return false
	}

	cl.history[userID] = append(recent, now)
	return true
}

// vacuum периодически выкидывает пользователей без свежих команд,
// чтобы карта не росла бесконечно.
func (cl *CommandLimiter) vacuum() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-cl.stopCh:
			return
		case <-ticker.C:
			cl.mu.Lock()
			cutoff := time.Now().Add(-cl.window)
			for userID, times := range cl.history {
				recent := pruneBefore(times, cutoff)
				if len(recent) == 0 {
					delete(cl.history, userID)
				} else {
					cl.history[userID] = recent
				}
			}
			cl.mu.Unlock()
		}
	}
}

func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}
