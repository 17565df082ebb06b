package jobs

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gorillamansion.xyz/telegram-bot/internal/common"
)

func TestStartRefusesDuplicateKey(t *testing.T) {
	s := NewScheduler()
	s.Run()
	defer s.Shutdown()

	key := JobKey{Kind: JobProofVerification}
	if err := s.Start(key, time.Hour, time.Hour, func() {}); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := s.Start(key, time.Hour, time.Hour, func() {}); !errors.Is(err, common.ErrJobAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrJobAlreadyRunning", err)
	}
}

func TestKeysAreScopedByChat(t *testing.T) {
	s := NewScheduler()
	s.Run()
	defer s.Shutdown()

	if err := s.Start(JobKey{Kind: JobRaidPosts, ChatID: 1}, time.Hour, time.Hour, func() {}); err != nil {
		t.Fatalf("Start(chat 1) error = %v", err)
	}
	// Тот же вид задачи в другом чате — другой ключ
	if err := s.Start(JobKey{Kind: JobRaidPosts, ChatID: 2}, time.Hour, time.Hour, func() {}); err != nil {
		t.Errorf("Start(chat 2) error = %v, want nil", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler()
	s.Run()
	defer s.Shutdown()

	key := JobKey{Kind: JobAutoPosts, ChatID: 7}
	if err := s.Start(key, time.Hour, time.Hour, func() {}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := s.Stop(key); err != nil {
		t.Errorf("Stop() error = %v, want nil", err)
	}
	// Повторный Stop и Stop незапущенной задачи безвредны
	if err := s.Stop(key); !errors.Is(err, common.ErrJobNotRunning) {
		t.Errorf("второй Stop() error = %v, want ErrJobNotRunning", err)
	}
	if err := s.Stop(JobKey{Kind: JobRaidPosts, ChatID: 99}); !errors.Is(err, common.ErrJobNotRunning) {
		t.Errorf("Stop() незапущенной задачи error = %v, want ErrJobNotRunning", err)
	}

	if s.IsRunning(key) {
		t.Error("job still registered after Stop")
	}
	// Ключ снова свободен
	if err := s.Start(key, time.Hour, time.Hour, func() {}); err != nil {
		t.Errorf("Start() after Stop error = %v", err)
	}
}

func TestFirstRunFiresAfterDelay(t *testing.T) {
	s := NewScheduler()
	s.Run()
	defer s.Shutdown()

	var runs atomic.Int32
	key := JobKey{Kind: JobProofVerification}
	if err := s.Start(key, time.Hour, 10*time.Millisecond, func() { runs.Add(1) }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first run did not fire")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRunsDoNotOverlap(t *testing.T) {
	s := NewScheduler()
	s.Run()
	defer s.Shutdown()

	// Запуск длиннее интервала: тики расписания должны пропускаться,
	// а не запускать второй экземпляр поверх идущего
	var active, runs atomic.Int32
	var overlapped atomic.Bool
	fn := func() {
		if active.Add(1) > 1 {
			overlapped.Store(true)
		}
		runs.Add(1)
		time.Sleep(1500 * time.Millisecond)
		active.Add(-1)
	}

	key := JobKey{Kind: JobProofVerification}
	if err := s.Start(key, time.Second, 10*time.Millisecond, fn); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(4 * time.Second)

	if overlapped.Load() {
		t.Error("запуски задачи наложились друг на друга")
	}
	if got := runs.Load(); got < 2 {
		t.Errorf("runs = %d, want >= 2 (расписание должно продолжаться после длинного запуска)", got)
	}
}

func TestStopPreventsFutureRuns(t *testing.T) {
	s := NewScheduler()
	s.Run()
	defer s.Shutdown()

	var runs atomic.Int32
	key := JobKey{Kind: JobAutoPosts, ChatID: 1}
	if err := s.Start(key, time.Hour, 50*time.Millisecond, func() { runs.Add(1) }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Останавливаем до первого запуска
	s.Stop(key)
	time.Sleep(150 * time.Millisecond)

	if got := runs.Load(); got != 0 {
		t.Errorf("runs = %d, want 0 after Stop before first run", got)
	}
}
