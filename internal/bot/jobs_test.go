package bot

import (
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gorillamansion.xyz/telegram-bot/internal/config"
	"gorillamansion.xyz/telegram-bot/internal/jobs"
)

// fakeSender собирает отправленные тексты вместо похода в Telegram.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.mu.Lock()
		f.sent = append(f.sent, msg.Text)
		f.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

func newTestJobManager(api sender, s *jobs.Scheduler) *JobManager {
	cfg := &config.Config{
		VerifyInterval:      time.Hour,
		VerifyFirstRun:      time.Hour,
		VerifyCampaignPause: time.Second,
		RaidPostsInterval:   time.Hour,
		AutoPostsInterval:   time.Hour,
		JobFirstDelay:       time.Hour,
	}
	return NewJobManager(api, cfg, s, nil, nil, nil)
}

func TestVerificationJobIsGlobal(t *testing.T) {
	s := jobs.NewScheduler()
	s.Run()
	defer s.Shutdown()

	api := &fakeSender{}
	m := newTestJobManager(api, s)

	m.StartVerification(100)
	if got := api.last(); got != "✅ Proof verification has been started!" {
		t.Fatalf("ответ первому чату = %q", got)
	}

	// Второй чат не получает собственного экземпляра задачи
	m.StartVerification(200)
	if got := api.last(); got != "🔄 Proof verification is already running." {
		t.Errorf("ответ второму чату = %q", got)
	}

	if !s.IsRunning(jobs.JobKey{Kind: jobs.JobProofVerification}) {
		t.Error("глобальная задача верификации не зарегистрирована")
	}
	for _, chatID := range []int64{100, 200} {
		if s.IsRunning(jobs.JobKey{Kind: jobs.JobProofVerification, ChatID: chatID}) {
			t.Errorf("задача верификации зарегистрирована на чат %d", chatID)
		}
	}
}

func TestStopVerificationFromAnyChat(t *testing.T) {
	s := jobs.NewScheduler()
	s.Run()
	defer s.Shutdown()

	api := &fakeSender{}
	m := newTestJobManager(api, s)

	m.StartVerification(100)
	// Глобальную задачу может выключить админ любого чата
	m.StopVerification(200)

	if got := api.last(); got != "✅ Proof verification has been stopped!" {
		t.Errorf("ответ на остановку = %q", got)
	}
	if s.IsRunning(jobs.JobKey{Kind: jobs.JobProofVerification}) {
		t.Error("задача верификации всё ещё зарегистрирована")
	}

	m.StopVerification(100)
	if got := api.last(); got != "🔄 Proof verification is not running." {
		t.Errorf("повторная остановка = %q", got)
	}
}

func TestRaidPostsArePerChat(t *testing.T) {
	s := jobs.NewScheduler()
	s.Run()
	defer s.Shutdown()

	api := &fakeSender{}
	m := newTestJobManager(api, s)

	m.StartRaidPosts(100)
	m.StartRaidPosts(200)
	if got := api.last(); got != "🔔 Auto-posting of raids has been started!" {
		t.Errorf("второй чат должен получить свою задачу, ответ = %q", got)
	}

	m.StartRaidPosts(100)
	if got := api.last(); got != "🔔 Auto-posting of raids is already running!" {
		t.Errorf("повторный запуск в чате = %q", got)
	}
}
