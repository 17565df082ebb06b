// Package raids — service.go содержит бизнес-логику рейдов:
// валидацию при создании, регистрацию участников и сводки.
package raids

import (
	"context"
	"strings"

	"gorillamansion.xyz/telegram-bot/internal/common"
)

// store — операции хранилища, нужные сервису.
// Интерфейс узкий, чтобы в тестах подставлять in-memory фейк.
type store interface {
	CreateRaid(ctx context.Context, raid *Raid) (int64, error)
	GetRaid(ctx context.Context, raidID int64) (*Raid, error)
	ListRaids(ctx context.Context) ([]RaidSummary, error)
	AddParticipant(ctx context.Context, raidID, userID int64, username string) error
	Participants(ctx context.Context, raidID int64) ([]Participant, error)
	PendingParticipants(ctx context.Context, raidID int64) ([]Participant, error)
	MarkCompleted(ctx context.Context, participantID int64) error
	RecordProof(ctx context.Context, raidID, userID int64, username, proof string) error
	ProofsByRaid(ctx context.Context, raidID int64) ([]Proof, error)
	DeleteAll(ctx context.Context) error
}

// Service управляет рейдами.
type Service struct {
	repo store
}

// NewService создаёт сервис рейдов.
func NewService(repo store) *Service {
	return &Service{repo: repo}
}

// CreateRaid валидирует входные данные и создаёт рейд.
//
// Правила:
//   - action_type ∈ {retweet, like, follow};
//   - follow: нужен непустой username без пробелов и слэшей, tweet_id не хранится;
//   - retweet/like: из хвоста ссылки извлекается числовой tweet_id.
func (s *Service) CreateRaid(ctx context.Context, spec RaidSpec) (int64, error) {
	actionType := strings.ToLower(strings.TrimSpace(spec.ActionType))
	username := strings.TrimPrefix(strings.TrimSpace(spec.Username), "@")

	switch actionType {
	case ActionRetweet, ActionLike, ActionFollow:
	default:
		return 0, common.ErrInvalidActionType
	}

	if username == "" || strings.ContainsAny(username, " /") {
		return 0, common.ErrInvalidUsername
	}

	tweetID := ""
	if actionType == ActionRetweet || actionType == ActionLike {
		tweetID = extractTweetID(spec.TweetURL)
		if tweetID == "" {
			return 0, common.ErrInvalidTweetID
		}
	}

	raid := &Raid{
		Name:        strings.TrimSpace(spec.Name),
		Description: strings.TrimSpace(spec.Description),
		Username:    username,
		TweetID:     tweetID,
		ActionType:  actionType,
		CreatorID:   spec.CreatorID,
	}
	return s.repo.CreateRaid(ctx, raid)
}

// extractTweetID берёт последний сегмент ссылки на твит.
// Валиден только полностью числовой непустой id.
func extractTweetID(tweetURL string) string {
	tweetURL = strings.TrimSpace(strings.TrimSuffix(tweetURL, "/"))
	if tweetURL == "" {
		return ""
	}
	parts := strings.Split(tweetURL, "/")
	id := parts[len(parts)-1]
	if id == "" {
		return ""
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

// Join регистрирует пользователя в рейде.
// Возвращает ErrRaidNotFound, если рейда нет, и ErrAlreadyJoined на дубль.
func (s *Service) Join(ctx context.Context, raidID, userID int64, username string) (*Raid, error) {
	raid, err := s.repo.GetRaid(ctx, raidID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddParticipant(ctx, raidID, userID, username); err != nil {
		return nil, err
	}
	return raid, nil
}

// GetRaid возвращает один рейд без участников.
func (s *Service) GetRaid(ctx context.Context, raidID int64) (*Raid, error) {
	return s.repo.GetRaid(ctx, raidID)
}

// ListRaids возвращает все рейды со счётчиками, новые первыми.
func (s *Service) ListRaids(ctx context.Context) ([]RaidSummary, error) {
	return s.repo.ListRaids(ctx)
}

// RaidStatus возвращает рейд, его участников и счётчики.
func (s *Service) RaidStatus(ctx context.Context, raidID int64) (*Raid, []Participant, RaidCounts, error) {
	raid, err := s.repo.GetRaid(ctx, raidID)
	if err != nil {
		return nil, nil, RaidCounts{}, err
	}
	participants, err := s.repo.Participants(ctx, raidID)
	if err != nil {
		return nil, nil, RaidCounts{}, err
	}

	counts := RaidCounts{Total: len(participants)}
	for _, p := range participants {
		if p.Status == StatusCompleted {
			counts.Completed++
		}
	}
	counts.Pending = counts.Total - counts.Completed
	return raid, participants, counts, nil
}

// PendingParticipants — участники рейда, ещё не подтвердившие действие.
func (s *Service) PendingParticipants(ctx context.Context, raidID int64) ([]Participant, error) {
	return s.repo.PendingParticipants(ctx, raidID)
}

// MarkCompleted переводит участника в completed (повторно — no-op).
func (s *Service) MarkCompleted(ctx context.Context, participantID int64) error {
	return s.repo.MarkCompleted(ctx, participantID)
}

// RecordProof записывает пруф участника.
func (s *Service) RecordProof(ctx context.Context, raidID, userID int64, username, proof string) error {
	return s.repo.RecordProof(ctx, raidID, userID, username, proof)
}

// Proofs возвращает рейд и его пруфы.
func (s *Service) Proofs(ctx context.Context, raidID int64) (*Raid, []Proof, error) {
	raid, err := s.repo.GetRaid(ctx, raidID)
	if err != nil {
		return nil, nil, err
	}
	proofs, err := s.repo.ProofsByRaid(ctx, raidID)
	if err != nil {
		return nil, nil, err
	}
	return raid, proofs, nil
}

// DeleteAll удаляет все данные рейдов и сбрасывает счётчики id.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}
