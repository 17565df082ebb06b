// Package raids — repository.go выполняет операции с таблицами raids,
// participants и proofs.
package raids

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gorillamansion.xyz/telegram-bot/internal/common"
)

// Repository работает с таблицами raids, participants и proofs.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий рейдов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateRaid вставляет новый рейд и возвращает его id.
func (r *Repository) CreateRaid(ctx context.Context, raid *Raid) (int64, error) {
	query := `
		INSERT INTO raids (name, description, username, tweet_id, action_type, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		raid.Name, raid.Description, raid.Username, raid.TweetID,
		raid.ActionType, raid.CreatorID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("вставка рейда: %w", err)
	}
	return id, nil
}

// GetRaid возвращает рейд по id.
func (r *Repository) GetRaid(ctx context.Context, raidID int64) (*Raid, error) {
	query := `
		SELECT id, name, description, username, tweet_id, action_type, creator_id, created_at
		FROM raids WHERE id = $1
	`
	var raid Raid
	err := r.db.QueryRow(ctx, query, raidID).Scan(
		&raid.ID, &raid.Name, &raid.Description, &raid.Username,
		&raid.TweetID, &raid.ActionType, &raid.CreatorID, &raid.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrRaidNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("чтение рейда: %w", err)
	}
	return &raid, nil
}

// ListRaids возвращает все рейды со счётчиками, новые первыми.
func (r *Repository) ListRaids(ctx context.Context) ([]RaidSummary, error) {
	query := `
		SELECT r.id, r.name, r.description, r.username, r.tweet_id, r.action_type,
		       r.creator_id, r.created_at,
		       (SELECT COUNT(*) FROM participants p WHERE p.raid_id = r.id) AS participant_count,
		       (SELECT COUNT(*) FROM participants p WHERE p.raid_id = r.id AND p.status = 'completed') AS completed_count
		FROM raids r
		ORDER BY r.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("список рейдов: %w", err)
	}
	defer rows.Close()

	var result []RaidSummary
	for rows.Next() {
		var s RaidSummary
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Description, &s.Username, &s.TweetID,
			&s.ActionType, &s.CreatorID, &s.CreatedAt,
			&s.Counts.Total, &s.Counts.Completed,
		); err != nil {
			return nil, fmt.Errorf("скан рейда: %w", err)
		}
		s.Counts.Pending = s.Counts.Total - s.Counts.Completed
		result = append(result, s)
	}
	return result, rows.Err()
}

// AddParticipant регистрирует участника.
// Дубль по (raid_id, user_id) упирается в UNIQUE-констрейнт → ErrAlreadyJoined.
func (r *Repository) AddParticipant(ctx context.Context, raidID, userID int64, username string) error {
	query := `INSERT INTO participants (raid_id, user_id, username) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, query, raidID, userID, username)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrAlreadyJoined
		}
		return fmt.Errorf("регистрация участника: %w", err)
	}
	return nil
}

// Participants возвращает участников рейда: завершившие первыми, затем по нику.
func (r *Repository) Participants(ctx context.Context, raidID int64) ([]Participant, error) {
	query := `
		SELECT id, raid_id, user_id, username, status
		FROM participants
		WHERE raid_id = $1
		ORDER BY status DESC, username ASC
	`
	return r.scanParticipants(ctx, query, raidID)
}

// PendingParticipants возвращает участников со статусом pending.
// Фильтр по статусу делает повторную верификацию идемпотентной.
func (r *Repository) PendingParticipants(ctx context.Context, raidID int64) ([]Participant, error) {
	query := `
		SELECT id, raid_id, user_id, username, status
		FROM participants
		WHERE raid_id = $1 AND status = 'pending'
	`
	return r.scanParticipants(ctx, query, raidID)
}

func (r *Repository) scanParticipants(ctx context.Context, query string, raidID int64) ([]Participant, error) {
	rows, err := r.db.Query(ctx, query, raidID)
	if err != nil {
		return nil, fmt.Errorf("участники рейда: %w", err)
	}
	defer rows.Close()

	var result []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.RaidID, &p.UserID, &p.Username, &p.Status); err != nil {
			return nil, fmt.Errorf("скан участника: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// MarkCompleted переводит участника в completed.
// Уже завершённый участник не трогается (WHERE status = 'pending').
func (r *Repository) MarkCompleted(ctx context.Context, participantID int64) error {
	query := `UPDATE participants SET status = 'completed' WHERE id = $1 AND status = 'pending'`
	tag, err := r.db.Exec(ctx, query, participantID)
	if err != nil {
		return fmt.Errorf("обновление статуса участника: %w", err)
	}
	// 0 строк: либо участника нет, либо он уже completed.
	// Повторная пометка — no-op, ошибкой считаем только отсутствие строки.
	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM participants WHERE id = $1)`, participantID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("проверка участника: %w", err)
		}
		if !exists {
			return common.ErrParticipantNotFound
		}
	}
	return nil
}

// RecordProof записывает пруф для участника.
func (r *Repository) RecordProof(ctx context.Context, raidID, userID int64, username, proof string) error {
	query := `INSERT INTO proofs (raid_id, user_id, username, proof) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query, raidID, userID, username, proof)
	if err != nil {
		return fmt.Errorf("запись пруфа: %w", err)
	}
	return nil
}

// ProofsByRaid возвращает пруфы рейда, старые первыми.
func (r *Repository) ProofsByRaid(ctx context.Context, raidID int64) ([]Proof, error) {
	query := `
		SELECT id, raid_id, user_id, username, proof, submitted_at
		FROM proofs
		WHERE raid_id = $1
		ORDER BY submitted_at ASC
	`
	rows, err := r.db.Query(ctx, query, raidID)
	if err != nil {
		return nil, fmt.Errorf("пруфы рейда: %w", err)
	}
	defer rows.Close()

	var result []Proof
	for rows.Next() {
		var p Proof
		if err := rows.Scan(&p.ID, &p.RaidID, &p.UserID, &p.Username, &p.Proof, &p.SubmittedAt); err != nil {
			return nil, fmt.Errorf("скан пруфа: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// DeleteAll удаляет все рейды, участников и пруфы и сбрасывает счётчики id.
// После сброса новый рейд снова получает id 1.
func (r *Repository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE raids, participants, proofs RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("очистка таблиц рейдов: %w", err)
	}
	return nil
}
