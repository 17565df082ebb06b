// Package raids реализует рейд-кампании: создание, участие, пруфы.
// models.go описывает структуры для хранения рейдов, участников и пруфов.
package raids

import "time"

// Типы действий рейда. Всё остальное — ошибка валидации.
const (
	ActionRetweet = "retweet"
	ActionLike    = "like"
	ActionFollow  = "follow"
)

// Статусы участника. Переход только pending → completed, назад никогда.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Raid — одна кампания: целевой аккаунт и требуемое действие.
type Raid struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Username    string    `db:"username"` // Целевой аккаунт в X
	TweetID     string    `db:"tweet_id"` // Пусто для follow
	ActionType  string    `db:"action_type"`
	CreatorID   int64     `db:"creator_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// Participant — участие пользователя в рейде.
// Пара (raid_id, user_id) уникальна на уровне БД.
type Participant struct {
	ID       int64  `db:"id"`
	RaidID   int64  `db:"raid_id"`
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Status   string `db:"status"`
}

// Proof — аудит-запись о подтверждённом действии участника.
type Proof struct {
	ID          int64     `db:"id"`
	RaidID      int64     `db:"raid_id"`
	UserID      int64     `db:"user_id"`
	Username    string    `db:"username"`
	Proof       string    `db:"proof"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// RaidCounts — сводка по участникам рейда.
type RaidCounts struct {
	Total     int
	Completed int
	Pending   int
}

// RaidSummary — рейд вместе со счётчиками, для списков и рассылок.
type RaidSummary struct {
	Raid
	Counts RaidCounts
}

// RaidSpec — входные данные команды создания рейда.
type RaidSpec struct {
	Name        string
	Description string
	Username    string
	TweetURL    string // Необязательная ссылка на твит, id извлекается из хвоста
	ActionType  string
	CreatorID   int64
}
