// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// По этим ошибкам обработчики различают типы проблем: ошибки валидации
// и конфликты получают конкретный ответ, всё остальное — общее
// «попробуйте позже».
package common

import "errors"

// Ошибки валидации при создании рейда
var (
	// ErrInvalidActionType — тип действия не retweet/like/follow
	ErrInvalidActionType = errors.New("invalid action type, use 'retweet', 'like' or 'follow'")
	// ErrInvalidUsername — пустой username или с пробелом/слэшем
	ErrInvalidUsername = errors.New("a valid username is required")
	// ErrInvalidTweetID — ссылка на твит не заканчивается числовым id
	ErrInvalidTweetID = errors.New("invalid tweet URL, please provide a valid link")
)

// Ошибки участия в рейдах
var (
	// ErrRaidNotFound — рейд с таким id не существует
	ErrRaidNotFound = errors.New("raid not found")
	// ErrAlreadyJoined — пользователь уже зарегистрирован в этом рейде.
	// Повторный join — именно конфликт, а не no-op.
	ErrAlreadyJoined = errors.New("already a participant in this raid")
	// ErrParticipantNotFound — участник не найден
	ErrParticipantNotFound = errors.New("participant not found")
)

// Ошибки планировщика
var (
	// ErrJobAlreadyRunning — задача с таким ключом уже запущена
	ErrJobAlreadyRunning = errors.New("job is already running")
	// ErrJobNotRunning — задача с таким ключом не запущена
	ErrJobNotRunning = errors.New("job is not running")
)

// Ошибки внешних сервисов
var (
	// ErrNoData — внешний API ответил, но полезных данных нет.
	// Кампания пропускается до следующего прохода.
	ErrNoData = errors.New("no usable data in API response")
)
