// Package verify реализует проверку действий участников через X API:
// client.go — HTTP-клиент с учётом лимитов, engine.go — проход верификации.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"gorillamansion.xyz/telegram-bot/internal/common"
	"gorillamansion.xyz/telegram-bot/internal/features/raids"
)

// Client ходит в X API v2 read-only эндпоинты.
// Bearer-токен и соединение разделяются всеми вызовами без блокировок.
type Client struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	// Максимум повторов одного запроса при 429.
	// Ограниченный цикл вместо рекурсии: при бесконечных 429 выходим с ошибкой.
	maxRetries int
}

// NewClient создаёт клиент X API.
func NewClient(baseURL, bearerToken string, maxRetries int) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: maxRetries,
	}
}

// Endpoint выбирает read-only эндпоинт под тип действия рейда.
func Endpoint(actionType, username, tweetID string) (string, error) {
	switch actionType {
	case raids.ActionRetweet:
		if tweetID == "" {
			return "", common.ErrInvalidTweetID
		}
		return fmt.Sprintf("tweets/%s/retweeted_by", tweetID), nil
	case raids.ActionLike:
		if tweetID == "" {
			return "", common.ErrInvalidTweetID
		}
		return fmt.Sprintf("tweets/%s/liking_users", tweetID), nil
	case raids.ActionFollow:
		if username == "" {
			return "", common.ErrInvalidUsername
		}
		return fmt.Sprintf("users/by/username/%s/followers", username), nil
	}
	return "", common.ErrInvalidActionType
}

// apiResponse — кусок ответа X API, который мы потребляем.
type apiResponse struct {
	Data []struct {
		Username string `json:"username"`
	} `json:"data"`
}

// FetchInteractors возвращает множество ников (в нижнем регистре),
// выполнивших действие.
//
// Контракт по ошибкам:
//   - 429 → ждём до x-rate-limit-reset и повторяем (не больше maxRetries);
//   - любая другая ошибка → возвращается как есть, вызывающий пропускает
//     кампанию и продолжает проход;
//   - ответ без данных → common.ErrNoData.
func (c *Client) FetchInteractors(ctx context.Context, endpoint string) (map[string]struct{}, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		handles, retryAfter, err := c.doRequest(ctx, endpoint)
		if err == nil {
			return handles, nil
		}
		lastErr = err
		if retryAfter < 0 {
			// Не rate-limit: без повторов
			return nil, err
		}

		log.WithFields(log.Fields{
			"endpoint": endpoint,
			"wait":     retryAfter.String(),
		}).Warn("X API вернул 429, ждём окно лимита")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryAfter):
		}
	}
	return nil, fmt.Errorf("исчерпаны повторы после 429: %w", lastErr)
}

// doRequest выполняет один запрос. При 429 возвращает время ожидания >= 0;
// для всех остальных ошибок время ожидания отрицательное (повторов нет).
func (c *Client) doRequest(ctx context.Context, endpoint string) (map[string]struct{}, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, -1, fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, -1, fmt.Errorf("запрос к X API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, c.resetWait(resp), fmt.Errorf("X API rate limit (429)")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, -1, fmt.Errorf("X API вернул статус %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, -1, fmt.Errorf("чтение ответа: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, -1, fmt.Errorf("разбор ответа: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, -1, common.ErrNoData
	}

	handles := make(map[string]struct{}, len(parsed.Data))
	for _, u := range parsed.Data {
		handles[common.NormalizeHandle(u.Username)] = struct{}{}
	}
	return handles, 0, nil
}

// resetWait читает x-rate-limit-reset (unix-секунды) из заголовков 429.
// Без заголовка ждём минуту; прошедшее окно даёт нулевое ожидание.
func (c *Client) resetWait(resp *http.Response) time.Duration {
	reset := resp.Header.Get("x-rate-limit-reset")
	if reset == "" {
		return time.Minute
	}
	epoch, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		return time.Minute
	}
	wait := time.Until(time.Unix(epoch, 0))
	if wait < 0 {
		return 0
	}
	return wait
}
