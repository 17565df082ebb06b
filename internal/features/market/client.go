// Package market показывает топ криптовалют по капитализации.
// client.go — клиент CoinMarketCap; потребляем только имя, тикер и цену.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Crypto — одна валюта из листинга.
type Crypto struct {
	Name   string
	Symbol string
	Price  float64
}

// Client ходит в CoinMarketCap listings/latest.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент CoinMarketCap. Пустой apiKey допустим:
// запросы будут падать, обработчик ответит извинением.
func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// listingsResponse — потребляемая часть ответа listings/latest.
type listingsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
		Quote  struct {
			USD struct {
				Price float64 `json:"price"`
			} `json:"USD"`
		} `json:"quote"`
	} `json:"data"`
}

// TopCryptos возвращает топ-N валют по капитализации в USD.
func (c *Client) TopCryptos(ctx context.Context, limit int) ([]Crypto, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	q := req.URL.Query()
	q.Set("start", "1")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("convert", "USD")
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос к CoinMarketCap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("CoinMarketCap вернул статус %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("чтение ответа: %w", err)
	}

	var parsed listingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("разбор ответа: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("пустой листинг CoinMarketCap")
	}

	cryptos := make([]Crypto, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		cryptos = append(cryptos, Crypto{
			Name:   d.Name,
			Symbol: d.Symbol,
			Price:  d.Quote.USD.Price,
		})
	}
	return cryptos, nil
}
