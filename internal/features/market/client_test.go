package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTopCryptos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-CMC_PRO_API_KEY"); got != "test-key" {
			t.Errorf("ключ API = %q, ожидали %q", got, "test-key")
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("limit = %q, ожидали %q", got, "2")
		}
		w.Write([]byte(`{"data":[
			{"name":"Bitcoin","symbol":"BTC","quote":{"USD":{"price":65000.5}}},
			{"name":"Ethereum","symbol":"ETH","quote":{"USD":{"price":3200.25}}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	cryptos, err := client.TopCryptos(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopCryptos: %v", err)
	}
	if len(cryptos) != 2 {
		t.Fatalf("получили %d валют, ожидали 2", len(cryptos))
	}
	if cryptos[0].Symbol != "BTC" || cryptos[0].Price != 65000.5 {
		t.Errorf("первая валюта = %+v", cryptos[0])
	}
}

func TestTopCryptosErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "статус 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "пустой листинг",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":[]}`))
			},
		},
		{
			name: "битый JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(srv.URL, "key")
			if _, err := client.TopCryptos(context.Background(), 5); err == nil {
				t.Fatal("ожидали ошибку, получили nil")
			}
		})
	}
}

func TestFormatTop(t *testing.T) {
	text := FormatTop([]Crypto{
		{Name: "Bitcoin", Symbol: "BTC", Price: 65000.5},
		{Name: "Ethereum", Symbol: "ETH", Price: 3200.25},
	})
	if !strings.Contains(text, "1. Bitcoin (BTC): $65000.50") {
		t.Errorf("нет строки биткоина:\n%s", text)
	}
	if !strings.Contains(text, "2. Ethereum (ETH): $3200.25") {
		t.Errorf("нет строки эфира:\n%s", text)
	}
}
