package middleware

import (
	"testing"
	"time"
)

func TestCommandLimiterAllow(t *testing.T) {
	cl := NewCommandLimiter(3, time.Minute)
	defer cl.Close()

	for i := 0; i < 3; i++ {
		if !cl.Allow(42) {
			t.Fatalf("команда %d должна проходить", i+1)
		}
	}
	if cl.Allow(42) {
		t.Fatal("четвёртая команда в окне должна блокироваться")
	}
	if !cl.Allow(99) {
		t.Fatal("лимит должен считаться на каждого пользователя отдельно")
	}
}

func TestCommandLimiterWindowExpiry(t *testing.T) {
	cl := NewCommandLimiter(1, 10*time.Millisecond)
	defer cl.Close()

	if !cl.Allow(42) {
		t.Fatal("первая команда должна проходить")
	}
	if cl.Allow(42) {
		t.Fatal("вторая команда в окне должна блокироваться")
	}

	time.Sleep(20 * time.Millisecond)
	if !cl.Allow(42) {
		t.Fatal("после истечения окна команда должна проходить")
	}
}
