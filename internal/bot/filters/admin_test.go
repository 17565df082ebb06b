package filters

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeMemberGetter struct {
	status string
	err    error
}

func (f *fakeMemberGetter) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	if f.err != nil {
		return tgbotapi.ChatMember{}, f.err
	}
	return tgbotapi.ChatMember{Status: f.status}, nil
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name   string
		status string
		err    error
		want   bool
	}{
		{name: "создатель", status: "creator", want: true},
		{name: "администратор", status: "administrator", want: true},
		{name: "обычный участник", status: "member", want: false},
		{name: "ограниченный", status: "restricted", want: false},
		{name: "ошибка API", err: errors.New("bad request"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewAdminChecker(&fakeMemberGetter{status: tt.status, err: tt.err})
			if got := checker.IsAdmin(context.Background(), 100, 42); got != tt.want {
				t.Errorf("IsAdmin = %v, ожидали %v", got, tt.want)
			}
		})
	}
}
