package raids

import (
	"context"
	"errors"
	"testing"

	"gorillamansion.xyz/telegram-bot/internal/common"
)

// fakeStore — in-memory реализация store для тестов сервиса.
// Повторяет поведение Postgres: автоинкремент id, уникальность
// (raid_id, user_id), сброс счётчиков при DeleteAll.
type fakeStore struct {
	raids        map[int64]*Raid
	participants map[int64]*Participant
	proofs       []Proof
	nextRaidID   int64
	nextPartID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		raids:        make(map[int64]*Raid),
		participants: make(map[int64]*Participant),
		nextRaidID:   1,
		nextPartID:   1,
	}
}

func (f *fakeStore) CreateRaid(_ context.Context, raid *Raid) (int64, error) {
	raid.ID = f.nextRaidID
	f.nextRaidID++
	f.raids[raid.ID] = raid
	return raid.ID, nil
}

func (f *fakeStore) GetRaid(_ context.Context, raidID int64) (*Raid, error) {
	raid, ok := f.raids[raidID]
	if !ok {
		return nil, common.ErrRaidNotFound
	}
	return raid, nil
}

func (f *fakeStore) ListRaids(_ context.Context) ([]RaidSummary, error) {
	var out []RaidSummary
	// Новые первыми: id растёт монотонно
	for id := f.nextRaidID - 1; id >= 1; id-- {
		raid, ok := f.raids[id]
		if !ok {
			continue
		}
		s := RaidSummary{Raid: *raid}
		for _, p := range f.participants {
			if p.RaidID != id {
				continue
			}
			s.Counts.Total++
			if p.Status == StatusCompleted {
				s.Counts.Completed++
			}
		}
		s.Counts.Pending = s.Counts.Total - s.Counts.Completed
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) AddParticipant(_ context.Context, raidID, userID int64, username string) error {
	for _, p := range f.participants {
		if p.RaidID == raidID && p.UserID == userID {
			return common.ErrAlreadyJoined
		}
	}
	p := &Participant{
		ID:       f.nextPartID,
		RaidID:   raidID,
		UserID:   userID,
		Username: username,
		Status:   StatusPending,
	}
	f.nextPartID++
	f.participants[p.ID] = p
	return nil
}

func (f *fakeStore) Participants(_ context.Context, raidID int64) ([]Participant, error) {
	var out []Participant
	for id := int64(1); id < f.nextPartID; id++ {
		if p, ok := f.participants[id]; ok && p.RaidID == raidID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) PendingParticipants(_ context.Context, raidID int64) ([]Participant, error) {
	all, _ := f.Participants(context.Background(), raidID)
	var out []Participant
	for _, p := range all {
		if p.Status == StatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkCompleted(_ context.Context, participantID int64) error {
	p, ok := f.participants[participantID]
	if !ok {
		return common.ErrParticipantNotFound
	}
	if p.Status == StatusPending {
		p.Status = StatusCompleted
	}
	return nil
}

func (f *fakeStore) RecordProof(_ context.Context, raidID, userID int64, username, proof string) error {
	f.proofs = append(f.proofs, Proof{
		ID: int64(len(f.proofs) + 1), RaidID: raidID, UserID: userID,
		Username: username, Proof: proof,
	})
	return nil
}

func (f *fakeStore) ProofsByRaid(_ context.Context, raidID int64) ([]Proof, error) {
	var out []Proof
	for _, p := range f.proofs {
		if p.RaidID == raidID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteAll(_ context.Context) error {
	f.raids = make(map[int64]*Raid)
	f.participants = make(map[int64]*Participant)
	f.proofs = nil
	f.nextRaidID = 1
	f.nextPartID = 1
	return nil
}

func TestCreateRaidValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    RaidSpec
		wantErr error
	}{
		{
			name: "valid follow",
			spec: RaidSpec{Name: "R1", Description: "desc", Username: "acct", ActionType: "follow"},
		},
		{
			name: "valid retweet with url",
			spec: RaidSpec{Name: "R2", Description: "desc", Username: "acct", ActionType: "retweet", TweetURL: "https://x.com/acct/status/12345"},
		},
		{
			name: "username with @ prefix accepted",
			spec: RaidSpec{Name: "R3", Description: "desc", Username: "@acct", ActionType: "follow"},
		},
		{
			name: "action type uppercased accepted",
			spec: RaidSpec{Name: "R4", Description: "desc", Username: "acct", ActionType: "Follow"},
		},
		{
			name:    "invalid action type",
			spec:    RaidSpec{Name: "R", Description: "d", Username: "acct", ActionType: "repost"},
			wantErr: common.ErrInvalidActionType,
		},
		{
			name:    "follow with space in username",
			spec:    RaidSpec{Name: "R", Description: "d", Username: "bad name", ActionType: "follow"},
			wantErr: common.ErrInvalidUsername,
		},
		{
			name:    "follow with slash in username",
			spec:    RaidSpec{Name: "R", Description: "d", Username: "bad/name", ActionType: "follow"},
			wantErr: common.ErrInvalidUsername,
		},
		{
			name:    "follow with empty username",
			spec:    RaidSpec{Name: "R", Description: "d", Username: "", ActionType: "follow"},
			wantErr: common.ErrInvalidUsername,
		},
		{
			name:    "retweet without tweet url",
			spec:    RaidSpec{Name: "R", Description: "d", Username: "acct", ActionType: "retweet"},
			wantErr: common.ErrInvalidTweetID,
		},
		{
			name:    "like with non-numeric tweet id",
			spec:    RaidSpec{Name: "R", Description: "d", Username: "acct", ActionType: "like", TweetURL: "https://x.com/acct/status/abc123"},
			wantErr: common.ErrInvalidTweetID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(newFakeStore())
			_, err := service.CreateRaid(context.Background(), tt.spec)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateRaid() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateRaidFollowHasNoTweetID(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)

	// Для follow переданная ссылка игнорируется, tweet_id остаётся пустым
	id, err := service.CreateRaid(context.Background(), RaidSpec{
		Name: "R1", Description: "desc", Username: "acct",
		ActionType: "follow", TweetURL: "https://x.com/acct/status/999",
	})
	if err != nil {
		t.Fatalf("CreateRaid() error = %v", err)
	}
	if store.raids[id].TweetID != "" {
		t.Errorf("follow raid stored tweet_id %q, want empty", store.raids[id].TweetID)
	}
}

func TestExtractTweetID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://x.com/acct/status/12345", "12345"},
		{"https://x.com/acct/status/12345/", "12345"},
		{"12345", "12345"},
		{"https://x.com/acct/status/abc", ""},
		{"", ""},
		{"https://x.com/acct/status/", ""},
	}

	for _, tt := range tests {
		if got := extractTweetID(tt.url); got != tt.want {
			t.Errorf("extractTweetID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestJoinDuplicateIsConflict(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)
	ctx := context.Background()

	raidID, err := service.CreateRaid(ctx, RaidSpec{
		Name: "R1", Description: "desc", Username: "acct", ActionType: "follow",
	})
	if err != nil {
		t.Fatalf("CreateRaid() error = %v", err)
	}
	if raidID != 1 {
		t.Fatalf("first raid id = %d, want 1", raidID)
	}

	if _, err := service.Join(ctx, raidID, 42, "alice"); err != nil {
		t.Fatalf("first Join() error = %v", err)
	}
	if _, err := service.Join(ctx, raidID, 42, "alice"); !errors.Is(err, common.ErrAlreadyJoined) {
		t.Errorf("second Join() error = %v, want ErrAlreadyJoined", err)
	}

	participants, _ := service.PendingParticipants(ctx, raidID)
	if len(participants) != 1 {
		t.Errorf("participant count = %d, want 1 after duplicate join", len(participants))
	}
}

func TestJoinMissingRaid(t *testing.T) {
	service := NewService(newFakeStore())
	if _, err := service.Join(context.Background(), 99, 42, "alice"); !errors.Is(err, common.ErrRaidNotFound) {
		t.Errorf("Join() error = %v, want ErrRaidNotFound", err)
	}
}

func TestMarkCompletedIsIdempotent(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)
	ctx := context.Background()

	raidID, err := service.CreateRaid(ctx, RaidSpec{
		Name: "R1", Description: "desc", Username: "acct", ActionType: "follow",
	})
	if err != nil {
		t.Fatalf("CreateRaid() error = %v", err)
	}
	if _, err := service.Join(ctx, raidID, 42, "alice"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if err := service.MarkCompleted(ctx, 1); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	// Повторная пометка (два прохода верификации наперегонки) — no-op
	if err := service.MarkCompleted(ctx, 1); err != nil {
		t.Errorf("повторный MarkCompleted() error = %v, want nil", err)
	}

	pending, _ := service.PendingParticipants(ctx, raidID)
	if len(pending) != 0 {
		t.Errorf("pending count = %d, want 0", len(pending))
	}
}

func TestMarkCompletedMissingParticipant(t *testing.T) {
	service := NewService(newFakeStore())
	if err := service.MarkCompleted(context.Background(), 99); !errors.Is(err, common.ErrParticipantNotFound) {
		t.Errorf("MarkCompleted() error = %v, want ErrParticipantNotFound", err)
	}
}

func TestRaidStatusCounts(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)
	ctx := context.Background()

	raidID, _ := service.CreateRaid(ctx, RaidSpec{
		Name: "R1", Description: "desc", Username: "acct", ActionType: "follow",
	})
	service.Join(ctx, raidID, 1, "alice")
	service.Join(ctx, raidID, 2, "bob")
	service.Join(ctx, raidID, 3, "carol")

	pending, _ := service.PendingParticipants(ctx, raidID)
	service.MarkCompleted(ctx, pending[0].ID)

	_, participants, counts, err := service.RaidStatus(ctx, raidID)
	if err != nil {
		t.Fatalf("RaidStatus() error = %v", err)
	}
	if len(participants) != 3 {
		t.Errorf("participants = %d, want 3", len(participants))
	}
	if counts.Total != 3 || counts.Completed != 1 || counts.Pending != 2 {
		t.Errorf("counts = %+v, want {3 1 2}", counts)
	}
}

func TestDeleteAllResetsIdentity(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)
	ctx := context.Background()

	id1, _ := service.CreateRaid(ctx, RaidSpec{
		Name: "R1", Description: "desc", Username: "acct", ActionType: "follow",
	})
	service.Join(ctx, id1, 42, "alice")
	service.RecordProof(ctx, id1, 42, "alice", "Completed follow")

	if err := service.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	if len(store.raids) != 0 || len(store.participants) != 0 || len(store.proofs) != 0 {
		t.Error("DeleteAll must leave zero rows in all three tables")
	}

	id2, _ := service.CreateRaid(ctx, RaidSpec{
		Name: "R2", Description: "desc", Username: "acct", ActionType: "follow",
	})
	if id2 != 1 {
		t.Errorf("raid id after reset = %d, want 1", id2)
	}
}
