package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shinyyama/marketplace-inbox/internal/model"
	"github.com/shinyyama/marketplace-inbox/internal/repository"
	"github.com/shinyyama/marketplace-inbox/internal/testutil"
	"gorm.io/gorm"
)

type fakeUsers struct {
	mu    sync.Mutex
	fail  map[string]error
	hook  func(uid string)
	calls int
}

func (f *fakeUsers) DisplayInfo(ctx context.Context, uid string) (DisplayInfo, error) {
	f.mu.Lock()
	f.calls++
	err := f.fail[uid]
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook(uid)
	}
	if err != nil {
		return DisplayInfo{}, err
	}
	avatar := "https://cdn.example.com/avatars/" + uid + ".png"
	return DisplayInfo{Name: "User " + uid, AvatarURL: &avatar}, nil
}

type fakeListings struct {
	titles map[uint64]string
	err    error
}

func (f *fakeListings) ListingTitle(ctx context.Context, id uint64) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	title, ok := f.titles[id]
	return title, ok, nil
}

// faultyStore wraps a real store and fails pair lookups involving selected partners.
type faultyStore struct {
	repository.MessageStore
	failPair map[string]error
	queries  atomic.Int64
}

func (s *faultyStore) FindMessages(ctx context.Context, f repository.MessageFilter) ([]model.Message, error) {
	s.queries.Add(1)
	if f.Pair != nil {
		if err, ok := s.failPair[f.Pair.B]; ok {
			return nil, err
		}
	}
	return s.MessageStore.FindMessages(ctx, f)
}

func (s *faultyStore) CountMessages(ctx context.Context, f repository.MessageFilter) (int64, error) {
	s.queries.Add(1)
	return s.MessageStore.CountMessages(ctx, f)
}

func (s *faultyStore) DistinctUIDs(ctx context.Context, field repository.UIDField, f repository.MessageFilter) ([]string, error) {
	s.queries.Add(1)
	return s.MessageStore.DistinctUIDs(ctx, field, f)
}

var errBoom = errors.New("boom")

type fixture struct {
	db    *gorm.DB
	store repository.MessageStore
	users *fakeUsers
	logs  *bytes.Buffer
	log   *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	var buf bytes.Buffer
	return &fixture{
		db:    gdb,
		store: repository.NewMessageRepository(gdb),
		users: &fakeUsers{},
		logs:  &buf,
		log:   slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

func (f *fixture) insert(t *testing.T, msgs ...model.Message) []model.Message {
	t.Helper()
	return testutil.Insert(t, f.db, msgs...)
}

func (f *fixture) service(opts Options) ConversationService {
	return NewConversationService(f.store, f.users, &fakeListings{}, f.log, opts)
}

var strategies = []Strategy{StrategyPerPartner, StrategyBulk}

func partnerName(i int) string {
	return fmt.Sprintf("partner-%02d", i)
}

func partnerUIDs(list []ConversationSummary) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.PartnerUID)
	}
	return out
}
