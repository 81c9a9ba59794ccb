package service

import (
	"context"
	"testing"

	"github.com/shinyyama/marketplace-inbox/internal/repository"
	tu "github.com/shinyyama/marketplace-inbox/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListLatestMessageEitherDirection(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t)
			msgs := f.insert(t,
				tu.Msg("alice", "bob", 1, "T1"),
				tu.Msg("bob", "alice", 2, "T2"),
				tu.Msg("alice", "bob", 3, "T3"),
			)

			got, err := f.service(Options{Strategy: strategy}).List(context.Background(), "alice")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "bob", got[0].PartnerUID)
			assert.Equal(t, msgs[2].ID, got[0].LastMessageID)
			assert.Equal(t, "T3", got[0].LastMessageText)
			assert.Equal(t, "alice", got[0].LastMessageSenderUID)
			assert.True(t, tu.At(3).Equal(got[0].LastMessageAt))
		})
	}
}

func TestListUnreadCountsOnlyIncoming(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t)
			f.insert(t,
				tu.Msg("bob", "alice", 1, "one"),
				tu.Msg("bob", "alice", 2, "two"),
				tu.Msg("bob", "alice", 3, "three"),
				tu.Msg("alice", "bob", 4, "reply one"),
				tu.Msg("alice", "bob", 5, "reply two"),
			)

			got, err := f.service(Options{Strategy: strategy}).List(context.Background(), "alice")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, int64(3), got[0].UnreadCount)

			got, err = f.service(Options{Strategy: strategy}).List(context.Background(), "bob")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, int64(2), got[0].UnreadCount)
		})
	}
}

func seedPartners(t *testing.T, f *fixture, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		// Each partner gets two messages; the later one decides its position.
		f.insert(t,
			tu.Msg(partnerName(i), "alice", i*2, "hello"),
			tu.Msg("alice", partnerName(i), i*2+1, "hi back"),
		)
	}
}

func TestListDefaultPage(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t)
			seedPartners(t, f, 25)

			got, err := f.service(Options{Strategy: strategy}).List(context.Background(), "alice")
			require.NoError(t, err)
			require.Len(t, got, DefaultLimit)
			for i, s := range got {
				assert.Equal(t, partnerName(24-i), s.PartnerUID)
			}
		})
	}
}

func TestListPagesDoNotOverlap(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t)
			seedPartners(t, f, 7)
			svc := f.service(Options{Strategy: strategy, BulkMessagesPerPartner: 1})
			ctx := context.Background()

			first, err := svc.List(ctx, "alice", WithLimit(2), WithOffset(0))
			require.NoError(t, err)
			second, err := svc.List(ctx, "alice", WithLimit(2), WithOffset(2))
			require.NoError(t, err)

			assert.Equal(t, []string{partnerName(6), partnerName(5)}, partnerUIDs(first))
			assert.Equal(t, []string{partnerName(4), partnerName(3)}, partnerUIDs(second))

			seen := map[string]bool{}
			var all []string
			for offset := 0; ; offset += 3 {
				page, err := svc.List(ctx, "alice", WithLimit(3), WithOffset(offset))
				require.NoError(t, err)
				if len(page) == 0 {
					break
				}
				for _, s := range page {
					assert.False(t, seen[s.PartnerUID], "partner %s repeated", s.PartnerUID)
					seen[s.PartnerUID] = true
					all = append(all, s.PartnerUID)
				}
			}
			assert.Len(t, all, 7)
		})
	}
}

func TestListIsIdempotent(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t)
			seedPartners(t, f, 5)
			svc := f.service(Options{Strategy: strategy})

			first, err := svc.List(context.Background(), "alice", WithLimit(3))
			require.NoError(t, err)
			second, err := svc.List(context.Background(), "alice", WithLimit(3))
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestListExcludesDeletedMessages(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t)
			msgs := f.insert(t,
				tu.Msg("bob", "alice", 1, "kept"),
				tu.Msg("alice", "bob", 2, "retracted"),
				tu.Msg("carol", "alice", 3, "only message"),
			)
			ctx := context.Background()
			require.NoError(t, f.store.SoftDelete(ctx, msgs[1].ID))
			require.NoError(t, f.store.SoftDelete(ctx, msgs[2].ID))

			got, err := f.service(Options{Strategy: strategy}).List(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "bob", got[0].PartnerUID)
			assert.Equal(t, "kept", got[0].LastMessageText)
		})
	}
}

func TestListRejectsInvalidPaginationBeforeStoreAccess(t *testing.T) {
	cases := []struct {
		name   string
		limit  int
		offset int
	}{
		{name: "zero limit", limit: 0, offset: 0},
		{name: "negative limit", limit: -5, offset: 0},
		{name: "negative offset", limit: 10, offset: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			store := &faultyStore{MessageStore: f.store}
			svc := NewConversationService(store, f.users, nil, f.log, Options{})

			got, err := svc.List(context.Background(), "alice", WithLimit(tc.limit), WithOffset(tc.offset))
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrInvalidPagination)
			assert.Zero(t, store.queries.Load())
		})
	}
}

func TestListEmptyResults(t *testing.T) {
	f := newFixture(t)
	seedPartners(t, f, 3)
	svc := f.service(Options{})

	got, err := svc.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = svc.List(context.Background(), "alice", WithOffset(10))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListRequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.service(Options{}).List(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestListFailsWhenStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	svc := NewConversationService(repository.NewMessageRepository(nil), f.users, nil, f.log, Options{})

	_, err := svc.List(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, repository.IsStoreUnavailable(err))
}

func TestUnreadTotal(t *testing.T) {
	f := newFixture(t)
	f.insert(t,
		tu.Msg("bob", "alice", 1, "a"),
		tu.Msg("bob", "alice", 2, "b"),
		tu.Msg("carol", "alice", 3, "c"),
		tu.Msg("alice", "bob", 4, "d"),
	)
	svc := f.service(Options{})

	n, err := svc.UnreadTotal(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = svc.UnreadTotal(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingUser)
}
