package service

import (
	"context"
	"fmt"

	"github.com/shinyyama/marketplace-inbox/internal/repository"
)

// UnreadCounter counts live, unread messages a partner sent to the user. Messages the user sent
// are never unread for that user.
type UnreadCounter struct {
	store repository.MessageStore
}

func NewUnreadCounter(store repository.MessageStore) *UnreadCounter {
	return &UnreadCounter{store: store}
}

func (c *UnreadCounter) Count(ctx context.Context, uid, partner string) (int64, error) {
	if partner == uid {
		return 0, nil
	}
	return c.store.CountMessages(ctx, repository.MessageFilter{
		SenderUIDs:    []string{partner},
		RecipientUIDs: []string{uid},
		UnreadOnly:    true,
	})
}

// CountForPartners returns one grouped count per partner; partners with nothing unread map to 0.
func (c *UnreadCounter) CountForPartners(ctx context.Context, uid string, partners []string) (map[string]int64, error) {
	out := make(map[string]int64, len(partners))
	senders := make([]string, 0, len(partners))
	for _, p := range partners {
		if p == uid {
			continue
		}
		out[p] = 0
		senders = append(senders, p)
	}
	if len(senders) == 0 {
		return out, nil
	}
	counts, err := c.store.CountBySender(ctx, repository.MessageFilter{
		SenderUIDs:    senders,
		RecipientUIDs: []string{uid},
		UnreadOnly:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("count unread by sender: %w", err)
	}
	for p, n := range counts {
		if _, ok := out[p]; ok {
			out[p] = n
		}
	}
	return out, nil
}

// Total counts every live unread message addressed to uid.
func (c *UnreadCounter) Total(ctx context.Context, uid string) (int64, error) {
	return c.store.CountMessages(ctx, repository.MessageFilter{
		RecipientUIDs: []string{uid},
		NotSenderUIDs: []string{uid},
		UnreadOnly:    true,
	})
}
