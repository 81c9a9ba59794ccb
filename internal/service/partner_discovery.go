package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/shinyyama/marketplace-inbox/internal/repository"
)

// PartnerDiscovery finds everyone a user has exchanged at least one live message with.
type PartnerDiscovery struct {
	store repository.MessageStore
}

func NewPartnerDiscovery(store repository.MessageStore) *PartnerDiscovery {
	return &PartnerDiscovery{store: store}
}

// Discover returns the distinct partners of uid, sorted. Callers must not rely on the order.
func (d *PartnerDiscovery) Discover(ctx context.Context, uid string) ([]string, error) {
	senders, err := d.store.DistinctUIDs(ctx, repository.FieldSender, repository.MessageFilter{
		RecipientUIDs: []string{uid},
	})
	if err != nil {
		return nil, fmt.Errorf("discover senders: %w", err)
	}
	recipients, err := d.store.DistinctUIDs(ctx, repository.FieldRecipient, repository.MessageFilter{
		SenderUIDs: []string{uid},
	})
	if err != nil {
		return nil, fmt.Errorf("discover recipients: %w", err)
	}

	seen := make(map[string]struct{}, len(senders)+len(recipients))
	partners := make([]string, 0, len(senders)+len(recipients))
	for _, list := range [][]string{senders, recipients} {
		for _, p := range list {
			if p == uid || p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			partners = append(partners, p)
		}
	}
	slices.Sort(partners)
	return partners, nil
}
