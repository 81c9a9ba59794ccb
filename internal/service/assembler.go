package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shinyyama/marketplace-inbox/internal/model"
	"github.com/shinyyama/marketplace-inbox/internal/obs"
	"github.com/shinyyama/marketplace-inbox/internal/reqctx"
	"github.com/shinyyama/marketplace-inbox/internal/repository"
	"golang.org/x/sync/errgroup"
)

var errDirectoryLookup = errors.New("display info lookup failed")

// Assembler builds one ConversationSummary per partner. Partners are processed concurrently
// with at most Concurrency lookups in flight. A partner whose lookups fail, or who no longer has
// a live message, is left out; a store-wide failure or cancellation fails the whole call, and so
// does a call where every partner failed.
type Assembler struct {
	latest      *LatestMessageSelector
	unread      *UnreadCounter
	users       UserDirectory
	listings    ListingDirectory
	logger      *slog.Logger
	concurrency int
	batch       bool
}

func NewAssembler(latest *LatestMessageSelector, unread *UnreadCounter, users UserDirectory, listings ListingDirectory, logger *slog.Logger, opts Options) *Assembler {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		latest:      latest,
		unread:      unread,
		users:       users,
		listings:    listings,
		logger:      logger,
		concurrency: opts.Concurrency,
		batch:       opts.Strategy == StrategyBulk,
	}
}

// prefetched holds batch results; nil maps mean per-partner lookups.
type prefetched struct {
	latest map[string]model.Message
	unread map[string]int64
}

// Assemble returns summaries in no particular order.
func (a *Assembler) Assemble(ctx context.Context, uid string, partners []string) ([]ConversationSummary, error) {
	if len(partners) == 0 {
		return []ConversationSummary{}, nil
	}

	var pre prefetched
	if a.batch {
		var err error
		if pre.latest, err = a.latest.LatestForPartners(ctx, uid, partners); err != nil {
			return nil, err
		}
		if pre.unread, err = a.unread.CountForPartners(ctx, uid, partners); err != nil {
			return nil, err
		}
	}

	results := make([]*ConversationSummary, len(partners))
	var (
		mu       sync.Mutex
		failed   int
		firstErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, p := range partners {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := a.assembleOne(gctx, uid, p, pre)
			if err != nil {
				if fatal(gctx, err) {
					return err
				}
				reason := obs.DropLookupFailed
				if errors.Is(err, errDirectoryLookup) {
					reason = obs.DropDirectoryFail
				}
				a.drop(gctx, uid, p, reason, err)
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			results[i] = sum
			return nil
		})
	}
	err := g.Wait()
	// Partial results are discarded once the caller has gone away.
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(partners))
	for _, sum := range results {
		if sum != nil {
			out = append(out, *sum)
		}
	}
	// Every partner failed; do not report it as an empty inbox.
	if failed > 0 && len(out) == 0 {
		return nil, fmt.Errorf("%w: %d of %d partner lookups failed: %w",
			ErrConversationsUnavailable, failed, len(partners), firstErr)
	}
	return out, nil
}

func (a *Assembler) assembleOne(ctx context.Context, uid, partner string, pre prefetched) (*ConversationSummary, error) {
	var msg *model.Message
	if pre.latest != nil {
		if m, ok := pre.latest[partner]; ok {
			msg = &m
		}
	} else {
		m, err := a.latest.Latest(ctx, uid, partner)
		if err != nil {
			return nil, fmt.Errorf("latest message: %w", err)
		}
		msg = m
	}
	if msg == nil {
		// Deleted between discovery and assembly.
		obs.PartnersDropped.WithLabelValues(obs.DropNoMessage).Inc()
		return nil, nil
	}

	var unread int64
	if pre.unread != nil {
		unread = pre.unread[partner]
	} else {
		n, err := a.unread.Count(ctx, uid, partner)
		if err != nil {
			return nil, fmt.Errorf("unread count: %w", err)
		}
		unread = n
	}

	info, err := a.users.DisplayInfo(ctx, partner)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errDirectoryLookup, err)
	}

	sum := &ConversationSummary{
		PartnerUID:           partner,
		PartnerDisplayName:   info.Name,
		PartnerAvatarURL:     info.AvatarURL,
		LastMessageID:        msg.ID,
		LastMessageText:      msg.Body,
		LastMessageAt:        msg.CreatedAt,
		LastMessageSenderUID: msg.SenderUID,
		UnreadCount:          unread,
		ListingID:            msg.ListingID,
	}
	if msg.ListingID != nil && a.listings != nil {
		title, ok, err := a.listings.ListingTitle(ctx, *msg.ListingID)
		switch {
		case err != nil && fatal(ctx, err):
			return nil, err
		case err != nil:
			// Listing context is decoration; keep the conversation without it.
			a.logger.WarnContext(ctx, "listing title lookup failed",
				"listing_id", *msg.ListingID,
				"error", err,
				"request_id", reqctx.RID(ctx),
			)
		case ok:
			sum.ListingTitle = &title
		}
	}
	return sum, nil
}

func (a *Assembler) drop(ctx context.Context, uid, partner, reason string, err error) {
	obs.PartnersDropped.WithLabelValues(reason).Inc()
	a.logger.WarnContext(ctx, "dropping conversation partner",
		"uid", uid,
		"partner_uid", partner,
		"reason", reason,
		"error", err,
		"request_id", reqctx.RID(ctx),
	)
}

func fatal(ctx context.Context, err error) bool {
	return repository.IsStoreUnavailable(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		ctx.Err() != nil
}
