package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shinyyama/marketplace-inbox/internal/model"
	"github.com/shinyyama/marketplace-inbox/internal/obs"
	"github.com/shinyyama/marketplace-inbox/internal/reqctx"
	"github.com/shinyyama/marketplace-inbox/internal/repository"
	"golang.org/x/sync/errgroup"
)

// Strategy selects how LatestForPartners talks to the store.
//
// StrategyPerPartner issues one newest-first LIMIT 1 query per partner, concurrently. It is
// exact and costs one round trip per partner.
//
// StrategyBulk reads the user's newest messages in a single window of
// min(len(partners)*BulkMessagesPerPartner, BulkMaxRows) rows and keeps the first row seen per
// partner. Those rows are exact. Partners that fall outside a full window (a user whose
// history is dominated by a few chatty partners) are logged, counted in
// obs.BulkUnderfetch, and resolved with per-partner queries, so results never differ from
// StrategyPerPartner; only the round-trip count does.
type Strategy string

const (
	StrategyPerPartner Strategy = "per_partner"
	StrategyBulk       Strategy = "bulk"
)

type LatestMessageSelector struct {
	store       repository.MessageStore
	logger      *slog.Logger
	strategy    Strategy
	concurrency int
	perPartner  int
	maxRows     int
}

func NewLatestMessageSelector(store repository.MessageStore, logger *slog.Logger, opts Options) *LatestMessageSelector {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &LatestMessageSelector{
		store:       store,
		logger:      logger,
		strategy:    opts.Strategy,
		concurrency: opts.Concurrency,
		perPartner:  opts.BulkMessagesPerPartner,
		maxRows:     opts.BulkMaxRows,
	}
}

// Latest returns the newest live message between uid and partner in either direction, or nil
// when there is none.
func (s *LatestMessageSelector) Latest(ctx context.Context, uid, partner string) (*model.Message, error) {
	msgs, err := s.store.FindMessages(ctx, repository.MessageFilter{
		Pair:        &repository.Pair{A: uid, B: partner},
		NewestFirst: true,
		Limit:       1,
	})
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

// LatestForPartners returns the same messages as calling Latest for each partner. Partners
// without a live message are absent from the map. Any lookup error fails the whole batch.
func (s *LatestMessageSelector) LatestForPartners(ctx context.Context, uid string, partners []string) (map[string]model.Message, error) {
	if len(partners) == 0 {
		return map[string]model.Message{}, nil
	}
	if s.strategy == StrategyBulk {
		return s.bulk(ctx, uid, partners)
	}
	return s.each(ctx, uid, partners)
}

func (s *LatestMessageSelector) each(ctx context.Context, uid string, partners []string) (map[string]model.Message, error) {
	results := make([]*model.Message, len(partners))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range partners {
		g.Go(func() error {
			m, err := s.Latest(gctx, uid, p)
			if err != nil {
				return fmt.Errorf("latest message with %s: %w", p, err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]model.Message, len(partners))
	for i, m := range results {
		if m != nil {
			out[partners[i]] = *m
		}
	}
	return out, nil
}

func (s *LatestMessageSelector) bulk(ctx context.Context, uid string, partners []string) (map[string]model.Message, error) {
	window := len(partners) * s.perPartner
	if window > s.maxRows {
		window = s.maxRows
	}
	msgs, err := s.store.FindMessages(ctx, repository.MessageFilter{
		Participant: uid,
		NewestFirst: true,
		Limit:       window,
	})
	if err != nil {
		return nil, fmt.Errorf("bulk latest messages: %w", err)
	}

	want := make(map[string]struct{}, len(partners))
	for _, p := range partners {
		want[p] = struct{}{}
	}
	out := make(map[string]model.Message, len(partners))
	for _, m := range msgs {
		p := m.Counterpart(uid)
		if _, ok := want[p]; !ok {
			continue
		}
		if _, seen := out[p]; seen {
			continue
		}
		out[p] = m
		if len(out) == len(want) {
			break
		}
	}
	// A short window means the whole history was read; absent partners have no live message.
	if len(msgs) < window || len(out) == len(want) {
		return out, nil
	}

	missing := make([]string, 0, len(want)-len(out))
	for _, p := range partners {
		if _, ok := out[p]; !ok {
			missing = append(missing, p)
		}
	}
	obs.BulkUnderfetch.Add(float64(len(missing)))
	s.logger.WarnContext(ctx, "bulk latest-message window under-fetched partners",
		"uid", uid,
		"window", window,
		"partners", len(partners),
		"missing", len(missing),
		"request_id", reqctx.RID(ctx),
	)
	rest, err := s.each(ctx, uid, missing)
	if err != nil {
		return nil, err
	}
	for p, m := range rest {
		out[p] = m
	}
	return out, nil
}
