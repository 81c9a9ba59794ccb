package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shinyyama/marketplace-inbox/internal/obs"
	"github.com/shinyyama/marketplace-inbox/internal/reqctx"
	"github.com/shinyyama/marketplace-inbox/internal/repository"
)

var ErrMissingUser = errors.New("uid is required")

// Options configure the conversation list engine. Zero values fall back to defaults.
type Options struct {
	Strategy               Strategy
	Concurrency            int
	BulkMessagesPerPartner int
	BulkMaxRows            int
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyPerPartner
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 16
	}
	if o.BulkMessagesPerPartner <= 0 {
		o.BulkMessagesPerPartner = 10
	}
	if o.BulkMaxRows <= 0 {
		o.BulkMaxRows = 5000
	}
	return o
}

type listOptions struct {
	limit  int
	offset int
}

type ListOption func(*listOptions)

func WithLimit(limit int) ListOption {
	return func(o *listOptions) { o.limit = limit }
}

func WithOffset(offset int) ListOption {
	return func(o *listOptions) { o.offset = offset }
}

type ConversationService interface {
	// List returns the user's conversations, newest first, one per partner.
	List(ctx context.Context, uid string, opts ...ListOption) ([]ConversationSummary, error)
	// UnreadTotal counts unread messages across every conversation of uid.
	UnreadTotal(ctx context.Context, uid string) (int64, error)
}

type conversationService struct {
	discovery *PartnerDiscovery
	assembler *Assembler
	unread    *UnreadCounter
	strategy  Strategy
	logger    *slog.Logger
}

func NewConversationService(store repository.MessageStore, users UserDirectory, listings ListingDirectory, logger *slog.Logger, opts Options) ConversationService {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	latest := NewLatestMessageSelector(store, logger, opts)
	unread := NewUnreadCounter(store)
	return &conversationService{
		discovery: NewPartnerDiscovery(store),
		assembler: NewAssembler(latest, unread, users, listings, logger, opts),
		unread:    unread,
		strategy:  opts.Strategy,
		logger:    logger,
	}
}

func (s *conversationService) List(ctx context.Context, uid string, opts ...ListOption) ([]ConversationSummary, error) {
	o := listOptions{limit: DefaultLimit, offset: DefaultOffset}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ValidatePage(o.limit, o.offset); err != nil {
		return nil, err
	}
	if uid == "" {
		return nil, ErrMissingUser
	}

	start := time.Now()
	defer func() {
		obs.ListDuration.WithLabelValues(string(s.strategy)).Observe(time.Since(start).Seconds())
	}()

	partners, err := s.discovery.Discover(ctx, uid)
	if err != nil {
		return nil, err
	}
	obs.ListPartners.Observe(float64(len(partners)))
	if len(partners) == 0 {
		return []ConversationSummary{}, nil
	}

	summaries, err := s.assembler.Assemble(ctx, uid, partners)
	if err != nil {
		return nil, err
	}
	page, err := Paginate(summaries, o.limit, o.offset)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "conversation list assembled",
		"uid", uid,
		"partners", len(partners),
		"assembled", len(summaries),
		"returned", len(page),
		"request_id", reqctx.RID(ctx),
	)
	return page, nil
}

func (s *conversationService) UnreadTotal(ctx context.Context, uid string) (int64, error) {
	if uid == "" {
		return 0, ErrMissingUser
	}
	return s.unread.Total(ctx, uid)
}
