package service

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidPagination is returned before any store access when limit or offset is out of range.
	ErrInvalidPagination = errors.New("invalid pagination")
	// ErrConversationsUnavailable is returned when partners were found but every lookup failed.
	ErrConversationsUnavailable = errors.New("conversations unavailable")
)

// ConversationSummary is one inbox row: a partner plus the latest message exchanged with them.
// It is rebuilt from the message history on every request.
type ConversationSummary struct {
	PartnerUID           string
	PartnerDisplayName   string
	PartnerAvatarURL     *string
	LastMessageID        uint64
	LastMessageText      string
	LastMessageAt        time.Time
	LastMessageSenderUID string
	UnreadCount          int64
	ListingID            *uint64
	ListingTitle         *string
}

type DisplayInfo struct {
	Name      string
	AvatarURL *string
}

// UserDirectory resolves partner display info. Unknown users yield a placeholder, not an error.
type UserDirectory interface {
	DisplayInfo(ctx context.Context, uid string) (DisplayInfo, error)
}

// ListingDirectory resolves listing titles. ok is false when the listing does not exist.
type ListingDirectory interface {
	ListingTitle(ctx context.Context, id uint64) (title string, ok bool, err error)
}
