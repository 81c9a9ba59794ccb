package service

import (
	"fmt"
	"slices"
	"strings"
)

const (
	DefaultLimit  = 20
	DefaultOffset = 0
)

func ValidatePage(limit, offset int) error {
	if limit < 1 {
		return fmt.Errorf("%w: limit must be at least 1, got %d", ErrInvalidPagination, limit)
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidPagination, offset)
	}
	return nil
}

// Paginate orders summaries by LastMessageAt descending, then PartnerUID ascending, and returns
// the [offset, offset+limit) slice. It must run on the fully grouped list: slicing raw messages
// before grouping yields short pages and partners repeated across pages.
func Paginate(summaries []ConversationSummary, limit, offset int) ([]ConversationSummary, error) {
	if err := ValidatePage(limit, offset); err != nil {
		return nil, err
	}
	sorted := slices.Clone(summaries)
	slices.SortFunc(sorted, func(a, b ConversationSummary) int {
		if c := b.LastMessageAt.Compare(a.LastMessageAt); c != 0 {
			return c
		}
		return strings.Compare(a.PartnerUID, b.PartnerUID)
	})
	if offset >= len(sorted) {
		return []ConversationSummary{}, nil
	}
	end := len(sorted)
	if limit < end-offset {
		end = offset + limit
	}
	return sorted[offset:end], nil
}
