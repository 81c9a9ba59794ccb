package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryAt(uid string, at time.Time) ConversationSummary {
	return ConversationSummary{PartnerUID: uid, LastMessageAt: at}
}

func TestPaginate(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []ConversationSummary{
		summaryAt("carol", t0.Add(5*time.Minute)),
		summaryAt("bob", t0.Add(9*time.Minute)),
		summaryAt("dave", t0.Add(5*time.Minute)),
		summaryAt("alice", t0.Add(1*time.Minute)),
	}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{"first page", 2, 0, []string{"bob", "carol"}},
		{"tie broken by partner uid", 3, 1, []string{"carol", "dave", "alice"}},
		{"limit beyond remainder", 10, 2, []string{"dave", "alice"}},
		{"offset at end", 5, 4, []string{}},
		{"offset beyond end", 5, 40, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Paginate(list, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, partnerUIDs(got))
		})
	}
	// The input slice is left untouched.
	assert.Equal(t, "carol", list[0].PartnerUID)
}

func TestPaginateRejectsInvalidArguments(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		offset int
	}{
		{"zero limit", 0, 0},
		{"negative limit", -3, 0},
		{"negative offset", 5, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Paginate(nil, tt.limit, tt.offset)
			if !errors.Is(err, ErrInvalidPagination) {
				t.Fatalf("err=%v want ErrInvalidPagination", err)
			}
		})
	}
}
