package repository

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/shinyyama/marketplace-inbox/internal/model"
	"gorm.io/gorm"
)

// UIDField names a participant column for DistinctUIDs.
type UIDField string

const (
	FieldSender    UIDField = "sender_uid"
	FieldRecipient UIDField = "recipient_uid"
)

// Pair is an unordered pair of participants.
type Pair struct {
	A string
	B string
}

// MessageFilter describes a read over the messages table. Deleted rows are excluded unless
// IncludeDeleted is set. Empty fields do not constrain the query.
type MessageFilter struct {
	SenderUIDs     []string
	RecipientUIDs  []string
	NotSenderUIDs  []string
	Participant    string // sender or recipient
	Pair           *Pair  // either direction between A and B
	UnreadOnly     bool
	IncludeDeleted bool
	NewestFirst    bool // created_at DESC, id DESC
	Limit          int
}

// MessageStore is the read surface the inbox engine consumes, plus the writes used by seeding.
type MessageStore interface {
	FindMessages(ctx context.Context, f MessageFilter) ([]model.Message, error)
	CountMessages(ctx context.Context, f MessageFilter) (int64, error)
	DistinctUIDs(ctx context.Context, field UIDField, f MessageFilter) ([]string, error)
	CountBySender(ctx context.Context, f MessageFilter) (map[string]int64, error)
	Create(ctx context.Context, msg *model.Message) error
	SoftDelete(ctx context.Context, id uint64) error
	SetDB(db *gorm.DB)
}

type messageRepository struct {
	db atomic.Pointer[gorm.DB]
}

func NewMessageRepository(db *gorm.DB) MessageStore {
	r := &messageRepository{}
	r.db.Store(db)
	return r
}

// SetDB swaps the connection once the database becomes reachable after startup.
func (r *messageRepository) SetDB(db *gorm.DB) {
	r.db.Store(db)
}

func (r *messageRepository) query(ctx context.Context, f MessageFilter) (*gorm.DB, error) {
	db := r.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	q := db.WithContext(ctx).Model(&model.Message{})
	if !f.IncludeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	if len(f.SenderUIDs) > 0 {
		q = q.Where("sender_uid IN ?", f.SenderUIDs)
	}
	if len(f.RecipientUIDs) > 0 {
		q = q.Where("recipient_uid IN ?", f.RecipientUIDs)
	}
	if len(f.NotSenderUIDs) > 0 {
		q = q.Where("sender_uid NOT IN ?", f.NotSenderUIDs)
	}
	if f.Participant != "" {
		q = q.Where("(sender_uid = ? OR recipient_uid = ?)", f.Participant, f.Participant)
	}
	if f.Pair != nil {
		q = q.Where("((sender_uid = ? AND recipient_uid = ?) OR (sender_uid = ? AND recipient_uid = ?))",
			f.Pair.A, f.Pair.B, f.Pair.B, f.Pair.A)
	}
	if f.UnreadOnly {
		q = q.Where("is_read_by_recipient = ?", false)
	}
	return q, nil
}

func (r *messageRepository) FindMessages(ctx context.Context, f MessageFilter) ([]model.Message, error) {
	q, err := r.query(ctx, f)
	if err != nil {
		return nil, err
	}
	if f.NewestFirst {
		q = q.Order("created_at DESC").Order("id DESC")
	} else {
		q = q.Order("created_at ASC").Order("id ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var msgs []model.Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, wrapStoreErr(err)
	}
	return msgs, nil
}

func (r *messageRepository) CountMessages(ctx context.Context, f MessageFilter) (int64, error) {
	q, err := r.query(ctx, f)
	if err != nil {
		return 0, err
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return 0, wrapStoreErr(err)
	}
	return cnt, nil
}

func (r *messageRepository) DistinctUIDs(ctx context.Context, field UIDField, f MessageFilter) ([]string, error) {
	if field != FieldSender && field != FieldRecipient {
		return nil, fmt.Errorf("unsupported uid field %q", field)
	}
	q, err := r.query(ctx, f)
	if err != nil {
		return nil, err
	}
	var uids []string
	if err := q.Distinct().Pluck(string(field), &uids).Error; err != nil {
		return nil, wrapStoreErr(err)
	}
	return uids, nil
}

type senderCount struct {
	SenderUID string `gorm:"column:sender_uid"`
	Total     int64  `gorm:"column:total"`
}

func (r *messageRepository) CountBySender(ctx context.Context, f MessageFilter) (map[string]int64, error) {
	q, err := r.query(ctx, f)
	if err != nil {
		return nil, err
	}
	var rows []senderCount
	if err := q.Select("sender_uid, COUNT(*) AS total").Group("sender_uid").Scan(&rows).Error; err != nil {
		return nil, wrapStoreErr(err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.SenderUID] = row.Total
	}
	return out, nil
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	return wrapStoreErr(db.WithContext(ctx).Create(msg).Error)
}

func (r *messageRepository) SoftDelete(ctx context.Context, id uint64) error {
	db := r.db.Load()
	if db == nil {
		return ErrDBNotReady
	}
	res := db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return wrapStoreErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
