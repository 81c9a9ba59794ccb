package model

import "time"

// Message is a single row of the append-only direct message history. A conversation is the
// unordered pair {SenderUID, RecipientUID}; there is no conversation table.
type Message struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderUID         string    `gorm:"column:sender_uid;size:128;not null;index:idx_messages_sender_recipient,priority:1;index:idx_messages_recipient_sender,priority:3" json:"senderUid"`
	RecipientUID      string    `gorm:"column:recipient_uid;size:128;not null;index:idx_messages_recipient_sender,priority:1;index:idx_messages_sender_recipient,priority:3" json:"recipientUid"`
	Body              string    `gorm:"type:text;not null" json:"body"`
	ListingID         *uint64   `gorm:"column:listing_id;index" json:"listingId,omitempty"`
	IsReadByRecipient bool      `gorm:"column:is_read_by_recipient;not null;default:false" json:"isReadByRecipient"`
	IsDeleted         bool      `gorm:"column:is_deleted;not null;default:false;index:idx_messages_sender_recipient,priority:2;index:idx_messages_recipient_sender,priority:2" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// Counterpart returns the other participant of the message relative to uid.
func (m Message) Counterpart(uid string) string {
	if m.SenderUID == uid {
		return m.RecipientUID
	}
	return m.SenderUID
}
