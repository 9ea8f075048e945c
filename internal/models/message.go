package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message represents a persisted chat message. The store owns the row; the
// gateway only holds transient copies for broadcast. Rows are immutable after
// creation except for deletion by moderation.
type Message struct {
	// ID is the store-assigned opaque identifier, also used as the
	// pagination cursor by the history endpoint.
	ID string `gorm:"primaryKey" json:"id"`
	// ChannelKey is the channel the message belongs to.
	ChannelKey ChannelKey `gorm:"type:text;not null;index:idx_channel_created" json:"channelKey"`
	// AuthorID is the subject id of the sending principal.
	AuthorID string `gorm:"type:text;not null" json:"authorId"`
	// AuthorRole is the sending principal's role at the time of posting.
	AuthorRole Role `gorm:"type:text;not null" json:"authorRole"`
	// Content is the trimmed message body, 1..500 characters.
	Content string `gorm:"type:text;not null" json:"content"`
	// CreatedAt is store-generated and drives the descending history scan.
	CreatedAt time.Time `gorm:"index:idx_channel_created" json:"createdAt"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the ID is not
// already set.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
