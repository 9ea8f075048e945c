package storage

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"relaychat/backend/internal/models"
)

// ErrMessageNotFound is returned when a message id (or a pagination cursor,
// which is a message id) does not resolve to a persisted row.
var ErrMessageNotFound = errors.New("storage: message not found")

const (
	// DefaultPageSize is applied when a listing caller does not specify take.
	DefaultPageSize = 50
	// MaxPageSize caps take for a single listing call.
	MaxPageSize = 100
)

// Storage is the narrow persistence interface the gateway and the request
// handlers depend on. Each call is individually atomic; the store does not
// promise any channel-level exclusivity beyond that.
type Storage interface {
	// SaveMessage persists msg and fills in the store-assigned ID and
	// CreatedAt on the passed value.
	SaveMessage(ctx context.Context, msg *models.Message) error

	// ListMessages returns up to take messages of a channel in descending
	// creation order. A non-empty cursor is the id of the last message the
	// caller has seen; the page starts strictly after it. An unknown cursor
	// yields ErrMessageNotFound.
	ListMessages(ctx context.Context, channel models.ChannelKey, take int, cursor string) ([]models.Message, error)

	// FlushChannel deletes every message of a channel and reports how many
	// rows were removed.
	FlushChannel(ctx context.Context, channel models.ChannelKey) (int64, error)

	// DeleteMessage removes one message by id and returns the deleted row so
	// the caller learns which channel it belonged to. Returns
	// ErrMessageNotFound if no such row exists.
	DeleteMessage(ctx context.Context, id string) (*models.Message, error)
}

// Service implements Storage on top of a relational database through GORM.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// compile-time check to ensure Service implements Storage.
var _ Storage = (*Service)(nil)

func (s *Service) SaveMessage(ctx context.Context, msg *models.Message) error {
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for channel %s: %v", msg.ChannelKey, err)
		return err
	}
	return nil
}

func (s *Service) ListMessages(ctx context.Context, channel models.ChannelKey, take int, cursor string) ([]models.Message, error) {
	if take <= 0 {
		take = DefaultPageSize
	}
	if take > MaxPageSize {
		take = MaxPageSize
	}

	q := s.DB.WithContext(ctx).
		Where("channel_key = ?", channel).
		Order("created_at DESC").
		Order("id DESC").
		Limit(take)

	if cursor != "" {
		var anchor models.Message
		err := s.DB.WithContext(ctx).First(&anchor, "id = ?", cursor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		if err != nil {
			return nil, err
		}
		// Strictly after the anchor in the descending scan; the id tie-break
		// keeps pages gap- and duplicate-free when timestamps collide.
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)",
			anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
	}

	var messages []models.Message
	if err := q.Find(&messages).Error; err != nil {
		log.Printf("ERROR: Failed to list messages for channel %s: %v", channel, err)
		return nil, err
	}
	return messages, nil
}

func (s *Service) FlushChannel(ctx context.Context, channel models.ChannelKey) (int64, error) {
	result := s.DB.WithContext(ctx).
		Where("channel_key = ?", channel).
		Delete(&models.Message{})
	if result.Error != nil {
		log.Printf("ERROR: Failed to flush channel %s: %v", channel, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (s *Service) DeleteMessage(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&msg, "id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Message{}, "id = ?", id)
		if result.Error != nil {
			log.Printf("ERROR: Failed to delete message %s: %v", id, result.Error)
			return result.Error
		}
		// A concurrent delete can win between the read and the delete.
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
