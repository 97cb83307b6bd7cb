// Package repository implements archive persistence on top of GORM/sqlite.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/telibelly/telibelly/internal/models"
)

// errors
var (
	ErrMessageNotFound = errors.New("message not found")
	ErrChannelNotFound = errors.New("channel not found")
)

// MessageFilter narrows a message listing.
type MessageFilter struct {
	Channel   string
	Search    string // matches translated text or sender name
	StartDate string
	EndDate   string
	OnlyRead  bool
	OnlyLiked bool
	Trashed   bool // when false, trashed messages are hidden
	Limit     int
	Offset    int
}

// MessagesRepository handles message table operations.
type MessagesRepository struct {
	db *gorm.DB
}

// NewMessagesRepository creates a new messages repository.
func NewMessagesRepository(db *gorm.DB) *MessagesRepository {
	return &MessagesRepository{db: db}
}

// List returns messages matching the filter, newest first.
func (r *MessagesRepository) List(ctx context.Context, f MessageFilter) ([]models.Message, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&models.Message{})

	if f.Channel != "" {
		q = q.Where("channel_name = ?", f.Channel)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("text_translated LIKE ? OR sender_name LIKE ?", pattern, pattern)
	}
	if f.StartDate != "" {
		q = q.Where("datetime_local >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("datetime_local <= ?", f.EndDate)
	}
	if f.OnlyRead {
		q = q.Where(`"read" = ?`, true)
	}
	if f.OnlyLiked {
		q = q.Where(`"like" = ?`, true)
	}
	if f.Trashed {
		q = q.Where("trashed_at IS NOT NULL")
	} else {
		q = q.Where("trashed_at IS NULL")
	}

	var messages []models.Message
	err := q.Order("datetime_local DESC").Limit(limit).Offset(f.Offset).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// GetByID returns a single message.
func (r *MessagesRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &msg, nil
}

// Upsert inserts a message unless one with the same channel and message id
// already exists. Returns true when a new row was created.
func (r *MessagesRepository) Upsert(ctx context.Context, msg *models.Message) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("channel_id = ? AND message_id = ?", msg.ChannelID, msg.MessageID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check message exists: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if msg.AddedAt == "" {
		msg.AddedAt = time.Now().Format(models.TimestampFormat)
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return false, fmt.Errorf("create message: %w", err)
	}
	return true, nil
}

// MarkRead sets the read flag. Idempotent; there is no unmark path.
func (r *MessagesRepository) MarkRead(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", id).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("mark read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// ToggleLike flips the like flag and returns the new value.
func (r *MessagesRepository) ToggleLike(ctx context.Context, id int64) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		if err := tx.First(&msg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMessageNotFound
			}
			return err
		}

		liked = !msg.Liked
		return tx.Model(&msg).Update("like", liked).Error
	})
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return false, err
		}
		return false, fmt.Errorf("toggle like: %w", err)
	}
	return liked, nil
}

// trash toggle results
const (
	ActionTrashed  = "trashed"
	ActionRestored = "restored"
)

// ToggleTrash flips whether the message is trashed and returns the action
// taken ("trashed" or "restored").
func (r *MessagesRepository) ToggleTrash(ctx context.Context, id int64) (string, error) {
	var action string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		if err := tx.First(&msg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMessageNotFound
			}
			return err
		}

		if msg.TrashedAt == nil {
			now := time.Now()
			action = ActionTrashed
			return tx.Model(&msg).Update("trashed_at", &now).Error
		}
		action = ActionRestored
		return tx.Model(&msg).Update("trashed_at", nil).Error
	})
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return "", err
		}
		return "", fmt.Errorf("toggle trash: %w", err)
	}
	return action, nil
}

// SetTags replaces the message's tag set wholesale with the normalized
// contents of tagsCsv and keeps the reverse tag index in sync.
// Returns the normalized tag string as stored.
func (r *MessagesRepository) SetTags(ctx context.Context, id int64, tagsCsv string) (string, error) {
	normalized := models.NormalizeTags(tagsCsv)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		if err := tx.First(&msg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMessageNotFound
			}
			return err
		}

		oldTags := models.ParseTags(msg.Tags)
		newTags := models.ParseTags(normalized)

		if err := tx.Model(&msg).Update("tags", normalized).Error; err != nil {
			return err
		}

		for _, name := range oldTags {
			if err := removeFromTagIndex(tx, name, id); err != nil {
				return err
			}
		}
		for _, name := range newTags {
			if err := addToTagIndex(tx, name, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return "", err
		}
		return "", fmt.Errorf("set tags: %w", err)
	}
	return normalized, nil
}

// removeFromTagIndex takes the message id out of a tag's id list,
// deleting the tag row when it becomes empty.
func removeFromTagIndex(tx *gorm.DB, name string, id int64) error {
	var tag models.Tag
	err := tx.Where("name = ?", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	ids := splitIDList(tag.MessageIDs)
	filtered := ids[:0]
	for _, mid := range ids {
		if mid != id {
			filtered = append(filtered, mid)
		}
	}

	if len(filtered) == 0 {
		return tx.Delete(&tag).Error
	}
	return tx.Model(&tag).Update("message_ids", joinIDList(filtered)).Error
}

// addToTagIndex adds the message id to a tag's id list, creating the tag
// row when missing.
func addToTagIndex(tx *gorm.DB, name string, id int64) error {
	var tag models.Tag
	err := tx.Where("name = ?", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.Tag{Name: name, MessageIDs: strconv.FormatInt(id, 10)}).Error
	}
	if err != nil {
		return err
	}

	ids := splitIDList(tag.MessageIDs)
	for _, mid := range ids {
		if mid == id {
			return nil
		}
	}
	ids = append(ids, id)
	return tx.Model(&tag).Update("message_ids", joinIDList(ids)).Error
}

func splitIDList(csv string) []int64 {
	var ids []int64
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func joinIDList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
