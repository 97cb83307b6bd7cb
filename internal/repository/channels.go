package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/telibelly/telibelly/internal/models"
)

// ChannelsRepository handles channel table operations.
type ChannelsRepository struct {
	db *gorm.DB
}

// NewChannelsRepository creates a new channels repository.
func NewChannelsRepository(db *gorm.DB) *ChannelsRepository {
	return &ChannelsRepository{db: db}
}

// List returns all channels ordered by message count.
func (r *ChannelsRepository) List(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	err := r.db.WithContext(ctx).Order("total_messages DESC").Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

// GetByName returns a channel by its unique name.
func (r *ChannelsRepository) GetByName(ctx context.Context, name string) (*models.Channel, error) {
	var ch models.Channel
	err := r.db.WithContext(ctx).Where("channel_name = ?", name).First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return &ch, nil
}

// Ensure creates the channel row if it does not exist yet.
func (r *ChannelsRepository) Ensure(ctx context.Context, channelID, name string) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Channel{}).
		Where("channel_name = ?", name).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check channel exists: %w", err)
	}
	if count > 0 {
		return nil
	}

	ch := models.Channel{
		ChannelID:           channelID,
		ChannelName:         name,
		LastBackupTimestamp: time.Now().Format(time.RFC3339),
	}
	if err := r.db.WithContext(ctx).Create(&ch).Error; err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	return nil
}

// FetchStatusUpdate carries the machine-written fetch bookkeeping fields.
// Nil fields are left untouched.
type FetchStatusUpdate struct {
	Status    *string
	StartedAt *string
	EndedAt   *string
}

// UpdateFetchStatus applies a fetch status update to the named channel and
// refreshes its backup timestamp.
func (r *ChannelsRepository) UpdateFetchStatus(ctx context.Context, name string, upd FetchStatusUpdate) error {
	fields := map[string]interface{}{
		"last_backup_timestamp": time.Now().Format(time.RFC3339),
	}
	if upd.Status != nil {
		fields["fetchstatus"] = *upd.Status
	}
	if upd.StartedAt != nil {
		fields["fetchedStartedAt"] = *upd.StartedAt
	}
	if upd.EndedAt != nil {
		fields["fetchedEndedAt"] = *upd.EndedAt
	}

	res := r.db.WithContext(ctx).Model(&models.Channel{}).
		Where("channel_name = ?", name).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update fetch status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrChannelNotFound
	}
	return nil
}

// AddMessages bumps the channel's message counter after an ingest pass.
func (r *ChannelsRepository) AddMessages(ctx context.Context, name string, added int) error {
	if added <= 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Channel{}).
		Where("channel_name = ?", name).
		Updates(map[string]interface{}{
			"total_messages":        gorm.Expr("total_messages + ?", added),
			"last_backup_timestamp": time.Now().Format(time.RFC3339),
		})
	if res.Error != nil {
		return fmt.Errorf("add messages: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrChannelNotFound
	}
	return nil
}
