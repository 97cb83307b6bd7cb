package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/telibelly/telibelly/internal/models"
)

// ArchiveStats summarizes the stored archive.
type ArchiveStats struct {
	TotalMessages int64     `json:"total_messages"`
	TotalChannels int64     `json:"total_channels"`
	DateRange     DateRange `json:"date_range"`
}

// DateRange is the span of local message timestamps in the archive.
type DateRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// StatsRepository computes archive aggregates.
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get returns current archive statistics.
func (r *StatsRepository) Get(ctx context.Context) (*ArchiveStats, error) {
	stats := &ArchiveStats{}

	if err := r.db.WithContext(ctx).Model(&models.Message{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Channel{}).Count(&stats.TotalChannels).Error; err != nil {
		return nil, fmt.Errorf("count channels: %w", err)
	}

	row := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("MIN(datetime_local) AS earliest, MAX(datetime_local) AS latest").
		Row()

	var earliest, latest *string
	if err := row.Scan(&earliest, &latest); err != nil {
		return nil, fmt.Errorf("scan date range: %w", err)
	}
	if earliest != nil {
		stats.DateRange.Earliest = *earliest
	}
	if latest != nil {
		stats.DateRange.Latest = *latest
	}

	return stats, nil
}
