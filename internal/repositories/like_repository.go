package repositories

import (
	"context"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for the contribution liking set
type LikeRepository interface {
	HasUserLiked(ctx context.Context, contributionID, userID uint) (bool, error)
	// AddLike is idempotent: an existing membership is left untouched
	AddLike(ctx context.Context, contributionID, userID uint) error
	RemoveLike(ctx context.Context, contributionID, userID uint) error
	CountLikes(ctx context.Context, contributionID uint) (int64, error)
	CountLikesFor(ctx context.Context, contributionIDs []uint) (map[uint]int64, error)
	LikedByUser(ctx context.Context, userID uint, contributionIDs []uint) (map[uint]bool, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) HasUserLiked(ctx context.Context, contributionID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("contribution_id = ? AND user_id = ?", contributionID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresLikeRepository) AddLike(ctx context.Context, contributionID, userID uint) error {
	like := &models.Like{ContributionID: contributionID, UserID: userID, CreatedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(like).Error
}

func (r *PostgresLikeRepository) RemoveLike(ctx context.Context, contributionID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("contribution_id = ? AND user_id = ?", contributionID, userID).
		Delete(&models.Like{}).Error
}

func (r *PostgresLikeRepository) CountLikes(ctx context.Context, contributionID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("contribution_id = ?", contributionID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresLikeRepository) CountLikesFor(ctx context.Context, contributionIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(contributionIDs))
	if len(contributionIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ContributionID uint
		Total          int64
	}
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("contribution_id, COUNT(*) AS total").
		Where("contribution_id IN ?", contributionIDs).
		Group("contribution_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ContributionID] = row.Total
	}
	return counts, nil
}

func (r *PostgresLikeRepository) LikedByUser(ctx context.Context, userID uint, contributionIDs []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(contributionIDs))
	if len(contributionIDs) == 0 {
		return liked, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND contribution_id IN ?", userID, contributionIDs).
		Pluck("contribution_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
