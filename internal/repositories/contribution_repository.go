package repositories

import (
	"context"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContributionRepository defines the interface for contribution data operations.
// Every list is ordered newest first.
type ContributionRepository interface {
	CreateContribution(ctx context.Context, contribution *models.Contribution) error
	GetContributionByID(ctx context.Context, id uint) (*models.Contribution, error)
	ListAll(ctx context.Context) ([]models.Contribution, error)
	// ListPersonal returns contributions by authors userID follows or in one of categories
	ListPersonal(ctx context.Context, userID uint, categories []models.Category) ([]models.Contribution, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Contribution, error)
	CountContributions(ctx context.Context) (int64, error)
}

// PostgresContributionRepository implements ContributionRepository for PostgreSQL
type PostgresContributionRepository struct {
	db *gorm.DB
}

// NewPostgresContributionRepository creates a new PostgresContributionRepository
func NewPostgresContributionRepository(db *gorm.DB) *PostgresContributionRepository {
	return &PostgresContributionRepository{db: db}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").
		Preload("Region").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Comments.Author")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("submitted_at DESC, id DESC")
}

func (r *PostgresContributionRepository) CreateContribution(ctx context.Context, contribution *models.Contribution) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(contribution).Error
}

func (r *PostgresContributionRepository) GetContributionByID(ctx context.Context, id uint) (*models.Contribution, error) {
	var contribution models.Contribution
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Region").First(&contribution, id).Error; err != nil {
		return nil, err
	}
	return &contribution, nil
}

func (r *PostgresContributionRepository) ListAll(ctx context.Context) ([]models.Contribution, error) {
	var contributions []models.Contribution
	err := r.db.WithContext(ctx).Scopes(withDetails, newestFirst).Find(&contributions).Error
	return contributions, err
}

func (r *PostgresContributionRepository) ListPersonal(ctx context.Context, userID uint, categories []models.Category) ([]models.Contribution, error) {
	followed := r.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", userID)

	q := r.db.WithContext(ctx).Scopes(withDetails, newestFirst).Where("author_id IN (?)", followed)
	if len(categories) > 0 {
		codes := make([]string, len(categories))
		for i, c := range categories {
			codes[i] = string(c)
		}
		q = q.Or("category IN ?", codes)
	}

	var contributions []models.Contribution
	err := q.Find(&contributions).Error
	return contributions, err
}

func (r *PostgresContributionRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Contribution, error) {
	var contributions []models.Contribution
	err := r.db.WithContext(ctx).Scopes(withDetails, newestFirst).Where("author_id = ?", authorID).Find(&contributions).Error
	return contributions, err
}

func (r *PostgresContributionRepository) CountContributions(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Contribution{}).Count(&count).Error
	return count, err
}
