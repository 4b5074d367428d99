package repositories

import (
	"context"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"gorm.io/gorm"
)

// RegionRepository defines the interface for region data operations
type RegionRepository interface {
	ListRegions(ctx context.Context) ([]models.Region, error)
	GetRegionByID(ctx context.Context, id uint) (*models.Region, error)
	EnsureRegion(ctx context.Context, name string) (*models.Region, error)
}

// PostgresRegionRepository implements RegionRepository for PostgreSQL
type PostgresRegionRepository struct {
	db *gorm.DB
}

// NewPostgresRegionRepository creates a new PostgresRegionRepository
func NewPostgresRegionRepository(db *gorm.DB) *PostgresRegionRepository {
	return &PostgresRegionRepository{db: db}
}

// ListRegions returns all regions ordered by name
func (r *PostgresRegionRepository) ListRegions(ctx context.Context) ([]models.Region, error) {
	var regions []models.Region
	err := r.db.WithContext(ctx).Order("name ASC").Find(&regions).Error
	return regions, err
}

func (r *PostgresRegionRepository) GetRegionByID(ctx context.Context, id uint) (*models.Region, error) {
	var region models.Region
	if err := r.db.WithContext(ctx).First(&region, id).Error; err != nil {
		return nil, err
	}
	return &region, nil
}

// EnsureRegion returns the region named name, creating it when missing
func (r *PostgresRegionRepository) EnsureRegion(ctx context.Context, name string) (*models.Region, error) {
	region := models.Region{Name: name}
	if err := r.db.WithContext(ctx).Where(models.Region{Name: name}).FirstOrCreate(&region).Error; err != nil {
		return nil, err
	}
	return &region, nil
}
