package repositories

import (
	"context"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository stores server-side login sessions
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, key string) (*models.Session, error)
	DeleteSession(ctx context.Context, key string) error
	CountActive(ctx context.Context, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PostgresSessionRepository implements SessionRepository for PostgreSQL
type PostgresSessionRepository struct {
	db *gorm.DB
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository
func NewPostgresSessionRepository(db *gorm.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) CreateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
}

func (r *PostgresSessionRepository) GetSession(ctx context.Context, key string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *PostgresSessionRepository) DeleteSession(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Session{}).Error
}

func (r *PostgresSessionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Session{}).Where("expire_at > ?", now).Count(&count).Error
	return count, err
}

func (r *PostgresSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expire_at <= ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
