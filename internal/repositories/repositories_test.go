package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestUserRepository_CreateUserWithProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()

	user := &models.User{Handle: "ravi", Email: "ravi@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.CreateUserWithProfile(context.Background(), user))

	assert.Equal(t, uint(1), user.ID)
	require.NotNil(t, user.Profile)
	assert.Equal(t, uint(1), user.Profile.UserID)
	assert.Empty(t, user.Profile.FollowedCategories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUserWithProfile_RollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "profiles"`).
		WillReturnError(gorm.ErrInvalidDB)
	mock.ExpectRollback()

	err := repo.CreateUserWithProfile(context.Background(), &models.User{Handle: "ravi"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_HandleExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE LOWER\(handle\) = LOWER\(\$1\)`).
		WithArgs("Ravi").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.HandleExists(context.Background(), "Ravi")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetStaff_UnknownHandle(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectExec(`UPDATE "users" SET "is_staff"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStaff(context.Background(), "ghost", true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegionRepository_ListRegions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresRegionRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "regions" ORDER BY name ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(2, "Andhra Pradesh").
			AddRow(1, "Telangana"))

	regions, err := repo.ListRegions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, "Andhra Pradesh", regions[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepository_ListByAuthor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresContributionRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "contributions" WHERE author_id = \$1 ORDER BY submitted_at DESC, id DESC`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "region_id", "category", "text", "submitted_at"}))

	items, err := repo.ListByAuthor(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepository_ListPersonal(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresContributionRepository(db)

	mock.ExpectQuery(`FROM "contributions" WHERE .*author_id IN \(SELECT "following_id" FROM "follows" WHERE follower_id = \$1\).*OR category IN \(\$2,\$3\).*ORDER BY submitted_at DESC, id DESC`).
		WithArgs(3, "FOOD", "DANCE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ListPersonal(context.Background(), 3, []models.Category{models.CategoryFood, models.CategoryDance})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepository_ListPersonal_NoCategories(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresContributionRepository(db)

	mock.ExpectQuery(`FROM "contributions" WHERE author_id IN \(SELECT "following_id" FROM "follows" WHERE follower_id = \$1\) ORDER BY`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ListPersonal(context.Background(), 3, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_AddLikeIgnoresDuplicates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresLikeRepository(db)

	mock.ExpectExec(`INSERT INTO "likes" .*ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AddLike(context.Background(), 5, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_CountLikes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresLikeRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "likes" WHERE contribution_id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountLikes(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_EmptyBatchesSkipQueries(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresLikeRepository(db)

	counts, err := repo.CountLikesFor(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)

	liked, err := repo.LikedByUser(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_IsFollowing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresFollowRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "follows" WHERE follower_id = \$1 AND following_id = \$2`).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	following, err := repo.IsFollowing(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, following)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAsReadForeignRecipient(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresNotificationRepository(db)

	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=\$1 WHERE id = \$2 AND recipient_id = \$3`).
		WithArgs(true, 7, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkAsRead(context.Background(), 7, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_GetUnreadCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresNotificationRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "notifications" WHERE recipient_id = \$1 AND is_read = \$2`).
		WithArgs(2, false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.GetUnreadCount(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_CountActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSessionRepository(db)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "sessions" WHERE expire_at > \$1`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountActive(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
