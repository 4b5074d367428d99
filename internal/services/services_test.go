package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/repositories/memstore"
	"github.com/anonto42/regional-voices/backend/pkg/logger"
	"github.com/anonto42/regional-voices/backend/pkg/media"
	"github.com/anonto42/regional-voices/backend/pkg/messaging"
	"github.com/anonto42/regional-voices/backend/validators"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

// now advances one second per call so every write gets a distinct timestamp
func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.NotificationEvent
	err    error
}

func (p *recordingPublisher) PublishNotification(_ context.Context, e messaging.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type fixture struct {
	store     *memstore.Store
	clock     *fakeClock
	publisher *recordingPublisher
	mediaRoot string
	identity  *IdentityService
	content   *ContentService
	feed      *FeedService
	social    *SocialService
	dashboard *DashboardService
	region    *models.Region
}

func newFixture(t *testing.T, policy string) *fixture {
	t.Helper()
	store := memstore.New()
	log := logger.Discard()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	publisher := &recordingPublisher{}

	v := validators.NewValidator()
	mediaRoot := t.TempDir()
	mediaStore, err := media.NewLocalStore(mediaRoot)
	require.NoError(t, err)

	f := &fixture{
		store:     store,
		clock:     clock,
		publisher: publisher,
		mediaRoot: mediaRoot,
		identity:  NewIdentityService(store, store, v, 14*24*time.Hour, log),
		content:   NewContentService(store, store, mediaStore, v, "", log),
		feed:      NewFeedService(store, store, store, store, policy),
		social: NewSocialService(SocialRepositories{
			Contributions: store,
			Likes:         store,
			Comments:      store,
			Follows:       store,
			Users:         store,
			Notifications: store,
		}, publisher, log),
		dashboard: NewDashboardService(store, store, store, store),
	}
	f.identity.hashCost = bcrypt.MinCost
	f.identity.now = clock.now
	f.content.now = clock.now
	f.social.now = clock.now
	f.dashboard.now = clock.now

	f.region, err = store.EnsureRegion(context.Background(), "Telangana")
	require.NoError(t, err)
	return f
}

func (f *fixture) register(t *testing.T, handle string) *models.User {
	t.Helper()
	user, err := f.identity.Register(context.Background(), models.RegisterForm{
		Handle:   handle,
		Email:    handle + "@example.com",
		Password: "s3cret-pass",
		Confirm:  "s3cret-pass",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) post(t *testing.T, author *models.User, category models.Category) *models.Contribution {
	t.Helper()
	c, err := f.content.CreateContribution(context.Background(), author, ContributionInput{
		RegionID: f.region.ID,
		Category: string(category),
		Text:     "Bathukamma festival",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) notificationsFor(t *testing.T, user *models.User) []models.Notification {
	t.Helper()
	list, err := f.social.Notifications(context.Background(), user)
	require.NoError(t, err)
	return list
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	require.Contains(t, verr.Fields, field)
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf), "expected NotFoundError, got %v", err)
}
