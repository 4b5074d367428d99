package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/repositories"
	"github.com/anonto42/regional-voices/backend/pkg/config"
	"gorm.io/gorm"
)

// FeedItem is a contribution as one viewer sees it
type FeedItem struct {
	Contribution models.Contribution
	LikesCount   int64
	Liked        bool
}

// PublicProfile is another user's page
type PublicProfile struct {
	User        *models.User
	Items       []FeedItem
	Followers   int64
	Following   int64
	IsFollowing bool
	IsSelf      bool
}

// FeedService composes the personal, global and per-author feeds
type FeedService struct {
	contributions repositories.ContributionRepository
	likes         repositories.LikeRepository
	follows       repositories.FollowRepository
	users         repositories.UserRepository
	policy        string
}

// NewFeedService creates a FeedService. policy selects what Home serves.
func NewFeedService(contributions repositories.ContributionRepository, likes repositories.LikeRepository, follows repositories.FollowRepository, users repositories.UserRepository, policy string) *FeedService {
	return &FeedService{
		contributions: contributions,
		likes:         likes,
		follows:       follows,
		users:         users,
		policy:        policy,
	}
}

// Policy returns the home feed policy
func (s *FeedService) Policy() string {
	return s.policy
}

// Home serves the feed selected by the configured policy
func (s *FeedService) Home(ctx context.Context, viewer *models.User) ([]FeedItem, error) {
	if s.policy == config.FeedPolicyGlobal {
		return s.GlobalFeed(ctx, viewer)
	}
	return s.PersonalFeed(ctx, viewer)
}

// PersonalFeed returns contributions by authors the viewer follows or in the
// viewer's followed categories, newest first. Each contribution appears once.
func (s *FeedService) PersonalFeed(ctx context.Context, viewer *models.User) ([]FeedItem, error) {
	var categories []models.Category
	if viewer.Profile != nil {
		categories = viewer.Profile.FollowedCategories
	} else {
		profile, err := s.users.GetProfile(ctx, viewer.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		if profile != nil {
			categories = profile.FollowedCategories
		}
	}

	contributions, err := s.contributions.ListPersonal(ctx, viewer.ID, categories)
	if err != nil {
		return nil, fmt.Errorf("list personal feed: %w", err)
	}
	return s.decorate(ctx, viewer, contributions)
}

// GlobalFeed returns every contribution, newest first
func (s *FeedService) GlobalFeed(ctx context.Context, viewer *models.User) ([]FeedItem, error) {
	contributions, err := s.contributions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list global feed: %w", err)
	}
	return s.decorate(ctx, viewer, contributions)
}

// UserContributions returns the author's contributions, newest first
func (s *FeedService) UserContributions(ctx context.Context, author, viewer *models.User) ([]FeedItem, error) {
	contributions, err := s.contributions.ListByAuthor(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("list contributions by author: %w", err)
	}
	return s.decorate(ctx, viewer, contributions)
}

// PublicProfile loads the page of the user with the given handle. viewer may be nil.
func (s *FeedService) PublicProfile(ctx context.Context, handle string, viewer *models.User) (*PublicProfile, error) {
	user, err := s.users.GetUserByHandle(ctx, handle)
	if err != nil {
		return nil, notFound(err, "user")
	}

	items, err := s.UserContributions(ctx, user, viewer)
	if err != nil {
		return nil, err
	}

	page := &PublicProfile{User: user, Items: items}
	if page.Followers, err = s.follows.GetFollowersCount(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}
	if page.Following, err = s.follows.GetFollowingCount(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("count following: %w", err)
	}
	if viewer != nil {
		page.IsSelf = viewer.ID == user.ID
		if !page.IsSelf {
			if page.IsFollowing, err = s.follows.IsFollowing(ctx, viewer.ID, user.ID); err != nil {
				return nil, fmt.Errorf("check follow: %w", err)
			}
		}
	}
	return page, nil
}

func (s *FeedService) decorate(ctx context.Context, viewer *models.User, contributions []models.Contribution) ([]FeedItem, error) {
	ids := make([]uint, len(contributions))
	for i, c := range contributions {
		ids[i] = c.ID
	}

	counts, err := s.likes.CountLikesFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	liked := map[uint]bool{}
	if viewer != nil {
		if liked, err = s.likes.LikedByUser(ctx, viewer.ID, ids); err != nil {
			return nil, fmt.Errorf("load liked: %w", err)
		}
	}

	items := make([]FeedItem, len(contributions))
	for i, c := range contributions {
		items[i] = FeedItem{Contribution: c, LikesCount: counts[c.ID], Liked: liked[c.ID]}
	}
	return items, nil
}
