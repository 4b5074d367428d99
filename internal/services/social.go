package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/repositories"
	"github.com/anonto42/regional-voices/backend/pkg/messaging"
	"github.com/anonto42/regional-voices/backend/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// LikeResult is returned by the like endpoint as JSON
type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// SocialService toggles likes and follows, adds comments and manages notifications
type SocialService struct {
	contributions repositories.ContributionRepository
	likes         repositories.LikeRepository
	comments      repositories.CommentRepository
	follows       repositories.FollowRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	publisher     messaging.Publisher
	log           *logrus.Logger
	now           func() time.Time
}

// SocialRepositories groups the stores SocialService writes to
type SocialRepositories struct {
	Contributions repositories.ContributionRepository
	Likes         repositories.LikeRepository
	Comments      repositories.CommentRepository
	Follows       repositories.FollowRepository
	Users         repositories.UserRepository
	Notifications repositories.NotificationRepository
}

// NewSocialService creates a SocialService. A nil publisher drops events.
func NewSocialService(repos SocialRepositories, publisher messaging.Publisher, log *logrus.Logger) *SocialService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &SocialService{
		contributions: repos.Contributions,
		likes:         repos.Likes,
		comments:      repos.Comments,
		follows:       repos.Follows,
		users:         repos.Users,
		notifications: repos.Notifications,
		publisher:     publisher,
		log:           log,
		now:           time.Now,
	}
}

// ToggleLike adds the user to the contribution's liking set or removes them.
// The returned count is read back from the store after the change.
func (s *SocialService) ToggleLike(ctx context.Context, user *models.User, contributionID uint) (*LikeResult, error) {
	contribution, err := s.contributions.GetContributionByID(ctx, contributionID)
	if err != nil {
		return nil, notFound(err, "contribution")
	}

	liked, err := s.likes.HasUserLiked(ctx, contributionID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("check like: %w", err)
	}

	if liked {
		if err := s.likes.RemoveLike(ctx, contributionID, user.ID); err != nil {
			return nil, fmt.Errorf("remove like: %w", err)
		}
	} else {
		if err := s.likes.AddLike(ctx, contributionID, user.ID); err != nil {
			return nil, fmt.Errorf("add like: %w", err)
		}
		if contribution.AuthorID != user.ID {
			s.emit(ctx, contribution.AuthorID, user, models.VerbLiked, &contribution.ID)
		}
	}
	metrics.RecordLike(!liked)

	count, err := s.likes.CountLikes(ctx, contributionID)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	return &LikeResult{Liked: !liked, LikesCount: count}, nil
}

// AddComment stores a comment. Blank text is ignored and returns a nil comment.
func (s *SocialService) AddComment(ctx context.Context, user *models.User, contributionID uint, text string) (*models.Comment, error) {
	contribution, err := s.contributions.GetContributionByID(ctx, contributionID)
	if err != nil {
		return nil, notFound(err, "contribution")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	comment := &models.Comment{
		ContributionID: contributionID,
		AuthorID:       user.ID,
		Text:           text,
		CreatedAt:      s.now(),
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	metrics.CommentsCreated.Inc()

	if contribution.AuthorID != user.ID {
		s.emit(ctx, contribution.AuthorID, user, models.VerbCommented, &contribution.ID)
	}
	return comment, nil
}

// ToggleFollow follows or unfollows followeeID and reports the resulting state
func (s *SocialService) ToggleFollow(ctx context.Context, follower *models.User, followeeID uint) (bool, error) {
	if follower.ID == followeeID {
		return false, newValidationError("__all__", "You cannot follow yourself.")
	}
	if _, err := s.users.GetUserByID(ctx, followeeID); err != nil {
		return false, notFound(err, "user")
	}

	following, err := s.follows.IsFollowing(ctx, follower.ID, followeeID)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}

	if following {
		if err := s.follows.DeleteFollow(ctx, follower.ID, followeeID); err != nil {
			return false, fmt.Errorf("unfollow: %w", err)
		}
	} else {
		follow := &models.Follow{FollowerID: follower.ID, FollowingID: followeeID, CreatedAt: s.now()}
		if err := s.follows.CreateFollow(ctx, follow); err != nil {
			return false, fmt.Errorf("follow: %w", err)
		}
		s.emit(ctx, followeeID, follower, models.VerbFollowed, nil)
	}
	metrics.RecordFollow(!following)
	return !following, nil
}

// Notifications returns the user's notifications, newest first
func (s *SocialService) Notifications(ctx context.Context, user *models.User) ([]models.Notification, error) {
	return s.notifications.ListByRecipient(ctx, user.ID)
}

// UnreadCount returns how many of the user's notifications are unread
func (s *SocialService) UnreadCount(ctx context.Context, user *models.User) (int64, error) {
	return s.notifications.GetUnreadCount(ctx, user.ID)
}

// MarkNotificationRead flips one of the user's notifications to read. Other
// users' notifications are reported as not found.
func (s *SocialService) MarkNotificationRead(ctx context.Context, user *models.User, notificationID uint) (*models.Notification, error) {
	notification, err := s.notifications.GetForRecipient(ctx, notificationID, user.ID)
	if err != nil {
		return nil, notFound(err, "notification")
	}
	if notification.IsRead {
		return notification, nil
	}
	if err := s.notifications.MarkAsRead(ctx, notificationID, user.ID); err != nil {
		return nil, notFound(err, "notification")
	}
	notification.IsRead = true
	return notification, nil
}

// MarkAllNotificationsRead marks every unread notification of the user as read
func (s *SocialService) MarkAllNotificationsRead(ctx context.Context, user *models.User) (int64, error) {
	return s.notifications.MarkAllAsRead(ctx, user.ID)
}

// emit stores a notification and publishes it. Failures are logged; the
// triggering action has already succeeded.
func (s *SocialService) emit(ctx context.Context, recipientID uint, sender *models.User, verb string, targetID *uint) {
	senderID := sender.ID
	notification := &models.Notification{
		RecipientID: recipientID,
		SenderID:    &senderID,
		Verb:        verb,
		TargetID:    targetID,
		Timestamp:   s.now(),
	}
	entry := s.log.WithFields(logrus.Fields{"recipient_id": recipientID, "sender_id": senderID, "verb": verb})

	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		entry.WithError(err).Error("Failed to store notification")
		return
	}
	metrics.NotificationsEmitted.WithLabelValues(verb).Inc()

	event := messaging.NotificationEvent{
		NotificationID: notification.ID,
		RecipientID:    recipientID,
		SenderID:       notification.SenderID,
		Verb:           verb,
		TargetID:       targetID,
		Timestamp:      notification.Timestamp,
	}
	if err := s.publisher.PublishNotification(ctx, event); err != nil {
		entry.WithError(err).Warn("Failed to publish notification event")
	}
}
