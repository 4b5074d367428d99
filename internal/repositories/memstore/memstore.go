// Package memstore keeps every repository in process memory. It backs the
// service and handler tests and mirrors the PostgreSQL repositories, including
// their gorm.ErrRecordNotFound and gorm.ErrDuplicatedKey errors.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/repositories"
	"gorm.io/gorm"
)

type likeKey struct {
	contributionID uint
	userID         uint
}

type followKey struct {
	followerID  uint
	followingID uint
}

// Store implements all repository interfaces over maps guarded by one mutex
type Store struct {
	mu sync.RWMutex

	users         map[uint]*models.User
	profiles      map[uint]*models.Profile
	regions       map[uint]*models.Region
	contributions map[uint]*models.Contribution
	comments      []models.Comment
	likes         map[likeKey]time.Time
	follows       map[followKey]models.Follow
	notifications map[uint]*models.Notification
	sessions      map[string]*models.Session

	seq uint
}

// New returns an empty Store
func New() *Store {
	return &Store{
		users:         make(map[uint]*models.User),
		profiles:      make(map[uint]*models.Profile),
		regions:       make(map[uint]*models.Region),
		contributions: make(map[uint]*models.Contribution),
		likes:         make(map[likeKey]time.Time),
		follows:       make(map[followKey]models.Follow),
		notifications: make(map[uint]*models.Notification),
		sessions:      make(map[string]*models.Session),
	}
}

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// Users

func (s *Store) CreateUserWithProfile(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Handle == user.Handle {
			return gorm.ErrDuplicatedKey
		}
		if user.FirebaseUID != nil && u.FirebaseUID != nil && *u.FirebaseUID == *user.FirebaseUID {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = s.nextID()
	user.CreatedAt = stamp(user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	profile := &models.Profile{ID: s.nextID(), UserID: user.ID, FollowedCategories: []models.Category{}}
	stored := *user
	stored.Profile = nil
	s.users[user.ID] = &stored
	s.profiles[user.ID] = profile
	p := *profile
	user.Profile = &p
	return nil
}

func (s *Store) userCopy(u *models.User) *models.User {
	out := *u
	if p, ok := s.profiles[u.ID]; ok {
		pc := *p
		pc.FollowedCategories = append([]models.Category{}, p.FollowedCategories...)
		out.Profile = &pc
	}
	return &out
}

func (s *Store) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return s.userCopy(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.ID == id })
}

func (s *Store) GetUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Handle == handle })
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID })
}

func (s *Store) HandleExists(ctx context.Context, handle string) (bool, error) {
	_, err := s.findUser(func(u *models.User) bool { return strings.EqualFold(u.Handle, handle) })
	return err == nil, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *user
	stored.Profile = nil
	stored.UpdatedAt = time.Now()
	s.users[user.ID] = &stored
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *Store) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *p
	out.FollowedCategories = append([]models.Category{}, p.FollowedCategories...)
	return &out, nil
}

func (s *Store) UpdateFollowedCategories(ctx context.Context, userID uint, categories []models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.FollowedCategories = append([]models.Category{}, categories...)
	return nil
}

func (s *Store) SetStaff(ctx context.Context, handle string, staff bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Handle == handle {
			u.IsStaff = staff
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// Regions

func (s *Store) ListRegions(ctx context.Context) ([]models.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regions := make([]models.Region, 0, len(s.regions))
	for _, r := range s.regions {
		regions = append(regions, *r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Name < regions[j].Name })
	return regions, nil
}

func (s *Store) GetRegionByID(ctx context.Context, id uint) (*models.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *r
	return &out, nil
}

func (s *Store) EnsureRegion(ctx context.Context, name string) (*models.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regions {
		if r.Name == name {
			out := *r
			return &out, nil
		}
	}
	r := &models.Region{ID: s.nextID(), Name: name}
	s.regions[r.ID] = r
	out := *r
	return &out, nil
}

// Contributions

func (s *Store) CreateContribution(ctx context.Context, contribution *models.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[contribution.AuthorID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if _, ok := s.regions[contribution.RegionID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	contribution.ID = s.nextID()
	contribution.SubmittedAt = stamp(contribution.SubmittedAt)
	stored := *contribution
	stored.Author = models.User{}
	stored.Region = models.Region{}
	stored.Comments = nil
	s.contributions[stored.ID] = &stored
	return nil
}

// detailed fills in the associations the PostgreSQL repository preloads
func (s *Store) detailed(c *models.Contribution, withComments bool) models.Contribution {
	out := *c
	if u, ok := s.users[c.AuthorID]; ok {
		out.Author = *u
	}
	if r, ok := s.regions[c.RegionID]; ok {
		out.Region = *r
	}
	out.Comments = nil
	if withComments {
		for _, cm := range s.comments {
			if cm.ContributionID == c.ID {
				if u, ok := s.users[cm.AuthorID]; ok {
					cm.Author = *u
				}
				out.Comments = append(out.Comments, cm)
			}
		}
	}
	return out
}

func (s *Store) GetContributionByID(ctx context.Context, id uint) (*models.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contributions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := s.detailed(c, false)
	return &out, nil
}

func (s *Store) listWhere(match func(*models.Contribution) bool) []models.Contribution {
	out := make([]models.Contribution, 0)
	for _, c := range s.contributions {
		if match(c) {
			out = append(out, s.detailed(c, true))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

func (s *Store) ListAll(ctx context.Context) ([]models.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWhere(func(*models.Contribution) bool { return true }), nil
}

func (s *Store) ListPersonal(ctx context.Context, userID uint, categories []models.Category) ([]models.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWhere(func(c *models.Contribution) bool {
		if _, ok := s.follows[followKey{userID, c.AuthorID}]; ok {
			return true
		}
		for _, cat := range categories {
			if c.Category == cat {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) ListByAuthor(ctx context.Context, authorID uint) ([]models.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWhere(func(c *models.Contribution) bool { return c.AuthorID == authorID }), nil
}

func (s *Store) CountContributions(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.contributions)), nil
}

// Likes

func (s *Store) HasUserLiked(ctx context.Context, contributionID, userID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likes[likeKey{contributionID, userID}]
	return ok, nil
}

func (s *Store) AddLike(ctx context.Context, contributionID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := likeKey{contributionID, userID}
	if _, ok := s.likes[k]; !ok {
		s.likes[k] = time.Now()
	}
	return nil
}

func (s *Store) RemoveLike(ctx context.Context, contributionID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.likes, likeKey{contributionID, userID})
	return nil
}

func (s *Store) CountLikes(ctx context.Context, contributionID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for k := range s.likes {
		if k.contributionID == contributionID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountLikesFor(ctx context.Context, contributionIDs []uint) (map[uint]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[uint]bool, len(contributionIDs))
	for _, id := range contributionIDs {
		wanted[id] = true
	}
	counts := make(map[uint]int64, len(contributionIDs))
	for k := range s.likes {
		if wanted[k.contributionID] {
			counts[k.contributionID]++
		}
	}
	return counts, nil
}

func (s *Store) LikedByUser(ctx context.Context, userID uint, contributionIDs []uint) (map[uint]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	liked := make(map[uint]bool, len(contributionIDs))
	for _, id := range contributionIDs {
		if _, ok := s.likes[likeKey{id, userID}]; ok {
			liked[id] = true
		}
	}
	return liked, nil
}

// Follows

func (s *Store) CreateFollow(ctx context.Context, follow *models.Follow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := followKey{follow.FollowerID, follow.FollowingID}
	if existing, ok := s.follows[k]; ok {
		follow.ID = existing.ID
		return nil
	}
	follow.ID = s.nextID()
	follow.CreatedAt = stamp(follow.CreatedAt)
	s.follows[k] = *follow
	return nil
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows, followKey{followerID, followingID})
	return nil
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.follows[followKey{followerID, followingID}]
	return ok, nil
}

func (s *Store) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for k := range s.follows {
		if k.followingID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for k := range s.follows {
		if k.followerID == userID {
			n++
		}
	}
	return n, nil
}

// Comments

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contributions[comment.ContributionID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	comment.ID = s.nextID()
	comment.CreatedAt = stamp(comment.CreatedAt)
	stored := *comment
	stored.Author = models.User{}
	s.comments = append(s.comments, stored)
	return nil
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notification.ID = s.nextID()
	notification.Timestamp = stamp(notification.Timestamp)
	stored := *notification
	stored.Sender = nil
	stored.Target = nil
	stored.Recipient = models.User{}
	s.notifications[stored.ID] = &stored
	return nil
}

func (s *Store) ListByRecipient(ctx context.Context, recipientID uint) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, 0)
	for _, n := range s.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		item := *n
		if n.SenderID != nil {
			if u, ok := s.users[*n.SenderID]; ok {
				sender := *u
				item.Sender = &sender
			}
		}
		if n.TargetID != nil {
			if c, ok := s.contributions[*n.TargetID]; ok {
				target := *c
				item.Target = &target
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) GetForRecipient(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return nil, gorm.ErrRecordNotFound
	}
	out := *n
	return &out, nil
}

func (s *Store) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkAsRead(ctx context.Context, id, recipientID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return gorm.ErrRecordNotFound
	}
	n.IsRead = true
	return nil
}

func (s *Store) MarkAllAsRead(ctx context.Context, recipientID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Key]; ok {
		return gorm.ErrDuplicatedKey
	}
	session.CreatedAt = stamp(session.CreatedAt)
	stored := *session
	stored.User = models.User{}
	s.sessions[stored.Key] = &stored
	return nil
}

func (s *Store) GetSession(ctx context.Context, key string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *sess
	return &out, nil
}

func (s *Store) DeleteSession(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

func (s *Store) CountActive(ctx context.Context, now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, sess := range s.sessions {
		if sess.Active(now) {
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key, sess := range s.sessions {
		if !sess.Active(now) {
			delete(s.sessions, key)
			count++
		}
	}
	return count, nil
}

var (
	_ repositories.UserRepository         = (*Store)(nil)
	_ repositories.RegionRepository       = (*Store)(nil)
	_ repositories.ContributionRepository = (*Store)(nil)
	_ repositories.LikeRepository         = (*Store)(nil)
	_ repositories.FollowRepository       = (*Store)(nil)
	_ repositories.CommentRepository      = (*Store)(nil)
	_ repositories.NotificationRepository = (*Store)(nil)
	_ repositories.SessionRepository      = (*Store)(nil)
)
