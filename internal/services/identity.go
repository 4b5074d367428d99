package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/repositories"
	"github.com/anonto42/regional-voices/backend/pkg/metrics"
	"github.com/anonto42/regional-voices/backend/validators"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const handleTakenMessage = "A user with that username already exists."

var handleStrip = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_.@+-]+`)

// TokenVerifier verifies Firebase ID tokens; *firebase.Verifier satisfies it
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// IdentityService registers users, opens and resolves sessions and edits profiles
type IdentityService struct {
	users      repositories.UserRepository
	sessions   repositories.SessionRepository
	validator  *validators.CustomValidator
	verifier   TokenVerifier
	sessionTTL time.Duration
	hashCost   int
	log        *logrus.Logger
	now        func() time.Time
}

// NewIdentityService creates an IdentityService. Sessions live for sessionTTL.
func NewIdentityService(users repositories.UserRepository, sessions repositories.SessionRepository, v *validators.CustomValidator, sessionTTL time.Duration, log *logrus.Logger) *IdentityService {
	return &IdentityService{
		users:      users,
		sessions:   sessions,
		validator:  v,
		sessionTTL: sessionTTL,
		hashCost:   bcrypt.DefaultCost,
		log:        log,
		now:        time.Now,
	}
}

// WithTokenVerifier enables Firebase sign-in
func (s *IdentityService) WithTokenVerifier(v TokenVerifier) *IdentityService {
	s.verifier = v
	return s
}

// FirebaseEnabled reports whether Firebase sign-in is available
func (s *IdentityService) FirebaseEnabled() bool {
	return s.verifier != nil
}

// Register creates a user together with its empty profile
func (s *IdentityService) Register(ctx context.Context, form models.RegisterForm) (*models.User, error) {
	form.Handle = strings.TrimSpace(form.Handle)
	form.Email = strings.TrimSpace(form.Email)

	if err := s.validator.Validate(form); err != nil {
		return nil, &ValidationError{Fields: validators.ToFields(err)}
	}

	exists, err := s.users.HandleExists(ctx, form.Handle)
	if err != nil {
		return nil, fmt.Errorf("check handle: %w", err)
	}
	if exists {
		return nil, newValidationError("username", handleTakenMessage)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Handle:       form.Handle,
		Email:        form.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUserWithProfile(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError("username", handleTakenMessage)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.Registrations.Inc()
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "handle": user.Handle}).Info("User registered")
	return user, nil
}

// Authenticate checks credentials and opens a session. The session row always
// carries the configured expiry; remember only controls the cookie lifetime.
func (s *IdentityService) Authenticate(ctx context.Context, handle, password string, remember bool) (*models.User, *models.Session, error) {
	if handle == "" || password == "" {
		metrics.RecordLogin(false)
		return nil, nil, &AuthError{Message: ErrInvalidCredentials}
	}

	user, err := s.users.GetUserByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordLogin(false)
			return nil, nil, &AuthError{Message: ErrInvalidCredentials}
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.RecordLogin(false)
		return nil, nil, &AuthError{Message: ErrInvalidCredentials}
	}

	session, err := s.openSession(ctx, user, remember)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordLogin(true)
	return user, session, nil
}

func (s *IdentityService) openSession(ctx context.Context, user *models.User, remember bool) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		Key:       uuid.NewString(),
		UserID:    user.ID,
		Remember:  remember,
		ExpireAt:  now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// ResolveSession returns the owner of a live session
func (s *IdentityService) ResolveSession(ctx context.Context, key string) (*models.User, error) {
	session, err := s.sessions.GetSession(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &AuthError{Message: "session not found"}
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !session.Active(s.now()) {
		if err := s.sessions.DeleteSession(ctx, key); err != nil {
			s.log.WithError(err).Warn("Failed to delete expired session")
		}
		return nil, &AuthError{Message: "session expired"}
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &AuthError{Message: "session owner no longer exists"}
		}
		return nil, fmt.Errorf("load session owner: %w", err)
	}
	return user, nil
}

// Logout ends the session
func (s *IdentityService) Logout(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, key)
}

// EditProfile replaces the user's followed categories. Unknown categories are rejected.
func (s *IdentityService) EditProfile(ctx context.Context, user *models.User, raw []string) ([]models.Category, error) {
	selected := make(map[models.Category]bool, len(raw))
	for _, r := range raw {
		c, ok := models.ParseCategory(r)
		if !ok {
			return nil, newValidationError("followed_categories",
				fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", r))
		}
		selected[c] = true
	}

	categories := make([]models.Category, 0, len(selected))
	for _, c := range models.Categories {
		if selected[c] {
			categories = append(categories, c)
		}
	}

	if err := s.users.UpdateFollowedCategories(ctx, user.ID, categories); err != nil {
		return nil, notFound(err, "profile")
	}
	if user.Profile != nil {
		user.Profile.FollowedCategories = categories
	}
	return categories, nil
}

// Profile returns the user's profile
func (s *IdentityService) Profile(ctx context.Context, user *models.User) (*models.Profile, error) {
	profile, err := s.users.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return profile, nil
}

// FirebaseLogin signs in with a Firebase ID token. Unknown accounts are linked
// by email or registered with a handle derived from the email.
func (s *IdentityService) FirebaseLogin(ctx context.Context, idToken string) (*models.User, *models.Session, error) {
	if s.verifier == nil {
		return nil, nil, &InvalidRequestError{Message: "Firebase sign-in is not configured"}
	}
	if idToken == "" {
		return nil, nil, &InvalidRequestError{Message: "Invalid request"}
	}

	token, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.log.WithError(err).Warn("Firebase ID token rejected")
		metrics.RecordLogin(false)
		return nil, nil, &AuthError{Message: "Invalid or expired Firebase ID token"}
	}
	email, _ := token.Claims["email"].(string)

	user, err := s.firebaseUser(ctx, token.UID, email)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.openSession(ctx, user, true)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordLogin(true)
	return user, session, nil
}

func (s *IdentityService) firebaseUser(ctx context.Context, uid, email string) (*models.User, error) {
	user, err := s.users.GetUserByFirebaseUID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load firebase user: %w", err)
	}

	if email != "" {
		user, err = s.users.GetUserByEmail(ctx, email)
		if err == nil {
			user.FirebaseUID = &uid
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, fmt.Errorf("link firebase uid: %w", err)
			}
			s.log.WithFields(logrus.Fields{"user_id": user.ID}).Info("Linked Firebase account")
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load user by email: %w", err)
		}
	}

	handle, err := s.freeHandle(ctx, email, uid)
	if err != nil {
		return nil, err
	}
	user = &models.User{Handle: handle, Email: email, FirebaseUID: &uid}
	if err := s.users.CreateUserWithProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("create firebase user: %w", err)
	}
	metrics.Registrations.Inc()
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "handle": user.Handle}).Info("User registered via Firebase")
	return user, nil
}

// freeHandle derives an unused handle from the email local part
func (s *IdentityService) freeHandle(ctx context.Context, email, uid string) (string, error) {
	base := email
	if i := strings.IndexByte(base, '@'); i >= 0 {
		base = base[:i]
	}
	base = handleStrip.ReplaceAllString(base, "")
	if base == "" {
		base = "user"
	}
	if len(base) > 140 {
		base = base[:140]
	}

	candidate := base
	for i := 1; i <= 100; i++ {
		exists, err := s.users.HandleExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check handle: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
	if len(uid) > 140 {
		uid = uid[:140]
	}
	return "fb_" + uid, nil
}
