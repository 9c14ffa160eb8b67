package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/metrics"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/repository"
	"github.com/iliyamo/freefire-tournaments/internal/utils"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)
	uidPattern      = regexp.MustCompile(`^[0-9]{8,12}$`)
)

// AuthService issues and verifies access tokens. Tokens are self-contained;
// there is no server-side session store.
type AuthService struct {
	users   UserStore
	secret  string
	ttlMin  int
	cost    int
	metrics *metrics.Metrics
	log     *zap.Logger
	clock   Clock
}

// AuthConfig carries the token and hashing settings loaded at startup.
type AuthConfig struct {
	Secret       string
	AccessTTLMin int
	BcryptCost   int
}

func NewAuthService(users UserStore, cfg AuthConfig, m *metrics.Metrics, log *zap.Logger) *AuthService {
	if users == nil {
		panic("nil user store passed to NewAuthService")
	}
	return &AuthService{
		users:   users,
		secret:  cfg.Secret,
		ttlMin:  cfg.AccessTTLMin,
		cost:    cfg.BcryptCost,
		metrics: m,
		log:     logger.OrNop(log),
	}
}

// WithClock overrides the time source.
func (s *AuthService) WithClock(c Clock) *AuthService {
	s.clock = c
	return s
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	FreeFireUID string `json:"free_fire_uid"`
	Region      string `json:"region"`
}

// Session is a user together with a freshly issued token.
type Session struct {
	User  model.User
	Token utils.AccessToken
}

// Register creates a user and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") {
		return Session{}, invalid("a valid email is required")
	}
	if len(in.Password) < 6 {
		return Session{}, invalid("password must be at least 6 characters")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = defaultUsername(email)
	}
	if !usernamePattern.MatchString(username) {
		return Session{}, invalid("username must be 3-32 letters, digits or underscores")
	}
	uid := strings.TrimSpace(in.FreeFireUID)
	if uid != "" && !uidPattern.MatchString(uid) {
		return Session{}, invalid("Free Fire UID must be 8-12 digits")
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return Session{}, err
	}
	now := s.clock.now()
	u := model.User{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		Username:      username,
		FullName:      strings.TrimSpace(in.FullName),
		FreeFireUID:   uid,
		Region:        strings.ToLower(strings.TrimSpace(in.Region)),
		WalletBalance: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return Session{}, fromStore(err, "user")
	}
	if s.metrics != nil {
		s.metrics.UsersRegisteredTotal.Inc()
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return s.issue(u)
}

// Login verifies credentials. Unknown email and wrong password yield the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, newError(ErrUnauthorized, "invalid credentials")
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, newError(ErrUnauthorized, "invalid credentials")
	}
	return s.issue(u)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.User, error) {
	claims, err := utils.ParseAccessToken(s.secret, raw)
	if err != nil {
		return model.User{}, wrapError(ErrUnauthorized, err, "invalid or expired token")
	}
	u, err := s.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, newError(ErrUnauthorized, "user no longer exists")
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Me returns the profile of userID.
func (s *AuthService) Me(ctx context.Context, userID string) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	return u, fromStore(err, "user")
}

// EnsureAdmin creates the bootstrap admin account when it is missing and
// promotes it when it exists without the flag.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.IsAdmin {
			return nil
		}
		u.IsAdmin, u.UpdatedAt = true, s.clock.now()
		return s.users.Update(ctx, u)
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	sess, err := s.Register(ctx, RegisterInput{Email: email, Password: password, FullName: "Administrator"})
	if err != nil {
		return err
	}
	admin := sess.User
	admin.IsAdmin, admin.IsVerified = true, true
	if err := s.users.Update(ctx, admin); err != nil {
		return err
	}
	s.log.Info("admin account created", zap.String("email", email))
	return nil
}

func (s *AuthService) issue(u model.User) (Session, error) {
	tok, err := utils.NewAccessToken(s.secret, u.ID, u.Role(), s.ttlMin)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok}, nil
}

// defaultUsername derives a handle from the email local part.
func defaultUsername(email string) string {
	local := email[:strings.Index(email, "@")]
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) < 3 {
		name += "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	}
	if len(name) > 32 {
		name = name[:32]
	}
	return name
}
