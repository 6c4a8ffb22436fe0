package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/haiintel/dashboard/internal/config"
	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/model/user"
)

var (
	ErrInvalidEmail       = errors.New("Please enter a valid email")
	ErrEmptyPassword      = errors.New("Password cannot be empty")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrNotConfigured      = errors.New("login is not configured")
	ErrInvalidToken       = errors.New("invalid session token")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Claims is the JWT payload.
type Claims struct {
	User user.User `json:"user"`
	jwt.RegisteredClaims
}

// Service checks the static credential pair and issues session tokens.
type Service struct {
	cfg    config.AuthConfig
	secret []byte
	now    func() time.Time
	log    *logging.Logger
}

// NewService builds the service. An empty secret is replaced by a random one, which means
// sessions do not survive a restart.
func NewService(cfg config.AuthConfig, log *logging.Logger) (*Service, error) {
	if log == nil {
		log = logging.Nop()
	}
	log = log.Sub("auth")

	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate auth secret: %w", err)
		}
		log.Warn().Msg("AUTH_SECRET not set, using a random key; sessions end on restart")
	}
	if !cfg.Enabled() {
		log.Warn().Msg("STATIC_EMAIL or STATIC_PASSWORD not set, every login will be rejected")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}

	return &Service{cfg: cfg, secret: secret, now: time.Now, log: log}, nil
}

// Authenticate validates the form input and compares it against the configured pair.
func (s *Service) Authenticate(email, password string) (user.User, error) {
	if !emailPattern.MatchString(email) {
		return user.User{}, ErrInvalidEmail
	}
	if password == "" {
		return user.User{}, ErrEmptyPassword
	}
	if !s.cfg.Enabled() {
		return user.User{}, ErrNotConfigured
	}
	if !safeEqual(email, s.cfg.Email) || !safeEqual(password, s.cfg.Password) {
		s.log.Info().Str("email", email).Msg("login rejected")
		return user.User{}, ErrInvalidCredentials
	}

	return user.User{ID: "1", Email: email, Role: "admin", Name: s.cfg.DisplayName}, nil
}

// IssueToken signs a session token for u.
func (s *Service) IssueToken(u user.User) (string, error) {
	now := s.now()
	claims := Claims{
		User: u,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// ParseToken verifies a session token and returns its user.
func (s *Service) ParseToken(token string) (user.User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return user.User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.User.ID == "" {
		return user.User{}, ErrInvalidToken
	}
	return claims.User, nil
}

// TokenTTL is the lifetime of issued tokens.
func (s *Service) TokenTTL() time.Duration {
	return s.cfg.TokenTTL
}

// CookieSecure reports whether the session cookie needs the Secure attribute.
func (s *Service) CookieSecure() bool {
	return s.cfg.CookieSecure
}

func safeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
