package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"classroom-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "classroom-service"

// SessionStore keeps track of live tokens so they can be revoked before they expire.
type SessionStore interface {
	Create(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error
	// Lookup returns domain.ErrSessionNotFound for unknown, revoked or expired sessions.
	Lookup(ctx context.Context, sessionID string) (int64, error)
	Delete(ctx context.Context, sessionID string) error
}

// Claims is the payload of an access token.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Token is what a successful login hands back to the client.
type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Session identifies the authenticated caller of a request.
type Session struct {
	ID   string
	User domain.User
}

// Service issues HS256 access tokens backed by a revocable session.
type Service struct {
	secret   []byte
	ttl      time.Duration
	sessions SessionStore
	now      func() time.Time
}

func NewService(secret string, ttl time.Duration, sessions SessionStore) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, sessions: sessions, now: time.Now}
}

// Issue starts a session for the user and returns its signed token.
func (s *Service) Issue(ctx context.Context, user domain.User) (Token, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	sessionID := uuid.NewString()
	claims := &Claims{
		Role: user.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	if err := s.sessions.Create(ctx, sessionID, user.ID, s.ttl); err != nil {
		return Token{}, fmt.Errorf("store session: %w", err)
	}
	return Token{AccessToken: signed, ExpiresAt: expires}, nil
}

// Verify checks the token signature and expiry and that its session is still live.
// It returns the session id and the user id.
func (s *Service) Verify(ctx context.Context, raw string) (string, int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrSessionNotFound, err)
	}
	if !token.Valid || claims.ID == "" {
		return "", 0, domain.ErrSessionNotFound
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad subject", domain.ErrSessionNotFound)
	}
	stored, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil {
		return "", 0, err
	}
	if stored != userID {
		return "", 0, fmt.Errorf("%w: user mismatch", domain.ErrSessionNotFound)
	}
	return claims.ID, userID, nil
}

// Revoke ends a session; its token stops verifying immediately.
func (s *Service) Revoke(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

type ctxKey struct{}

// WithSession attaches the authenticated session to the request context.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, session)
}

// SessionFromContext returns the session attached by the authentication middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(ctxKey{}).(Session)
	return session, ok
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	session, ok := SessionFromContext(ctx)
	return session.User, ok
}
