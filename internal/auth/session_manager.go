package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidhub/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the user holds no active refresh credential.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrRefreshTokenReused indicates a refresh token that was already rotated out.
	ErrRefreshTokenReused = errors.New("refresh token is expired or used")
	// ErrTokenMissing indicates no credential was presented.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenExpired indicates an expired access credential.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a malformed or forged credential.
	ErrTokenInvalid = errors.New("token invalid")
)

const issuer = "vidhub"

// Subject is the identity carried by an access credential.
type Subject struct {
	ID       string
	Email    string
	Username string
	FullName string
}

// SubjectFor derives the token subject from a user record.
func SubjectFor(user models.User) Subject {
	return Subject{ID: user.ID, Email: user.Email, Username: user.Username, FullName: user.FullName}
}

// Session is the refresh credential currently stored for a user.
type Session struct {
	Subject      Subject
	RefreshToken string
}

// SessionStore persists the single active refresh credential of each user.
type SessionStore interface {
	Save(ctx context.Context, userID, refreshToken string) error
	Find(ctx context.Context, userID string) (Session, error)
	Delete(ctx context.Context, userID string) error
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// Manager issues, verifies and rotates signed session credentials.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store SessionStore
	now   func() time.Time
}

// NewManager constructs a Manager that signs access and refresh tokens with
// separate secrets and the provided TTLs.
func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		store:         store,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new pair of access and refresh tokens for the subject and
// records the refresh token as the user's only valid one.
func (m *Manager) Issue(ctx context.Context, subject Subject) (models.SessionTokens, error) {
	if subject.ID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := m.now()
	accessExpires := now.Add(m.accessTTL)
	refreshExpires := now.Add(m.refreshTTL)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: m.registered(subject.ID, now, accessExpires),
		Email:            subject.Email,
		Username:         subject.Username,
		FullName:         subject.FullName,
	}).SignedString(m.accessSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, m.registered(subject.ID, now, refreshExpires)).SignedString(m.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.store.Save(ctx, subject.ID, refresh); err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

func (m *Manager) registered(userID string, now, expires time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}
}

// Verify checks an access token and returns the subject it carries.
func (m *Manager) Verify(accessToken string) (Subject, error) {
	if accessToken == "" {
		return Subject{}, ErrTokenMissing
	}

	var claims accessClaims
	if err := m.parse(accessToken, m.accessSecret, &claims); err != nil {
		return Subject{}, err
	}

	return Subject{
		ID:       claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
		FullName: claims.FullName,
	}, nil
}

// Refresh exchanges a refresh token for a new session token pair. Only the
// most recently issued refresh token of a user is accepted.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	var claims jwt.RegisteredClaims
	if err := m.parse(refreshToken, m.refreshSecret, &claims); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return models.SessionTokens{}, ErrRefreshTokenExpired
		}
		return models.SessionTokens{}, err
	}

	session, err := m.store.Find(ctx, claims.Subject)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if session.RefreshToken != refreshToken {
		return models.SessionTokens{}, ErrRefreshTokenReused
	}

	return m.Issue(ctx, session.Subject)
}

// Revoke forgets the user's refresh token.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.Delete(ctx, userID)
}

func (m *Manager) parse(token string, secret []byte, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return ErrTokenInvalid
	}
	return nil
}
