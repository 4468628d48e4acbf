package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/logging"
)

type sessionClaims struct {
	Role Role `json:"role"`
	jwt.StandardClaims
}

type service struct {
	sessions SessionStore
	opts     Options
	now      func() time.Time
}

// NewService creates a new auth service.
func NewService(sessions SessionStore, opts Options) Service {
	return &service{sessions: sessions, opts: opts, now: time.Now}
}

func sessionKey(role Role, id uuid.UUID) string {
	return string(role) + ":" + id.String()
}

func (s *service) Issue(ctx context.Context, p Principal) (string, error) {
	now := s.now()
	claims := &sessionClaims{
		Role: p.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   p.ID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.opts.TTL).Unix(),
			Id:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	if err := s.sessions.Put(ctx, sessionKey(p.Role, p.ID), token, s.opts.TTL); err != nil {
		return "", err
	}

	logging.FromContext(ctx).Info("session registered",
		zap.String("role", string(p.Role)), zap.Stringer("party_id", p.ID))
	return token, nil
}

func (s *service) Parse(token string) (Principal, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.opts.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, apperr.Wrap(apperr.KindUnauthorized, err, "invalid session token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.KindUnauthorized, err, "invalid session subject")
	}
	return Principal{Role: claims.Role, ID: id}, nil
}

func (s *service) Verify(ctx context.Context, role Role, partyID uuid.UUID) (bool, error) {
	key := sessionKey(role, partyID)
	logger := logging.FromContext(ctx).With(zap.String("role", string(role)), zap.Stringer("party_id", partyID))

	stored, err := s.sessions.Get(ctx, key)
	if errors.Is(err, ErrSessionNotFound) {
		logger.Info("session rejected", zap.String("reason", "absent"))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	p, err := s.Parse(stored)
	if err != nil || p.Role != role || p.ID != partyID {
		if delErr := s.sessions.Delete(ctx, key); delErr != nil {
			return false, delErr
		}
		logger.Info("session rejected", zap.String("reason", "invalid"))
		return false, nil
	}

	if presented := presentedToken(ctx); presented != "" && presented != stored {
		logger.Info("session rejected", zap.String("reason", "superseded"))
		return false, nil
	}
	return true, nil
}

func (s *service) Revoke(ctx context.Context, p Principal) error {
	return s.sessions.Delete(ctx, sessionKey(p.Role, p.ID))
}

func (s *service) AdminLogin(ctx context.Context, adminID, password string) (string, error) {
	if s.opts.AdminID == "" || s.opts.AdminPasswordHash == "" || adminID != s.opts.AdminID {
		return "", apperr.Unauthorized("invalid credentials")
	}
	id, err := uuid.Parse(adminID)
	if err != nil {
		return "", apperr.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.opts.AdminPasswordHash), []byte(password)); err != nil {
		return "", apperr.Unauthorized("invalid credentials")
	}
	return s.Issue(ctx, Principal{Role: RoleAdmin, ID: id})
}
