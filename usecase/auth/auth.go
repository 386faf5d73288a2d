package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/repository"
)

// Signaler broadcasts the in-page logout signal.
type Signaler interface {
	Dispatch()
}

// Config controls token issuing.
type Config struct {
	Secret string
	Issuer string
}

// UseCase is the token accessor: it answers whether a credential is present
// in any storage medium and performs login/logout bookkeeping on them.
type UseCase struct {
	media   []repository.TokenStore
	signals Signaler
	cfg     Config
	clock   clockwork.Clock
	logger  *zap.Logger
}

func New(media []repository.TokenStore, signals Signaler, cfg Config, clock clockwork.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var stores []repository.TokenStore
	for _, m := range media {
		if m != nil {
			stores = append(stores, m)
		}
	}
	return &UseCase{
		media:   stores,
		signals: signals,
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
	}
}

// IsAuthenticated reports whether any medium holds a non-empty token.
// Read failures are treated as absence.
func (uc *UseCase) IsAuthenticated(ctx context.Context) bool {
	for _, m := range uc.media {
		token, err := m.Get(ctx, domain.TokenKey)
		if err != nil {
			if !errors.Is(err, domain.ErrTokenNotFound) {
				uc.logger.Debug("token read failed", zap.Error(err))
			}
			continue
		}
		if strings.TrimSpace(token) != "" {
			return true
		}
	}
	return false
}

// RemoveAuthTokens deletes the token from every medium.
func (uc *UseCase) RemoveAuthTokens(ctx context.Context) {
	for _, m := range uc.media {
		if err := m.Delete(ctx, domain.TokenKey); err != nil {
			uc.logger.Warn("token removal failed", zap.Error(err))
		}
	}
}

// Login issues a signed token for userID and stores it in every medium.
func (uc *UseCase) Login(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if uc.cfg.Secret == "" {
		return nil, domain.NewError(domain.ErrCodeInternal, "token secret not configured")
	}

	now := uc.clock.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	claims := jwt.MapClaims{
		"jti":     session.ID,
		"sub":     userID,
		"user_id": userID,
		"iss":     uc.cfg.Issuer,
		"iat":     now.Unix(),
		"exp":     session.ExpiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.Secret))
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "sign token", err)
	}
	session.Token = signed

	for _, m := range uc.media {
		if err := m.Set(ctx, domain.TokenKey, signed); err != nil {
			return nil, domain.WrapError(domain.ErrCodeUnavailable, "store token", err)
		}
	}

	uc.logger.Info("session issued", zap.String("user_id", userID), zap.String("session_id", session.ID))
	return session, nil
}

// Logout removes the token, writes the logout sentinel so other tabs and
// instances re-check, and raises the in-page logout signal.
func (uc *UseCase) Logout(ctx context.Context) error {
	uc.RemoveAuthTokens(ctx)

	stamp := strconv.FormatInt(uc.clock.Now().UnixMilli(), 10)
	var result error
	for _, m := range uc.media {
		if err := m.Set(ctx, domain.LogoutKey, stamp); err != nil {
			result = errors.Join(result, err)
		}
	}

	if uc.signals != nil {
		uc.signals.Dispatch()
	}
	if result != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "write logout sentinel", result)
	}
	return nil
}
