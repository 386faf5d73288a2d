package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/api/transport"
	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/pkg/httpcontext"
)

// Authenticator issues, checks and revokes the stored session token.
type Authenticator interface {
	Login(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error)
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
}

type AuthHandler struct {
	baseHandler
	uc         Authenticator
	defaultTTL time.Duration
}

func NewAuthHandler(uc Authenticator, adapter *httpcontext.Adapter, logger *zap.Logger, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		defaultTTL:  ttl,
	}
}

// @Summary Issue a new session token
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.AuthLoginRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.UserID == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.Login(stdCtx, req.UserID, h.ttlFromRequest(req.TTL))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(domain.TokenKey)
	cookie.SetValue(session.Token)
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetExpire(session.ExpiresAt)
	ctx.Response.Header.SetCookie(cookie)

	h.respondSuccess(ctx, http.StatusCreated, session)
}

// @Summary Revoke the session token and notify every guard
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Logout(stdCtx); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.DelClientCookie(domain.TokenKey)
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Report whether a session token is stored
// @Tags auth
// @Router /api/v1/auth/status [get]
func (h *AuthHandler) Status(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	authenticated := h.uc.IsAuthenticated(stdCtx)
	h.respondSuccess(ctx, http.StatusOK, transport.AuthStatus{
		Authenticated: authenticated,
		State:         domain.AuthStateFrom(authenticated).String(),
	})
}

func (h *AuthHandler) ttlFromRequest(ttlSeconds int) time.Duration {
	if ttlSeconds <= 0 {
		return h.defaultTTL
	}
	return time.Duration(ttlSeconds) * time.Second
}
