package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/api/transport"
	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/internal/windows"
	"github.com/fastygo/dashboard/pkg/httpcontext"
)

type WindowHandler struct {
	baseHandler
	registry *windows.Registry
}

func NewWindowHandler(registry *windows.Registry, adapter *httpcontext.Adapter, logger *zap.Logger) *WindowHandler {
	return &WindowHandler{
		baseHandler: newBaseHandler(adapter, logger),
		registry:    registry,
	}
}

// @Summary Register an open window
// @Tags windows
// @Router /api/v1/windows [post]
func (h *WindowHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.WindowRegisterRequest
	if !h.decode(ctx, &req) {
		return
	}
	if req.URL == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}
	focusable := true
	if req.Focusable != nil {
		focusable = *req.Focusable
	}

	win, err := h.registry.Register(req.URL, req.Controlled, focusable)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, win)
}

// @Summary List open windows
// @Tags windows
// @Router /api/v1/windows [get]
func (h *WindowHandler) List(ctx *fasthttp.RequestCtx) {
	items := h.registry.List()
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(items, transport.ListMeta{Count: len(items)}))
}

// @Summary Refresh a window's location and visibility
// @Tags windows
// @Router /api/v1/windows/{id}/heartbeat [put]
func (h *WindowHandler) Heartbeat(ctx *fasthttp.RequestCtx) {
	var req transport.WindowHeartbeatRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}
	win, err := h.registry.Heartbeat(pathParam(ctx, "id"), req.URL, req.Visible)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, win)
}

// @Summary Forget a closed window
// @Tags windows
// @Router /api/v1/windows/{id} [delete]
func (h *WindowHandler) Unregister(ctx *fasthttp.RequestCtx) {
	if err := h.registry.Unregister(pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}
