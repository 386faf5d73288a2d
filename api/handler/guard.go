package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/api/transport"
	"github.com/fastygo/dashboard/pkg/httpcontext"
	"github.com/fastygo/dashboard/usecase/guard"
)

// Guards manages mounted session guards by id.
type Guards interface {
	Mount(ctx context.Context, path string) (guard.Snapshot, error)
	Navigate(id, path string) (guard.Snapshot, error)
	View(id string) (guard.Snapshot, error)
	Unmount(id string) error
}

type GuardHandler struct {
	baseHandler
	guards Guards
}

func NewGuardHandler(guards Guards, adapter *httpcontext.Adapter, logger *zap.Logger) *GuardHandler {
	return &GuardHandler{
		baseHandler: newBaseHandler(adapter, logger),
		guards:      guards,
	}
}

// @Summary Mount a session guard at a path
// @Tags guards
// @Router /api/v1/guards [post]
func (h *GuardHandler) Mount(ctx *fasthttp.RequestCtx) {
	var req transport.GuardMountRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	snap, err := h.guards.Mount(stdCtx, req.Path)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.log(stdCtx).Debug("guard mounted", zap.String("guard_id", snap.ID), zap.String("kind", string(snap.View.Kind)))
	h.respondSuccess(ctx, http.StatusCreated, snap)
}

// @Summary Current view of a guard
// @Tags guards
// @Router /api/v1/guards/{id} [get]
func (h *GuardHandler) View(ctx *fasthttp.RequestCtx) {
	snap, err := h.guards.View(pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, snap)
}

// @Summary Move a guard to another path
// @Tags guards
// @Router /api/v1/guards/{id}/navigate [post]
func (h *GuardHandler) Navigate(ctx *fasthttp.RequestCtx) {
	var req transport.GuardNavigateRequest
	if !h.decode(ctx, &req) {
		return
	}
	snap, err := h.guards.Navigate(pathParam(ctx, "id"), req.Path)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, snap)
}

// @Summary Unmount a guard
// @Tags guards
// @Router /api/v1/guards/{id} [delete]
func (h *GuardHandler) Unmount(ctx *fasthttp.RequestCtx) {
	if err := h.guards.Unmount(pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	if v, ok := ctx.UserValue(name).(string); ok {
		return v
	}
	return ""
}

var _ Guards = (*guard.Registry)(nil)
