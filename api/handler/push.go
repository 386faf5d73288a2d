package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/api/transport"
	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/pkg/httpcontext"
	"github.com/fastygo/dashboard/usecase/notify"
)

const defaultListLimit = 50

// Deliverer accepts push messages and notification clicks.
type Deliverer interface {
	Deliver(ctx context.Context, msg domain.PushMessage) <-chan error
	Click(ctx context.Context, n domain.Notification) <-chan error
}

// NotificationReader reads displayed notifications.
type NotificationReader interface {
	Get(ctx context.Context, tag string) (*domain.Notification, error)
	List(ctx context.Context, limit int) ([]domain.Notification, error)
}

// PushPublisher hands push messages and clicks to the task queue.
type PushPublisher interface {
	PublishDeliver(ctx context.Context, msg domain.PushMessage) (string, error)
	PublishClick(ctx context.Context, tag string) (string, error)
}

type PushHandler struct {
	baseHandler
	worker    Deliverer
	center    NotificationReader
	publisher PushPublisher
}

// NewPushHandler wires the push endpoints. publisher may be nil, in which
// case async requests are delivered in-process.
func NewPushHandler(worker Deliverer, center NotificationReader, publisher PushPublisher, adapter *httpcontext.Adapter, logger *zap.Logger) *PushHandler {
	return &PushHandler{
		baseHandler: newBaseHandler(adapter, logger),
		worker:      worker,
		center:      center,
		publisher:   publisher,
	}
}

// @Summary Deliver a push message
// @Tags push
// @Router /api/v1/push [post]
func (h *PushHandler) Push(ctx *fasthttp.RequestCtx) {
	var req transport.PushRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if req.Async && h.publisher != nil {
		id, err := h.publisher.PublishDeliver(stdCtx, req.PushMessage)
		if err != nil {
			h.respondError(ctx, domain.WrapError(domain.ErrCodeUnavailable, "enqueue push", err))
			return
		}
		h.respondSuccess(ctx, http.StatusAccepted, transport.QueuedResponse{TaskID: id})
		return
	}

	if err := await(stdCtx, h.worker.Deliver(stdCtx, req.PushMessage)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, notify.Resolve(req.PushMessage))
}

// @Summary List displayed notifications
// @Tags push
// @Router /api/v1/notifications [get]
func (h *PushHandler) List(ctx *fasthttp.RequestCtx) {
	limit := defaultListLimit
	if raw := ctx.QueryArgs().Peek("limit"); len(raw) > 0 {
		parsed, err := strconv.Atoi(string(raw))
		if err != nil || parsed <= 0 {
			h.respondError(ctx, domain.ErrInvalidPayload)
			return
		}
		limit = parsed
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.center.List(stdCtx, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(items, transport.ListMeta{Count: len(items), Limit: limit}))
}

// @Summary Click a displayed notification
// @Tags push
// @Router /api/v1/notifications/{tag}/click [post]
func (h *PushHandler) Click(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	n, err := h.center.Get(stdCtx, pathParam(ctx, "tag"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if h.publisher != nil && ctx.QueryArgs().GetBool("async") {
		id, err := h.publisher.PublishClick(stdCtx, n.Tag)
		if err != nil {
			h.respondError(ctx, domain.WrapError(domain.ErrCodeUnavailable, "enqueue click", err))
			return
		}
		h.respondSuccess(ctx, http.StatusAccepted, transport.QueuedResponse{TaskID: id})
		return
	}
	if err := await(stdCtx, h.worker.Click(stdCtx, *n)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.log(stdCtx).Debug("notification clicked", zap.String("tag", n.Tag))
	h.respondSuccess(ctx, http.StatusOK, map[string]string{
		"tag":    n.Tag,
		"target": notify.ClickTarget(n.Data),
	})
}

// await waits for a worker unit to settle. The unit keeps running if the
// request gives up first.
func await(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
