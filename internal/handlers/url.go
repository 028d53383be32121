package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/serroba/shortkv/internal/analytics"
	"github.com/serroba/shortkv/internal/messaging"
	"github.com/serroba/shortkv/internal/shortener"
	"go.uber.org/zap"
)

var errMissingURL = errors.New("missing field `url`")

// URLHandler handles URL shortening operations.
type URLHandler struct {
	service            *shortener.Service
	publishURLCreated  messaging.Publish[analytics.URLCreatedEvent]
	publishURLAccessed messaging.Publish[analytics.URLAccessedEvent]
	logger             *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	service *shortener.Service,
	publishURLCreated messaging.Publish[analytics.URLCreatedEvent],
	publishURLAccessed messaging.Publish[analytics.URLAccessedEvent],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		service:            service,
		publishURLCreated:  publishURLCreated,
		publishURLAccessed: publishURLAccessed,
		logger:             logger,
	}
}

func decodeCreateBody(raw []byte) (*createBody, error) {
	var body createBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, shortener.DeserializationError(err)
	}

	if body.URL == nil {
		return nil, shortener.DeserializationError(errMissingURL)
	}

	return &body, nil
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	body, err := decodeCreateBody(req.RawBody)
	if err != nil {
		return nil, err
	}

	meta := RequestMetaFromContext(ctx)

	created, err := h.service.Create(ctx, shortener.CreateRequest{
		URL:    *body.URL,
		TTL:    body.TTL,
		APIKey: req.AuthKey,
		Host:   meta.Host,
	})
	if err != nil {
		return nil, h.reportError(ctx, "create short url failed", err)
	}

	event := &analytics.URLCreatedEvent{
		Code:       created.ID,
		RawURL:     created.Record.RawURL,
		Username:   created.Record.Username,
		ExpireTime: created.Record.ExpireTime,
		CreatedAt:  time.UnixMilli(created.Record.InsertTime),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
	}

	if err := h.publishURLCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &CreateShortURLResponse{}
	resp.Body.ShortURL = created.ShortURL
	resp.Body.RawURL = created.Record.RawURL

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	target, err := h.service.Resolve(ctx, req.ID)
	if err != nil {
		return nil, h.reportError(ctx, "resolve short url failed", err)
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.URLAccessedEvent{
		Code:       req.ID,
		AccessedAt: time.Now(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err = h.publishURLAccessed(ctx, event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return &RedirectResponse{
		Status:   http.StatusFound,
		Location: target,
	}, nil
}

// reportError logs server-side failures and returns the client-facing error.
func (h *URLHandler) reportError(ctx context.Context, msg string, err error) error {
	e := shortener.AsError(err)

	if e.GetStatus() >= http.StatusInternalServerError {
		h.logger.Error(msg,
			zap.String("request_id", RequestMetaFromContext(ctx).RequestID),
			zap.Error(errors.Unwrap(e)),
		)
	}

	return e
}
