package shortener

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/serroba/shortkv/internal/kv"
	"go.uber.org/zap"
)

// CreateRequest is the input of Service.Create.
type CreateRequest struct {
	URL string
	// TTL in seconds; nil means "never expire".
	TTL *uint64
	// APIKey is the raw X-AUTH-KEY value, empty when absent.
	APIKey string
	// Host is the request Host header, used when no base URL is configured.
	Host string
}

// Created describes a newly stored short URL.
type Created struct {
	ID       string
	ShortURL string
	Record   *Record
}

// Service implements short URL creation and resolution.
type Service struct {
	store     kv.Store
	auth      *AuthResolver
	policy    *ExpirationPolicy
	allocator *Allocator
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithClock makes the service and its expiration policy read time from now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
		s.policy = NewExpirationPolicy(s.cfg, now)
	}
}

// WithAllocator replaces the default allocator.
func WithAllocator(a *Allocator) ServiceOption {
	return func(s *Service) {
		s.allocator = a
	}
}

// NewService wires a Service over store.
func NewService(store kv.Store, cfg Config, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		auth:      NewAuthResolver(store),
		policy:    NewExpirationPolicy(cfg, time.Now),
		allocator: NewAllocator(store, cfg, logger),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create validates req, allocates an identifier and persists the record.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Created, error) {
	user, err := s.auth.Resolve(ctx, req.APIKey)
	if err != nil {
		return nil, err
	}

	if err := ValidateTargetURL(req.URL); err != nil {
		return nil, err
	}

	expireTime, err := s.policy.Evaluate(req.TTL, user)
	if err != nil {
		return nil, err
	}

	record := &Record{
		RawURL:     req.URL,
		InsertTime: s.now().UnixMilli(),
		ExpireTime: expireTime,
	}
	if user != nil {
		record.Username = user.Username
	}

	value, err := EncodeRecord(record)
	if err != nil {
		return nil, SerializationError(err)
	}

	id, err := s.persist(ctx, value, record.StoreExpireAt())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("short url created",
		zap.String("id", id),
		zap.String("username", record.Username),
		zap.Int64("expire_time", record.ExpireTime),
	)

	return &Created{
		ID:       id,
		ShortURL: s.shortURL(req.Host, id),
		Record:   record,
	}, nil
}

// persist allocates and conditionally writes until a write wins. Existence
// checks and lost writes draw from one MaxAllocAttempts budget.
func (s *Service) persist(ctx context.Context, value []byte, expireAt int64) (string, error) {
	for remaining := s.cfg.MaxAllocAttempts; remaining > 0; {
		id, used, err := s.allocator.AllocateWithin(ctx, remaining)
		if err != nil {
			var se *Error
			if errors.As(err, &se) {
				return "", se
			}

			return "", ServerError(err)
		}

		remaining -= used

		err = s.store.PutIfAbsent(ctx, kv.NamespaceURLs, id, value, expireAt)
		if err == nil {
			return id, nil
		}

		if !errors.Is(err, kv.ErrExists) {
			return "", ServerError(err)
		}

		s.logger.Debug("identifier taken between check and write", zap.String("id", id))
	}

	return "", AllocationExhausted()
}

// Resolve returns the destination of id.
func (s *Service) Resolve(ctx context.Context, id string) (string, error) {
	if !IsIdentifier(id) {
		return "", NotFound()
	}

	entry, err := s.store.Get(ctx, kv.NamespaceURLs, id)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", NotFound()
		}

		return "", ServerError(err)
	}

	record, err := DecodeRecord(entry.Value)
	if err != nil {
		s.logger.Warn("dropping corrupt record", zap.String("id", id), zap.Error(err))

		return "", NotFound()
	}

	// Stores sweep in whole seconds; honor the millisecond expiry exactly.
	if record.ExpireTime != 0 && s.now().UnixMilli() >= record.ExpireTime {
		return "", NotFound()
	}

	return record.RawURL, nil
}

func (s *Service) shortURL(host, id string) string {
	if s.cfg.BaseURL != "" {
		return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + id
	}

	return stripPort(host) + "/" + id
}

func stripPort(host string) string {
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}

	if strings.Contains(h, ":") {
		return "[" + h + "]"
	}

	return h
}

// schemesWithAuthority lists schemes whose URLs are meaningless without a host.
var schemesWithAuthority = map[string]bool{
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
	"ftp":   true,
}

// ValidateTargetURL accepts absolute hierarchical URLs, rejecting opaque
// forms such as mailto: and web URLs without a host.
func ValidateTargetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return URLError(err.Error())
	}

	switch {
	case u.Scheme == "":
		return URLError("relative URL without a base")
	case u.Opaque != "":
		return URLError("target url syntax error")
	case u.Host == "" && schemesWithAuthority[strings.ToLower(u.Scheme)]:
		return URLError("empty host")
	}

	return nil
}
