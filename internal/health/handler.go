package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortkv/internal/ratelimit"
	"github.com/serroba/shortkv/internal/router"
)

const (
	statusOK        = "ok"
	statusDegraded  = "degraded"
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"

	checkTimeout = 2 * time.Second
)

// Path is where the health endpoint is mounted.
const Path = router.ReservedPrefix + "health"

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisChecker adapts a Redis client to the Checker interface.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler reports the health of every registered component.
type Handler struct {
	checkers map[string]Checker
}

// NewHandler creates a health handler over the named checkers.
// Nil checkers are ignored.
func NewHandler(checkers map[string]Checker) *Handler {
	h := &Handler{checkers: make(map[string]Checker, len(checkers))}

	for name, c := range checkers {
		if c != nil {
			h.checkers[name] = c
		}
	}

	return h
}

// Components lists the registered component names in order.
func (h *Handler) Components() []string {
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
}

// Check pings every component. The service is degraded when any is unhealthy.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = statusOK
	resp.Body.Components = make(map[string]string, len(h.checkers))

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	for name, checker := range h.checkers {
		if err := checker.Ping(ctx); err != nil {
			resp.Body.Components[name] = statusUnhealthy
			resp.Body.Status = statusDegraded

			continue
		}

		resp.Body.Components[name] = statusHealthy
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        Path,
		Summary:     "Health check",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
