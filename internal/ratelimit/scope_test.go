package ratelimit_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortkv/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoMultipart = errors.New("multipart forms are not used")

// routeContext is the slice of huma.Context scope resolution reads: the
// method and the matched operation.
type routeContext struct {
	method    string
	operation *huma.Operation
}

func (c *routeContext) Operation() *huma.Operation                 { return c.operation }
func (c *routeContext) Method() string                             { return c.method }
func (c *routeContext) Context() context.Context                   { return context.Background() }
func (c *routeContext) TLS() *tls.ConnectionState                  { return nil }
func (c *routeContext) Version() huma.ProtoVersion                 { return huma.ProtoVersion{} }
func (c *routeContext) Host() string                               { return "sho.rt" }
func (c *routeContext) RemoteAddr() string                         { return "198.51.100.4:5000" }
func (c *routeContext) URL() url.URL                               { return url.URL{} }
func (c *routeContext) Param(string) string                        { return "" }
func (c *routeContext) Query(string) string                        { return "" }
func (c *routeContext) Header(string) string                       { return "" }
func (c *routeContext) EachHeader(func(name, value string))        {}
func (c *routeContext) BodyReader() io.Reader                      { return nil }
func (c *routeContext) GetMultipartForm() (*multipart.Form, error) { return nil, errNoMultipart }
func (c *routeContext) SetReadDeadline(time.Time) error            { return nil }
func (c *routeContext) SetStatus(int)                              {}
func (c *routeContext) Status() int                                { return 0 }
func (c *routeContext) AppendHeader(string, string)                {}
func (c *routeContext) SetHeader(string, string)                   {}
func (c *routeContext) BodyWriter() io.Writer                      { return io.Discard }

// Operations shaped like the ones the service registers.
var (
	createOp = &huma.Operation{
		OperationID: "create-short-url",
		Method:      http.MethodPost,
		Path:        "/new",
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
				},
			},
		},
	}
	redirectOp = &huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{id}",
	}
	healthOp = &huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/_/health",
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}
)

func TestMethodScopeResolver_Resolve(t *testing.T) {
	t.Parallel()

	read := []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRead}
	write := []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeWrite}

	tests := map[string][]ratelimit.Scope{
		http.MethodGet:     read,
		http.MethodHead:    read,
		http.MethodOptions: read,
		http.MethodPost:    write,
		http.MethodPut:     write,
		http.MethodPatch:   write,
		http.MethodDelete:  write,
	}

	resolver := ratelimit.NewMethodScopeResolver()

	for method, want := range tests {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, want, resolver.Resolve(&routeContext{method: method}))
		})
	}
}

func TestOperationScopeResolver_Resolve(t *testing.T) {
	t.Parallel()

	resolver := ratelimit.NewOperationScopeResolver()

	tests := []struct {
		name      string
		method    string
		operation *huma.Operation
		want      []ratelimit.Scope
	}{
		{
			name:      "redirect without config is a read",
			method:    http.MethodGet,
			operation: redirectOp,
			want:      []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRead},
		},
		{
			name:      "create with custom limits keeps method scope",
			method:    http.MethodPost,
			operation: createOp,
			want:      []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeWrite},
		},
		{
			name:      "unmatched request falls back to method",
			method:    http.MethodPost,
			operation: nil,
			want:      []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeWrite},
		},
		{
			name:   "unrelated metadata falls back to method",
			method: http.MethodGet,
			operation: &huma.Operation{
				Path:     "/{id}",
				Metadata: map[string]any{"owner": "links"},
			},
			want: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRead},
		},
		{
			name:   "configured scope overrides method",
			method: http.MethodGet,
			operation: &huma.Operation{
				Path: "/{id}",
				Metadata: map[string]any{
					ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeWrite},
				},
			},
			want: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeWrite},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := resolver.Resolve(&routeContext{method: tt.method, operation: tt.operation})

			assert.Equal(t, tt.want, got)
			assert.Equal(t, ratelimit.ScopeGlobal, got[0])
		})
	}
}

func TestGetEndpointConfig(t *testing.T) {
	t.Parallel()

	t.Run("create carries its windows", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.GetEndpointConfig(&routeContext{method: http.MethodPost, operation: createOp})

		require.NotNil(t, cfg)
		assert.False(t, cfg.Disabled)
		assert.Equal(t, []ratelimit.LimitConfig{
			{Window: time.Minute, Max: 10},
			{Window: time.Hour, Max: 100},
		}, cfg.Limits)
	})

	t.Run("health is exempt", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.GetEndpointConfig(&routeContext{method: http.MethodGet, operation: healthOp})

		require.NotNil(t, cfg)
		assert.True(t, cfg.Disabled)
	})

	t.Run("no config", func(t *testing.T) {
		t.Parallel()

		for name, op := range map[string]*huma.Operation{
			"no operation":  nil,
			"no metadata":   redirectOp,
			"wrong type":    {Metadata: map[string]any{ratelimit.MetadataKey: "10/min"}},
			"pointer value": {Metadata: map[string]any{ratelimit.MetadataKey: &ratelimit.EndpointConfig{}}},
		} {
			assert.Nil(t, ratelimit.GetEndpointConfig(&routeContext{operation: op}), name)
		}
	})
}
