package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/serroba/shortkv/internal/assets"
	"github.com/serroba/shortkv/internal/kv"
	"github.com/serroba/shortkv/internal/shortener"
	"go.uber.org/zap"
)

// WriteError writes err as a structured JSON error body.
func WriteError(w http.ResponseWriter, err error) {
	if errors.Is(err, kv.ErrNotFound) {
		err = shortener.NotFound()
	}

	e := shortener.AsError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.GetStatus())
	_ = json.NewEncoder(w).Encode(e)
}

// Middleware dispatches each request by Classify. Assets are served
// directly, create and single-segment resolve requests continue to next
// (the API operations), and everything else is answered with a
// structured error.
func Middleware(assetServer *assets.Server, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := url.ParseRequestURI(r.RequestURI)
			if err != nil {
				logger.Warn("unparseable request uri", zap.String("uri", r.RequestURI), zap.Error(err))
				WriteError(w, shortener.ServerError(err))

				return
			}

			if IsReserved(u.Path) {
				next.ServeHTTP(w, r)

				return
			}

			d := Classify(u.Path, r.Method)

			switch d.Route {
			case RouteAsset:
				assetServer.ServeAsset(w, r, assets.Key(d.Path), d.ContentType, WriteError)
			case RouteCreate:
				next.ServeHTTP(w, r)
			case RouteResolve:
				if strings.Contains(d.Identifier, "/") || !shortener.IsIdentifier(d.Identifier) {
					WriteError(w, shortener.NotFound())

					return
				}

				next.ServeHTTP(w, r)
			case RouteMethodNotAllowed:
				WriteError(w, shortener.MethodNotAllowed())
			default:
				WriteError(w, shortener.NotFound())
			}
		})
	}
}
