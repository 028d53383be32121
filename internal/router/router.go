// Package router classifies inbound requests into the asset, create,
// resolve, method-not-allowed and not-found branches.
package router

import (
	"strings"

	"github.com/serroba/shortkv/internal/assets"
)

// Route is the branch a request is dispatched to.
type Route int

const (
	RouteNotFound Route = iota
	RouteAsset
	RouteCreate
	RouteResolve
	RouteMethodNotAllowed
)

// CreatePath is the creation endpoint.
const CreatePath = "/new"

// ReservedPrefix marks operational endpoints that bypass classification.
// "_" is outside the identifier alphabet so no short URL can collide with it.
const ReservedPrefix = "/_/"

func (r Route) String() string {
	switch r {
	case RouteAsset:
		return "asset"
	case RouteCreate:
		return "create"
	case RouteResolve:
		return "resolve"
	case RouteMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "not_found"
	}
}

// Decision is the outcome of Classify.
type Decision struct {
	Route Route
	// Path is the normalized request path.
	Path string
	// Identifier is set for RouteResolve.
	Identifier string
	// ContentType is set for RouteAsset.
	ContentType string
}

// Classify decides the branch for a request path and method. Asset paths
// win regardless of method.
func Classify(path, method string) Decision {
	path = assets.NormalizePath(path)
	d := Decision{Path: path}

	if ct, ok := assets.ContentType(path); ok {
		d.Route = RouteAsset
		d.ContentType = ct

		return d
	}

	if path == CreatePath {
		if strings.EqualFold(method, "POST") {
			d.Route = RouteCreate
		} else {
			d.Route = RouteMethodNotAllowed
		}

		return d
	}

	if strings.EqualFold(method, "GET") {
		d.Route = RouteResolve
		d.Identifier = strings.TrimPrefix(path, "/")

		return d
	}

	d.Route = RouteNotFound

	return d
}

// IsReserved reports whether path belongs to the operational endpoints.
func IsReserved(path string) bool {
	return strings.HasPrefix(path, ReservedPrefix)
}
