// Package router resolves inbound paths to a backend and the path to call
// on it.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"storefront-bff/internal/application/registry"
	"storefront-bff/internal/models"
	"strings"
)

var (
	ErrUnmatched      = errors.New("unsupported path")
	ErrInvalidService = errors.New("invalid service selector")
)

// Target is a resolved backend call.
type Target struct {
	Backend  models.BackendDescriptor
	Mount    models.Mount
	Path     string
	RawQuery string
}

// URL joins the backend base address, rewritten path and the original
// query string, which is kept byte-for-byte.
func (t Target) URL() string {
	u := strings.TrimRight(t.Backend.BaseAddress.String(), "/") + t.Path
	if t.RawQuery != "" {
		u += "?" + t.RawQuery
	}
	return u
}

type Router struct {
	registry *registry.Registry
	mounts   []models.Mount
}

func New(reg *registry.Registry) *Router {
	return &Router{
		registry: reg,
		mounts:   reg.Mounts(),
	}
}

// Route picks the mount covering path. path is the escaped request path.
func (r *Router) Route(path, rawQuery string) (Target, error) {
	if !clean(path) {
		return Target{}, fmt.Errorf("%s: %w", path, ErrUnmatched)
	}

	for _, m := range r.mounts {
		if !registry.Covers(m.Prefix, path) {
			continue
		}
		backend, err := r.registry.Resolve(m.Service)
		if err != nil {
			return Target{}, err
		}
		return Target{
			Backend:  backend,
			Mount:    m,
			Path:     rewrite(m, path),
			RawQuery: rawQuery,
		}, nil
	}

	return Target{}, fmt.Errorf("%s: %w", path, ErrUnmatched)
}

// RouteService resolves an admin path against the backend named by
// selector. Only transactional services own admin resources.
func (r *Router) RouteService(selector, path, rawQuery string) (Target, error) {
	name, ok := models.ParseServiceName(selector)
	if !ok || !name.Transactional() {
		return Target{}, fmt.Errorf("%q: %w", selector, ErrInvalidService)
	}

	m := registry.AdminMount
	if !clean(path) || !registry.Covers(m.Prefix, path) {
		return Target{}, fmt.Errorf("%s: %w", path, ErrUnmatched)
	}

	backend, err := r.registry.Resolve(name)
	if err != nil {
		return Target{}, err
	}
	m.Service = name

	return Target{
		Backend:  backend,
		Mount:    m,
		Path:     rewrite(m, path),
		RawQuery: rawQuery,
	}, nil
}

func rewrite(m models.Mount, path string) string {
	return m.Root + strings.TrimPrefix(path, m.Prefix)
}

// clean rejects dot segments so a rewritten path cannot climb out of its
// mount on the backend.
func clean(path string) bool {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(decoded, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}
	return strings.HasPrefix(path, "/")
}
