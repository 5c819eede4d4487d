// Package registry holds the immutable table of backend addresses and the
// path mounts that select them.
package registry

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"storefront-bff/internal/models"
	"strings"
)

var ErrNotFound = errors.New("backend not found")

// AdminMount is selected by an explicit service parameter, never by prefix.
var AdminMount = models.Mount{
	Prefix:  "/api/admin/failed-events",
	Root:    "/api/admin/failed-events",
	Methods: []string{http.MethodGet, http.MethodPost},
}

// DefaultMounts is the inbound routing table. Prefixes must not overlap.
func DefaultMounts() []models.Mount {
	return []models.Mount{
		{Prefix: "/api/auth", Root: "/api/auth", Service: models.ServiceUser, Methods: []string{http.MethodGet, http.MethodPost}},
		{Prefix: "/api/users", Root: "/api/users", Service: models.ServiceUser, Methods: []string{http.MethodGet}},
		{Prefix: "/api/orders", Root: "/api/orders", Service: models.ServiceOrder, Methods: []string{http.MethodGet, http.MethodPost}},
		{Prefix: "/api/payments", Root: "/api/payments", Service: models.ServicePayment, Methods: []string{http.MethodGet}},
		{Prefix: "/api/products", Root: "/api/products", Service: models.ServiceInventory, Methods: []string{http.MethodGet}},
	}
}

type Registry struct {
	backends map[models.ServiceName]models.BackendDescriptor
	mounts   []models.Mount
}

// New builds the registry from one address per backend. Every service in
// models.AllServices must be present.
func New(addresses map[models.ServiceName]string) (*Registry, error) {
	return NewWithMounts(addresses, DefaultMounts())
}

func NewWithMounts(addresses map[models.ServiceName]string, mounts []models.Mount) (*Registry, error) {
	if err := checkMounts(mounts); err != nil {
		return nil, err
	}

	primary := make(map[models.ServiceName]string)
	for _, m := range mounts {
		if _, ok := primary[m.Service]; !ok {
			primary[m.Service] = m.Prefix
		}
	}

	backends := make(map[models.ServiceName]models.BackendDescriptor, len(addresses))
	for _, name := range models.AllServices() {
		raw, ok := addresses[name]
		if !ok || strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("address for %s service is missing", name)
		}

		base, err := parseBase(raw)
		if err != nil {
			return nil, fmt.Errorf("address for %s service: %w", name, err)
		}

		mountPrefix := primary[name]
		if name.Transactional() && mountPrefix == "" {
			mountPrefix = AdminMount.Prefix
		}

		backends[name] = models.BackendDescriptor{
			Name:        name,
			BaseAddress: base,
			MountPrefix: mountPrefix,
		}
	}

	return &Registry{
		backends: backends,
		mounts:   append([]models.Mount(nil), mounts...),
	}, nil
}

func (r *Registry) Resolve(name models.ServiceName) (models.BackendDescriptor, error) {
	b, ok := r.backends[name]
	if !ok {
		return models.BackendDescriptor{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return b, nil
}

// Mounts returns a copy of the routing table.
func (r *Registry) Mounts() []models.Mount {
	return append([]models.Mount(nil), r.mounts...)
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("host is empty")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("query and fragment are not allowed")
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u, nil
}

func checkMounts(mounts []models.Mount) error {
	for i, a := range mounts {
		if !strings.HasPrefix(a.Prefix, "/") || strings.HasSuffix(a.Prefix, "/") {
			return fmt.Errorf("mount %q must start and not end with /", a.Prefix)
		}
		if _, ok := models.ParseServiceName(a.Service.String()); !ok {
			return fmt.Errorf("mount %q has no backend", a.Prefix)
		}
		if len(a.Methods) == 0 {
			return fmt.Errorf("mount %q allows no methods", a.Prefix)
		}
		for _, b := range mounts[i+1:] {
			if Covers(a.Prefix, b.Prefix) || Covers(b.Prefix, a.Prefix) {
				return fmt.Errorf("mounts %q and %q overlap", a.Prefix, b.Prefix)
			}
		}
		if Covers(a.Prefix, AdminMount.Prefix) || Covers(AdminMount.Prefix, a.Prefix) {
			return fmt.Errorf("mount %q overlaps the admin mount", a.Prefix)
		}
	}
	return nil
}

// Covers reports whether path lies under prefix on a segment boundary.
func Covers(prefix, path string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
