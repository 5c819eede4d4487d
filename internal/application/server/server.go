// Package server wires the gateway's HTTP surface.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"storefront-bff/internal/application/admin"
	"storefront-bff/internal/application/forward"
	"storefront-bff/internal/application/metrics"
	"storefront-bff/internal/application/ratelimit"
	"storefront-bff/internal/application/router"
	"storefront-bff/internal/application/tracing"
	"storefront-bff/internal/application/translate"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	MessageUnsupportedPath  = "Unsupported path"
	MessageMethodNotAllowed = "Method not allowed"
	MessageNotFound         = "Not found"
	MessageBodyTooLarge     = "Request body too large"
	MessageBadRequest       = "Malformed request"
)

type Forwarder interface {
	Forward(ctx context.Context, target router.Target, req *forward.Request) forward.Outcome
}

type Options struct {
	MaxBodyBytes int64
	Metrics      *metrics.Metrics
	Limiter      *ratelimit.Limiter
}

type handler struct {
	router    *router.Router
	forwarder Forwarder
	admin     *admin.Aggregator
	maxBody   int64
	logger    *slog.Logger
}

func New(logger *slog.Logger, rt *router.Router, fw Forwarder, agg *admin.Aggregator, opts Options) http.Handler {
	h := &handler{
		router:    rt,
		forwarder: fw,
		admin:     agg,
		maxBody:   opts.MaxBodyBytes,
		logger:    logger,
	}
	if h.maxBody <= 0 {
		h.maxBody = 8 << 20
	}

	r := chi.NewRouter()
	r.Use(ratelimit.Peer)
	r.Use(middleware.RealIP)
	r.Use(tracing.Middleware)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Instrument)
	}
	r.Use(opts.Limiter.Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		translate.Write(w, translate.Error(http.StatusNotFound, MessageNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		translate.Write(w, translate.Error(http.StatusMethodNotAllowed, MessageMethodNotAllowed))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		translate.Write(w, translate.JSON(http.StatusOK, map[string]string{"status": "ok"}))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api/admin/failed-events", func(r chi.Router) {
		r.Get("/count", h.counts)
		r.Get("/", h.dispatch)
		r.Post("/", h.dispatch)
		r.Get("/*", h.dispatch)
		r.Post("/*", h.dispatch)
	})
	r.HandleFunc("/api", h.proxy)
	r.HandleFunc("/api/*", h.proxy)

	return r
}

func (h *handler) proxy(w http.ResponseWriter, r *http.Request) {
	target, err := h.router.Route(r.URL.EscapedPath(), r.URL.RawQuery)
	if err != nil {
		h.logger.DebugContext(r.Context(), "unrouted request", "path", r.URL.Path, "error", err)
		translate.Write(w, translate.Error(http.StatusBadRequest, MessageUnsupportedPath))
		return
	}
	if !target.Mount.Allows(r.Method) {
		w.Header().Set("Allow", strings.Join(target.Mount.Methods, ", "))
		translate.Write(w, translate.Error(http.StatusMethodNotAllowed, MessageMethodNotAllowed))
		return
	}

	req, ok := h.capture(w, r)
	if !ok {
		return
	}

	translate.Write(w, translate.Translate(h.forwarder.Forward(r.Context(), target, req)))
}

func (h *handler) dispatch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.capture(w, r)
	if !ok {
		return
	}
	translate.Write(w, h.admin.Dispatch(r.Context(), r.URL.Query().Get(admin.SelectorParam), req))
}

// counts fans out to every backend unless the caller scoped the request
// to one service, in which case it is relayed like any admin call.
func (h *handler) counts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has(admin.SelectorParam) {
		h.dispatch(w, r)
		return
	}

	counts := h.admin.Counts(r.Context(), r.Header)
	translate.Write(w, translate.JSON(http.StatusOK, admin.Envelope(counts)))
}

func (h *handler) capture(w http.ResponseWriter, r *http.Request) (*forward.Request, bool) {
	req, err := forward.NewRequest(r, h.maxBody)
	switch {
	case errors.Is(err, forward.ErrBodyTooLarge):
		translate.Write(w, translate.Error(http.StatusRequestEntityTooLarge, MessageBodyTooLarge))
		return nil, false
	case err != nil:
		h.logger.WarnContext(r.Context(), "read request", "error", err)
		translate.Write(w, translate.Error(http.StatusBadRequest, MessageBadRequest))
		return nil, false
	}
	return req, true
}
