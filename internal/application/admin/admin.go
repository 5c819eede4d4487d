// Package admin serves the failed-event dashboard. Every request names the
// backend it targets, except the count fan-out which asks all of them.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"storefront-bff/internal/application/forward"
	"storefront-bff/internal/application/metrics"
	"storefront-bff/internal/application/router"
	"storefront-bff/internal/application/translate"
	"storefront-bff/internal/models"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

const (
	CountPath       = "/api/admin/failed-events/count"
	SelectorParam   = "service"
	SelectorMessage = "Query param 'service' required: order|inventory|payment"
)

type Forwarder interface {
	ForwardWithin(ctx context.Context, budget time.Duration, target router.Target, req *forward.Request) forward.Outcome
}

type Aggregator struct {
	router    *router.Router
	forwarder Forwarder
	timeout   time.Duration
	fanout    time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New builds an aggregator. timeout applies to scoped calls; fanout is the
// per-backend budget of the count fan-out.
func New(logger *slog.Logger, m *metrics.Metrics, rt *router.Router, fw Forwarder, timeout, fanout time.Duration) *Aggregator {
	return &Aggregator{
		router:    rt,
		forwarder: fw,
		timeout:   timeout,
		fanout:    min(fanout, timeout),
		logger:    logger,
		metrics:   m,
	}
}

// Dispatch relays a list or action call to the backend named by selector.
// An invalid selector is rejected before anything goes on the wire.
func (a *Aggregator) Dispatch(ctx context.Context, selector string, req *forward.Request) translate.Response {
	target, err := a.router.RouteService(selector, req.Path, req.RawQuery)
	switch {
	case errors.Is(err, router.ErrInvalidService):
		return translate.Error(http.StatusBadRequest, SelectorMessage)
	case err != nil:
		return translate.Error(http.StatusBadRequest, "Unsupported path")
	}

	return translate.Translate(a.forwarder.ForwardWithin(ctx, a.timeout, target, req))
}

// Counts asks every transactional backend for its failed-event count at
// once. A backend that fails in any way counts as zero; the result always
// lists order, inventory and payment in that order.
func (a *Aggregator) Counts(ctx context.Context, header http.Header) []models.ServiceCount {
	services := models.TransactionalServices()
	counts := make([]models.ServiceCount, len(services))

	var wg sync.WaitGroup
	for i, svc := range services {
		counts[i] = models.ServiceCount{Service: svc}

		wg.Add(1)
		go func(i int, svc models.ServiceName) {
			defer wg.Done()
			counts[i].FailedCount = a.count(ctx, svc, header)
		}(i, svc)
	}
	wg.Wait()

	return counts
}

func (a *Aggregator) count(ctx context.Context, svc models.ServiceName, header http.Header) int64 {
	target, err := a.router.RouteService(svc.String(), CountPath, "")
	if err != nil {
		a.fallback(ctx, svc, "route", err.Error())
		return 0
	}

	req := &forward.Request{
		Method: http.MethodGet,
		Path:   CountPath,
		Header: header.Clone(),
	}

	switch o := a.forwarder.ForwardWithin(ctx, a.fanout, target, req).(type) {
	case forward.Success:
		if !o.OK() {
			a.fallback(ctx, svc, "status", http.StatusText(o.Status))
			return 0
		}
		v := gjson.GetBytes(o.Body, "failedCount")
		if v.Type != gjson.Number {
			a.fallback(ctx, svc, "body", "failedCount missing")
			return 0
		}
		return v.Int()
	case forward.TransportFailure:
		a.fallback(ctx, svc, "transport", o.Kind.String())
	}
	return 0
}

func (a *Aggregator) fallback(ctx context.Context, svc models.ServiceName, stage, reason string) {
	a.metrics.CountFallback(svc.String())
	a.logger.WarnContext(ctx, "failed event count unavailable",
		"service", svc.String(),
		"stage", stage,
		"reason", reason,
	)
}

// CountBody mirrors the per-service count endpoint.
type CountBody struct {
	FailedCount int64 `json:"failedCount"`
}

// CountsEnvelope is the dashboard payload: one object per service plus the
// same counts as an ordered list.
type CountsEnvelope struct {
	Order     CountBody             `json:"order"`
	Inventory CountBody             `json:"inventory"`
	Payment   CountBody             `json:"payment"`
	Services  []models.ServiceCount `json:"services"`
}

func Envelope(counts []models.ServiceCount) CountsEnvelope {
	env := CountsEnvelope{Services: counts}
	for _, c := range counts {
		switch c.Service {
		case models.ServiceOrder:
			env.Order.FailedCount = c.FailedCount
		case models.ServiceInventory:
			env.Inventory.FailedCount = c.FailedCount
		case models.ServicePayment:
			env.Payment.FailedCount = c.FailedCount
		}
	}
	return env
}
