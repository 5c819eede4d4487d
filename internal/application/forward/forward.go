// Package forward executes a single backend call with a fixed deadline.
package forward

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"storefront-bff/internal/application/credential"
	"storefront-bff/internal/application/metrics"
	"storefront-bff/internal/application/router"
	"storefront-bff/internal/application/tracing"
	"strconv"
	"syscall"
	"time"
)

type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	// Transport overrides the pooled transport, mainly for tests.
	Transport http.RoundTripper
}

type Forwarder struct {
	client  *http.Client
	timeout time.Duration
	maxBody int64
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(logger *slog.Logger, m *metrics.Metrics, opts Options) *Forwarder {
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          1000,
			MaxIdleConnsPerHost:   100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8 << 20
	}

	return &Forwarder{
		client: &http.Client{
			Transport: transport,
			// backend redirects are relayed to the caller, never followed
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: opts.Timeout,
		maxBody: opts.MaxBodyBytes,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

func (f *Forwarder) Timeout() time.Duration {
	return f.timeout
}

// Forward makes exactly one attempt against target within the configured
// budget.
func (f *Forwarder) Forward(ctx context.Context, target router.Target, req *Request) Outcome {
	return f.ForwardWithin(ctx, f.timeout, target, req)
}

// ForwardWithin is Forward with an explicit budget. The budget runs from
// dispatch until the response body has been read.
func (f *Forwarder) ForwardWithin(ctx context.Context, budget time.Duration, target router.Target, req *Request) Outcome {
	start := f.now()
	auth, hasAuth := credential.Propagate(req.Header)

	outcome := f.do(ctx, budget, target, req, auth, hasAuth)

	f.record(ctx, target, req, outcome, credential.Describe(auth, hasAuth, start), f.now().Sub(start))
	return outcome
}

func (f *Forwarder) do(ctx context.Context, budget time.Duration, target router.Target, req *Request, auth string, hasAuth bool) Outcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var body io.Reader
	if carriesBody(req.Method) && len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	out, err := http.NewRequestWithContext(ctx, req.Method, target.URL(), body)
	if err != nil {
		return TransportFailure{Kind: KindOther, Err: err}
	}
	out.Header.Set("Content-Type", "application/json")
	if hasAuth {
		out.Header.Set(credential.HeaderAuthorization, auth)
	}
	if id := tracing.RequestID(ctx); id != "" {
		out.Header.Set(tracing.HeaderRequestID, id)
	}

	timer := time.AfterFunc(budget, cancel)

	resp, err := f.client.Do(out)
	if err != nil {
		return TransportFailure{Kind: classify(err, !timer.Stop()), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	fired := !timer.Stop()
	if err != nil {
		return TransportFailure{Kind: classify(err, fired), Err: err}
	}
	if int64(len(data)) > f.maxBody {
		return TransportFailure{Kind: KindOther, Err: errors.New("backend response too large")}
	}

	return Success{
		Status:      resp.StatusCode,
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Location:    resp.Header.Get("Location"),
	}
}

func classify(err error, timedOut bool) Kind {
	if timedOut || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindOther
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return KindUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindOther
}

func (f *Forwarder) record(ctx context.Context, target router.Target, req *Request, outcome Outcome, cred credential.State, elapsed time.Duration) {
	backend := target.Backend.Name.String()
	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.String("backend", target.Backend.BaseAddress.String()),
		slog.String("service", backend),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
		slog.String("credential", string(cred)),
	}
	if id := tracing.RequestID(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}

	switch o := outcome.(type) {
	case Success:
		level := slog.LevelInfo
		if o.Status >= 400 {
			level = slog.LevelWarn
		}
		f.logger.LogAttrs(ctx, level, "proxy", append(attrs, slog.Int("status", o.Status))...)
		f.metrics.ObserveBackend(backend, strconv.Itoa(o.Status), elapsed)
	case TransportFailure:
		f.logger.LogAttrs(ctx, slog.LevelError, "proxy_error",
			append(attrs, slog.String("error", o.Kind.String()), slog.String("cause", errString(o.Err)))...)
		f.metrics.ObserveBackend(backend, o.Kind.String(), elapsed)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
