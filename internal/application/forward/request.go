package forward

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrBodyTooLarge = errors.New("request body too large")

// Request is the inbound call as the forwarder sees it. It is not mutated
// after construction.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// NewRequest captures r. GET and HEAD never carry a body upstream, so
// theirs is not read.
func NewRequest(r *http.Request, maxBody int64) (*Request, error) {
	req := &Request{
		Method:   r.Method,
		Path:     r.URL.EscapedPath(),
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
	}

	if !carriesBody(r.Method) || r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if int64(len(body)) > maxBody {
		return nil, ErrBodyTooLarge
	}
	if len(body) > 0 {
		req.Body = body
	}
	return req, nil
}

func carriesBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}
