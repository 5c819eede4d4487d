// Package translate turns forwarding outcomes into client responses.
package translate

import (
	"encoding/json"
	"net/http"
	"storefront-bff/internal/application/forward"
)

const (
	MessageTimeout     = "Request timeout"
	MessageUnavailable = "Service unavailable"

	contentTypeJSON = "application/json"
)

type Response struct {
	Status      int
	Body        []byte
	ContentType string
	Location    string
}

type message struct {
	Message string `json:"message"`
}

// Translate keeps backend responses byte-for-byte and replaces transport
// failures with a fixed gateway error. Failure causes are never exposed.
func Translate(o forward.Outcome) Response {
	switch o := o.(type) {
	case forward.Success:
		ct := o.ContentType
		if ct == "" {
			ct = contentTypeJSON
		}
		return Response{Status: o.Status, Body: o.Body, ContentType: ct, Location: o.Location}
	case forward.TransportFailure:
		if o.Kind == forward.KindTimeout {
			return Error(http.StatusGatewayTimeout, MessageTimeout)
		}
		return Error(http.StatusServiceUnavailable, MessageUnavailable)
	}
	return Error(http.StatusServiceUnavailable, MessageUnavailable)
}

// Error is a gateway-generated failure with a message body.
func Error(status int, msg string) Response {
	return JSON(status, message{Message: msg})
}

func JSON(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"message":"Internal error"}`)
	}
	return Response{Status: status, Body: body, ContentType: contentTypeJSON}
}

func Write(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", resp.ContentType)
	if resp.Location != "" {
		w.Header().Set("Location", resp.Location)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}
