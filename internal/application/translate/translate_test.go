package translate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"storefront-bff/internal/application/forward"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateSuccess(t *testing.T) {
	body := []byte("{\"id\":42,\n \"name\":\"kettle\"}")

	resp := Translate(forward.Success{Status: http.StatusOK, Body: body})
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, body, resp.Body)
	assert.Equal(t, "application/json", resp.ContentType)

	resp = Translate(forward.Success{Status: http.StatusConflict, Body: []byte("plain"), ContentType: "text/plain; charset=utf-8"})
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "plain", string(resp.Body))
	assert.Equal(t, "text/plain; charset=utf-8", resp.ContentType)
}

func TestTranslateFailures(t *testing.T) {
	leak := errors.New("dial tcp 10.0.0.7:8083: connect: connection refused")

	tests := []struct {
		kind   forward.Kind
		status int
		body   string
	}{
		{forward.KindTimeout, http.StatusGatewayTimeout, `{"message":"Request timeout"}`},
		{forward.KindUnreachable, http.StatusServiceUnavailable, `{"message":"Service unavailable"}`},
		{forward.KindOther, http.StatusServiceUnavailable, `{"message":"Service unavailable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			resp := Translate(forward.TransportFailure{Kind: tt.kind, Err: leak})
			assert.Equal(t, tt.status, resp.Status)
			assert.JSONEq(t, tt.body, string(resp.Body))
			assert.NotContains(t, string(resp.Body), "10.0.0.7")
			assert.Equal(t, "application/json", resp.ContentType)
		})
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, Error(http.StatusBadRequest, "Query param 'service' required: order|inventory|payment"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Query param 'service' required: order|inventory|payment"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Write(rec, Response{Status: http.StatusNoContent, ContentType: "application/json"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestWriteRedirect(t *testing.T) {
	resp := Translate(forward.Success{Status: http.StatusSeeOther, Body: []byte(`{"redirect":true}`), Location: "/api/orders/99"})

	rec := httptest.NewRecorder()
	Write(rec, resp)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/api/orders/99", rec.Header().Get("Location"))
	assert.Equal(t, `{"redirect":true}`, rec.Body.String())
}
