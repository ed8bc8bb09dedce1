package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

// Envelope mirrors the response envelope with the payload left undecoded.
type Envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// ParseEnvelope decodes the response envelope and, when data is non-nil,
// its payload into data. The envelope's statusCode must match the HTTP status.
func ParseEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse response envelope: %v. Body: %s", err, rec.Body.String())
	}
	if env.StatusCode != rec.Code {
		t.Errorf("envelope statusCode %d does not match HTTP status %d", env.StatusCode, rec.Code)
	}
	if env.Success != (rec.Code < 400) {
		t.Errorf("envelope success=%v for HTTP status %d", env.Success, rec.Code)
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("failed to parse response data: %v. Body: %s", err, rec.Body.String())
		}
	}
	return env
}
