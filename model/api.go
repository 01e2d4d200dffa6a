package model

import (
	"bytes"
	"encoding/json"
)

// Post a clip HTTP request.
type (
	PushRequest struct {
		// Content kind: "text" or "image" (required)
		Type string `json:"type"`
		// Payload (required; empty string is allowed, null is not)
		Data json.RawMessage `json:"data"`
		// Advisory content type (optional, defaulted from Type)
		Mime string `json:"mime,omitempty"`
		// Producing endpoint (optional, defaults to "desktop")
		Source string `json:"source,omitempty"`
	}

	// AckResponse acknowledges an accepted write.
	AckResponse struct {
		Status string `json:"status"`
	}

	// ErrorResponse is the body of every non-2xx response.
	ErrorResponse struct {
		Error string `json:"error"`
	}
)

var jsonNull = []byte("null")

// HasData reports whether the request carries a payload (missing and JSON null do not count).
func (r PushRequest) HasData() bool {
	return len(r.Data) > 0 && !bytes.Equal(r.Data, jsonNull)
}
