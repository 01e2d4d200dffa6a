package model

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Kind is a clip content kind.
type Kind string

const (
	TextKind  Kind = "text"
	ImageKind Kind = "image"
)

// ParseKind validates a raw kind value. Unknown kinds are rejected at the boundary.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case TextKind, ImageKind:
		return Kind(s), nil
	}

	return "", fmt.Errorf("kind (%s): must be %q or %q", s, TextKind, ImageKind)
}

// Origin identifies the endpoint that produced a clip.
type Origin string

const (
	DesktopOrigin Origin = "desktop"
	PhoneOrigin   Origin = "phone"
	UnknownOrigin Origin = ""
)

// ParseOrigin validates a raw origin value.
func ParseOrigin(s string) (Origin, error) {
	switch Origin(s) {
	case DesktopOrigin, PhoneOrigin:
		return Origin(s), nil
	}

	return UnknownOrigin, fmt.Errorf("origin (%s): must be %q or %q", s, DesktopOrigin, PhoneOrigin)
}

// Other returns the opposite endpoint origin.
func (o Origin) Other() Origin {
	switch o {
	case DesktopOrigin:
		return PhoneOrigin
	case PhoneOrigin:
		return DesktopOrigin
	}

	return UnknownOrigin
}

// Clip is the unit of synchronized clipboard content.
// The JSON layout (type, data, mime, source, createdAt) is both the wire format
// and the persisted slot format.
type Clip struct {
	// Content kind
	Type Kind `json:"type"`
	// Payload: typically a JSON string (base64-encoded for images)
	Data json.RawMessage `json:"data"`
	// Advisory content type
	Mime string `json:"mime"`
	// Producing endpoint
	Source Origin `json:"source"`
	// Server write timestamp (unix seconds)
	CreatedAt int64 `json:"createdAt"`
}

// PayloadBytes returns the content bytes fingerprints are computed over:
// the decoded string when Data is a JSON string, the raw JSON bytes otherwise.
func (c Clip) PayloadBytes() []byte {
	var s string
	if err := json.Unmarshal(c.Data, &s); err == nil {
		return []byte(s)
	}

	return c.Data
}

// Fingerprint returns the clip content fingerprint.
func (c Clip) Fingerprint() string {
	return Fingerprint(c.PayloadBytes())
}

// Fingerprint builds a content hash used for cheap change detection (not integrity).
func Fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)

	return hex.EncodeToString(sum[:])
}

// DefaultMime returns the advisory content type defaulted from a kind.
func DefaultMime(kind Kind) string {
	if kind == ImageKind {
		return "image/png"
	}

	return "text/plain"
}

// EncodePayload converts raw clipboard bytes to the wire payload string
// (images travel base64-encoded).
func EncodePayload(kind Kind, payload []byte) string {
	if kind == ImageKind {
		return base64.StdEncoding.EncodeToString(payload)
	}

	return string(payload)
}

// DecodePayload converts a wire payload string back to raw clipboard bytes.
func DecodePayload(kind Kind, data string) ([]byte, error) {
	if kind == ImageKind {
		payload, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("base64 decode: %w", err)
		}

		return payload, nil
	}

	return []byte(data), nil
}
