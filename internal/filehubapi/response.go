// Package filehubapi decodes the response envelope used by the FileHub REST
// API. JSON endpoints wrap their payload as {"code": ..., "message": ...,
// "data": ...}; a few (notably file upload) return the resource directly, so
// decoding falls back to the raw body when no data field is present.
package filehubapi

import (
	"bytes"
	"encoding/json"
)

// Envelope is the standard FileHub API response wrapper.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ExtractData unwraps a FileHub API response, returning the JSON payload
// stored under the "data" field. If no such field exists the original body is
// returned unchanged.
func ExtractData(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var envelope Envelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil || !hasPayload(envelope.Data) {
		// Body is either not an object or carries no data field.
		return append([]byte(nil), trimmed...), nil
	}
	return append([]byte(nil), envelope.Data...), nil
}

// DecodeData decodes the JSON payload obtained via ExtractData into out.
// When the response body is empty, out is populated with a JSON null.
func DecodeData(body []byte, out any) error {
	payload, err := ExtractData(body)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		payload = []byte("null")
	}
	return json.Unmarshal(payload, out)
}

// hasPayload reports whether a decoded data field holds an actual value.
// RawMessage keeps a JSON null as the literal bytes "null".
func hasPayload(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Message extracts the envelope message from a response or error body, if
// present. Callers use it to surface server-provided error text.
func Message(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var envelope Envelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}
