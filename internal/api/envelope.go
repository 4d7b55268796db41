package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// unwrapData returns the payload under a top-level "data" key, or the
// whole body when there is none. The API is not consistent about wrapping.
func unwrapData(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if body[0] != '{' {
		return json.RawMessage(body)
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return json.RawMessage(body)
	}
	if data, ok := env["data"]; ok {
		return data
	}
	return json.RawMessage(body)
}

// messageFrom extracts the most specific human message from an error body.
// Lookup order: a bare string body, error.message, error (as a string),
// message. Non-JSON text bodies are used verbatim.
func messageFrom(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var str string
	if err := json.Unmarshal(body, &str); err == nil {
		return strings.TrimSpace(str)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		// Plain-text or HTML from a proxy; only short text is useful.
		if text := string(body); len(text) <= 200 && !strings.HasPrefix(text, "<") && !json.Valid(body) {
			return text
		}
		return ""
	}

	if raw, ok := obj["error"]; ok {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && strings.TrimSpace(nested.Message) != "" {
			return strings.TrimSpace(nested.Message)
		}
		if err := json.Unmarshal(raw, &str); err == nil && strings.TrimSpace(str) != "" {
			return strings.TrimSpace(str)
		}
	}

	if raw, ok := obj["message"]; ok {
		if err := json.Unmarshal(raw, &str); err == nil {
			return strings.TrimSpace(str)
		}
	}
	return ""
}
