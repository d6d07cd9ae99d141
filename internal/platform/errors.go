package platform

import (
	"fmt"
	"net/http"
)

// UpstreamError is a non-2xx response from the issuing platform. Payload holds
// the parsed error body when the platform returned JSON; otherwise the raw
// body text is kept as the message.
type UpstreamError struct {
	Status  int
	Payload map[string]any
	raw     string
}

func (e *UpstreamError) Error() string {
	msg := e.Message()
	if hint := e.hint(); hint != "" {
		return fmt.Sprintf("platform returned %d: %s (%s)", e.Status, msg, hint)
	}
	return fmt.Sprintf("platform returned %d: %s", e.Status, msg)
}

// Message extracts the human-readable message from the known platform error
// shapes: error_message, message, or the plain body. Falls back to the HTTP
// status text.
func (e *UpstreamError) Message() string {
	for _, key := range []string{"error_message", "message"} {
		if s, ok := e.Payload[key].(string); ok && s != "" {
			return s
		}
	}
	if e.raw != "" {
		return e.raw
	}
	return http.StatusText(e.Status)
}

func (e *UpstreamError) hint() string {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "check the application and admin tokens"
	case http.StatusNotFound:
		return "check the platform base URL and resource token"
	case http.StatusConflict:
		return "a resource with this token already exists"
	default:
		return ""
	}
}
