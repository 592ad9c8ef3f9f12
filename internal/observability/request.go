package observability

import (
	"net"
	"net/http"
	"strings"
)

// Request headers read at the edge. Browsers cannot set headers on a websocket
// handshake, so the device id is also accepted as a query parameter.
const (
	HeaderRequestID = "X-Request-Id"
	HeaderDeviceID  = "X-Device-Id"
	queryDeviceID   = "device_id"
)

func DeviceIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderDeviceID)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get(queryDeviceID))
}

// RequestIDFromRequest prefers the id stored by the request middleware over the raw header.
func RequestIDFromRequest(r *http.Request) string {
	if id := RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(HeaderRequestID))
}

func IPFromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
