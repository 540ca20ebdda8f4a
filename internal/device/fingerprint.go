// Package device derives the advisory device fingerprint of an HTTP request.
//
// The fingerprint participates in session matching only; it is not an
// authentication factor.
package device

import (
	"net"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dtroode/sessionkeeper/internal/model"
)

const (
	unknownIP        = "unknown"
	unknownUserAgent = "Unknown"

	// Column limits of the sessions table.
	maxDeviceLen = 100
	maxIPLen     = 45
)

// FromRequest extracts {device, ip, user agent} from request headers and the socket address.
func FromRequest(r *http.Request) model.DeviceInfo {
	userAgent := sanitize(r.Header.Get("User-Agent"))
	device := Classify(userAgent)
	if userAgent == "" {
		userAgent = unknownUserAgent
	}

	return model.DeviceInfo{
		Device:    truncate(device, maxDeviceLen),
		IPAddress: truncate(sanitize(clientIP(r)), maxIPLen),
		UserAgent: userAgent,
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
		return unknownIP
	}

	if r.RemoteAddr == "" {
		return unknownIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Classify maps a user agent to a coarse human-readable device class.
func Classify(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "iphone"):
		return "iPhone"
	case strings.Contains(ua, "ipad"):
		return "iPad"
	case strings.Contains(ua, "android"):
		if strings.Contains(ua, "mobile") {
			return "Android Phone"
		}
		return "Android Tablet"
	case strings.Contains(ua, "windows"):
		return "Windows PC"
	case strings.Contains(ua, "macintosh"), strings.Contains(ua, "mac os"):
		return "Mac"
	case strings.Contains(ua, "linux"):
		return "Linux PC"
	case strings.Contains(ua, "mobile"):
		return "Mobile Device"
	default:
		return "Desktop"
	}
}

// sanitize replaces invalid UTF-8 so the values can be stored in text columns.
func sanitize(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
