// Package device turns raw User-Agent headers into short display strings that
// are safe to attach to sessions and audit events.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns "<browser> on <os>" for a User-Agent header, or
// "Unknown Device" when the header is empty.
func ParseUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownDevice
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	browser = strings.TrimSpace(browser)
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := strings.TrimSpace(ua.OS())
	if platform == "" {
		platform = strings.TrimSpace(ua.Platform())
	}
	if platform == "" {
		platform = "Unknown OS"
	}
	return browser + " on " + platform
}
