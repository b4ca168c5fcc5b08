package media

import (
	"net/url"
	"strings"
)

// DefaultPlaceholderURL is served whenever no real asset can be bound. It is
// always considered safe.
const DefaultPlaceholderURL = "https://images.unsplash.com/photo-1500530855697-b586d89ba3ee?auto=format&fit=crop&w=900&q=60"

// AllowList decides which media URLs may reach rendered output. Anything not
// explicitly allowed is rejected and replaced with the placeholder upstream.
type AllowList struct {
	storageOrigin string
	placeholder   string
}

// NewAllowList builds the allow-list for a storage origin. A configured
// placeholder must itself pass the origin rules; otherwise the built-in
// default is used, so Placeholder() never returns an unvetted URL.
func NewAllowList(storageBaseURL, placeholderURL string) *AllowList {
	al := &AllowList{}
	if u, err := url.Parse(strings.TrimSpace(storageBaseURL)); err == nil && u.Scheme != "" && u.Host != "" {
		al.storageOrigin = u.Scheme + "://" + u.Host
	}
	al.placeholder = DefaultPlaceholderURL
	if ph := strings.TrimSpace(placeholderURL); ph != "" && al.allowedOrigin(ph) {
		al.placeholder = ph
	}
	return al
}

// Placeholder returns the configured safe fallback URL.
func (al *AllowList) Placeholder() string {
	if al == nil || al.placeholder == "" {
		return DefaultPlaceholderURL
	}
	return al.placeholder
}

// Allowed reports whether raw may be emitted in a rendered page. Allowed
// sources are the configured storage origin (object paths only), loopback
// hosts for development, and the validated placeholder.
func (al *AllowList) Allowed(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == al.Placeholder() {
		return raw != ""
	}
	return al.allowedOrigin(raw)
}

// allowedOrigin applies the origin rules alone, with only the built-in
// default exempt. Used to vet a configured placeholder before it becomes
// the special case Allowed honors.
func (al *AllowList) allowedOrigin(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if raw == DefaultPlaceholderURL {
		return true
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return true
	}

	if al != nil && al.storageOrigin != "" {
		origin := u.Scheme + "://" + u.Host
		if origin == al.storageOrigin && strings.HasPrefix(u.Path, "/storage/v1/") {
			return true
		}
	}
	return false
}

// Sanitize returns raw when allowed, the placeholder otherwise.
func (al *AllowList) Sanitize(raw string) string {
	if al.Allowed(raw) {
		return strings.TrimSpace(raw)
	}
	return al.Placeholder()
}
