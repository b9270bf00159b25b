// Package urlutil normalizes, validates and compares crawl URLs.
package urlutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Error represents a URL that could not be processed.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("url error for %q: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("url error for %q: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Normalize returns the canonical form of rawURL used as the crawl dedup key:
// lowercase scheme and host, default port dropped, fragment removed and no trailing slash on the path.
// A missing scheme defaults to http.
func Normalize(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", &Error{URL: rawURL, Message: "URL must be a non-empty string"}
	}
	if probe, err := url.Parse(trimmed); err == nil && probe.Scheme == "" {
		trimmed = "http://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to parse", Cause: err}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &Error{URL: rawURL, Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return "", &Error{URL: rawURL, Message: "missing host"}
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String(), nil
}

// IsValid reports whether rawURL is an absolute http(s) URL with a host.
func IsValid(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// RegistrableDomain returns the eTLD+1 of rawURL (e.g. "blog.example.co.uk" -> "example.co.uk").
// IP addresses and single-label hosts such as localhost are returned as-is.
func RegistrableDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to parse", Cause: err}
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", &Error{URL: rawURL, Message: "missing host"}
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, nil
	}
	return domain, nil
}

// SameSite reports whether two URLs share a registrable domain.
func SameSite(a, b string) bool {
	da, err := RegistrableDomain(a)
	if err != nil {
		return false
	}
	db, err := RegistrableDomain(b)
	if err != nil {
		return false
	}
	return da == db
}

// Resolve converts ref, possibly relative, into a normalized absolute URL against base.
func Resolve(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", &Error{URL: base, Message: "failed to parse base URL", Cause: err}
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return "", &Error{URL: base, Message: "base URL must have scheme and host"}
	}

	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", &Error{URL: ref, Message: "failed to parse reference", Cause: err}
	}

	return Normalize(baseURL.ResolveReference(refURL).String())
}

// Path returns the lowercase path component of rawURL, or "" when it cannot be parsed.
func Path(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Path)
}

// Host returns the lowercase hostname of rawURL, or "" when it cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
