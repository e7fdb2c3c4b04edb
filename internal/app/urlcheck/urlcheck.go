// Package urlcheck holds the pure string rules applied to long URLs before they are stored.
package urlcheck

import (
	"net"
	"net/url"
	"strings"
)

const (
	schemeSeparator = "://"
	defaultScheme   = "http://"
)

// Normalize prefixes scheme-less input with http://. Input that already carries
// a scheme separator is returned unchanged.
func Normalize(input string) string {
	if strings.Contains(input, schemeSeparator) {
		return input
	}
	return defaultScheme + input
}

// IsValid reports whether input is an absolute URL with a scheme and a resolvable host.
// Strings without "://" are rejected before parsing.
func IsValid(input string) bool {
	if !strings.Contains(input, schemeSeparator) {
		return false
	}

	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		return false
	}
	return isResolvableHost(u.Hostname())
}

// IsAcceptable accepts input when either the raw string or its normalized form is valid.
func IsAcceptable(input string) bool {
	return IsValid(input) || IsValid(Normalize(input))
}

// Sanitize drops ASCII control characters and trims surrounding whitespace.
func Sanitize(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)
	return strings.TrimSpace(cleaned)
}

func isResolvableHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if net.ParseIP(host) != nil {
		return true
	}

	host = strings.TrimSuffix(host, ".")
	if len(host) > 253 {
		return false
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !isDNSLabel(label) {
			return false
		}
	}
	return true
}

func isDNSLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		case r > 127:
			// internationalized labels are accepted as typed
		default:
			return false
		}
	}
	return true
}
