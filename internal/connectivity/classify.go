package connectivity

import (
	"net/url"
	"regexp"
	"strings"
)

// HostClass tells whether a host sits on a private network or the public internet.
type HostClass string

const (
	Local  HostClass = "local"
	Public HostClass = "public"
)

var localHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^192\.168\.`),
	regexp.MustCompile(`^10\.`),
	regexp.MustCompile(`^172\.(1[6-9]|2[0-9]|3[0-1])\.`),
	regexp.MustCompile(`^127\.`),
	regexp.MustCompile(`(?i)^localhost$`),
}

// IsLocalNetwork reports whether the hostname of raw looks like a home or
// private network address. Unparseable input is treated as public.
func IsLocalNetwork(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	hostname := u.Hostname()
	if hostname == "" {
		return false
	}

	for _, pattern := range localHostPatterns {
		if pattern.MatchString(hostname) {
			return true
		}
	}

	return !strings.Contains(hostname, ".") || strings.HasSuffix(hostname, ".local")
}

// Classify maps raw onto a HostClass.
func Classify(raw string) HostClass {
	if IsLocalNetwork(raw) {
		return Local
	}
	return Public
}

// NormalizeURL prefixes a bare host with a scheme. Local hosts get http when
// preferHTTPForLocal is set, everything else gets https. Input that already
// carries an http or https scheme is returned unchanged.
func NormalizeURL(raw string, preferHTTPForLocal bool) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	candidate := "http://" + raw
	if preferHTTPForLocal && IsLocalNetwork(candidate) {
		return candidate
	}
	return "https://" + raw
}
