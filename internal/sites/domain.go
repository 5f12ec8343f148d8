package sites

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// MaxSiteIDLength caps the subdomain label length.
const MaxSiteIDLength = 30

var (
	siteIDInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)
	siteIDDashRuns     = regexp.MustCompile(`-+`)
)

// SanitizeCustomDomain validates and normalizes a custom domain value.
// It returns the host in lowercase with any scheme, trailing slash, and
// leading www. removed. An empty input yields an empty result without error.
func SanitizeCustomDomain(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", nil
	}

	cleaned = strings.ToLower(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "http://")
	cleaned = strings.TrimPrefix(cleaned, "https://")
	cleaned = strings.Trim(cleaned, "/")
	cleaned = strings.TrimPrefix(cleaned, "www.")

	if strings.ContainsAny(cleaned, " \t\r\n") {
		return "", fmt.Errorf("domain cannot contain whitespace")
	}
	if strings.Contains(cleaned, "*") {
		return "", fmt.Errorf("wildcards are not allowed in custom domains")
	}

	// url.Parse validates host[:port] without allowing paths or queries.
	u, err := url.Parse("http://" + cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid domain format")
	}
	if u.Host == "" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("domain must not include path, query, or fragment")
	}

	return u.Hostname(), nil
}

// SanitizeSiteID normalizes a subdomain label: lowercase, [a-z0-9-] only,
// collapsed dashes, capped length. An empty result falls back to "site".
func SanitizeSiteID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	id = siteIDInvalidChars.ReplaceAllString(id, "-")
	id = siteIDDashRuns.ReplaceAllString(id, "-")
	id = strings.Trim(id, "-")
	if id == "" {
		id = "site"
	}
	if len(id) > MaxSiteIDLength {
		id = id[:MaxSiteIDLength]
		id = strings.Trim(id, "-")
	}
	return id
}

// SiteIDFromDomain derives a subdomain label from a custom domain, taking the
// first label as the base.
func SiteIDFromDomain(domain string) string {
	v := strings.ToLower(strings.TrimSpace(domain))
	v = strings.TrimPrefix(v, "http://")
	v = strings.TrimPrefix(v, "https://")
	v = strings.Trim(v, "/")
	v = strings.TrimPrefix(v, "www.")

	base := v
	if idx := strings.Index(v, "."); idx >= 0 {
		base = v[:idx]
	}
	return SanitizeSiteID(base)
}
