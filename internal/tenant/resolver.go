// Package tenant maps an inbound Host header to the site whose configuration
// should drive the response: custom-domain exact match first, then the
// subdomain label under the base domain.
package tenant

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/vitrina-host/vitrina/internal/sites"
)

// Resolution outcomes that are not site matches.
var (
	// ErrAdminHost signals that the request hit the operator console host;
	// the caller should redirect to the admin console.
	ErrAdminHost = errors.New("host is the admin console host")
	// ErrNoTenant signals no site owns the host.
	ErrNoTenant = errors.New("no site for host")
)

// SiteLookup is the slice of the sites store the resolver needs.
type SiteLookup interface {
	FindByCustomDomain(ctx context.Context, domain string) (*sites.Site, error)
	FindBySubdomain(ctx context.Context, label string) (*sites.Site, error)
}

// Resolver resolves hosts against a site lookup and a canonical admin host.
type Resolver struct {
	lookup    SiteLookup
	adminHost string
}

// NewResolver creates a host resolver. adminHost is the base domain serving
// the admin console; it is matched with and without a www. prefix.
func NewResolver(lookup SiteLookup, adminHost string) *Resolver {
	return &Resolver{
		lookup:    lookup,
		adminHost: strings.ToLower(adminHost),
	}
}

// Resolve returns the site owning the given host. It returns ErrAdminHost
// for the console host, ErrNoTenant when nothing matches, and passes through
// store failures otherwise.
func (r *Resolver) Resolve(ctx context.Context, host string) (*sites.Site, error) {
	h := NormalizeHost(host)
	if h == "" {
		return nil, ErrNoTenant
	}

	if r.IsAdminHost(h) {
		return nil, ErrAdminHost
	}

	site, err := r.lookup.FindByCustomDomain(ctx, h)
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, sites.ErrNotFound) {
		return nil, err
	}

	label := SubdomainLabel(h)
	if label == "" {
		return nil, ErrNoTenant
	}

	site, err = r.lookup.FindBySubdomain(ctx, label)
	if errors.Is(err, sites.ErrNotFound) {
		return nil, ErrNoTenant
	}
	if err != nil {
		return nil, err
	}
	return site, nil
}

// IsAdminHost reports whether the host is the console host, with or without
// a www. prefix. The host is normalized before matching.
func (r *Resolver) IsAdminHost(host string) bool {
	h := NormalizeHost(host)
	return r.adminHost != "" && (h == r.adminHost || h == "www."+r.adminHost)
}

// NormalizeHost strips an optional port suffix and lowercases the host.
func NormalizeHost(host string) string {
	h := strings.TrimSpace(host)
	if h == "" {
		return ""
	}
	if stripped, _, err := net.SplitHostPort(h); err == nil {
		h = stripped
	}
	return strings.ToLower(h)
}

// SubdomainLabel extracts the first label of a host with at least three
// dot-separated labels. A bare apex domain has no subdomain and yields "".
func SubdomainLabel(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}
