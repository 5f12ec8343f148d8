package sites

import "time"

// Device targeting modes a site can be configured with.
const (
	DeviceModeAndroid = "android"
	DeviceModeIOS     = "ios"
	DeviceModeDesktop = "desktop"
	DeviceModeAll     = "all"
)

// Counter column names accepted by Store.IncrementCounter.
const (
	CounterVisits       = "visits"
	CounterTargetVisits = "target_visits"
	CounterDownloads    = "downloads"
)

// Site is a hosted landing page, keyed by subdomain label or custom domain.
type Site struct {
	ID           int64
	SiteID       string
	Title        string
	Content      *string
	VideoURL     string
	Status       string
	DeviceMode   string
	CustomDomain *string
	Visits       int64
	TargetVisits int64
	Downloads    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasAsset reports whether the site has a stored downloadable asset reference.
func (s *Site) HasAsset() bool {
	return s.Content != nil && *s.Content != ""
}

// AssetName returns the stored asset filename, or "" when none is configured.
func (s *Site) AssetName() string {
	if s.Content == nil {
		return ""
	}
	return *s.Content
}

// Domain returns the bound custom domain, or "" when none is set.
func (s *Site) Domain() string {
	if s.CustomDomain == nil {
		return ""
	}
	return *s.CustomDomain
}
