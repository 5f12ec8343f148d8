// Package render holds the per-request decision engine of the public path.
// Given a resolved site and the request's classification context, it picks
// exactly one of three response shapes (block, landing page, or raw file)
// and updates the site's counters on the way.
package render

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vitrina-host/vitrina/internal/assets"
	"github.com/vitrina-host/vitrina/internal/classify"
	"github.com/vitrina-host/vitrina/internal/logging"
	"github.com/vitrina-host/vitrina/internal/sites"
)

// Request is the classification context of one inbound request.
type Request struct {
	UserAgent       string
	ClientIP        string
	CountryOverride string // ?country= query value, trusted as-is
	Download        bool   // ?download=1 flag
}

// Kind enumerates the three possible response shapes.
type Kind int

const (
	// KindBlocked renders the not-found block page (device gate).
	KindBlocked Kind = iota
	// KindLanding renders the video landing page.
	KindLanding
	// KindFile serves the site's asset as a binary download.
	KindFile
)

// Landing carries everything the landing template needs.
type Landing struct {
	Country  string
	IsTarget bool
	IsOrigin bool
	VideoURL string
	HasAsset bool
}

// File describes an asset download response.
type File struct {
	Path     string
	MIMEType string
	Filename string
}

// Decision is the engine's verdict for one request.
type Decision struct {
	Kind    Kind
	Landing Landing
	File    File
}

// Counters is the slice of the sites store the engine mutates. All counter
// updates are best-effort: failures are logged and swallowed.
type Counters interface {
	IncrementCounter(ctx context.Context, id int64, counter string) error
}

// AssetResolver normalizes a stored asset reference into a path + existence.
type AssetResolver interface {
	Resolve(reference string) (path string, exists bool)
}

// SuspicionChecker flags automated clients.
type SuspicionChecker interface {
	Suspicious(ua, ip string) bool
}

// Config fixes the designated countries and the process-wide video fallback.
type Config struct {
	TargetCountry   string
	OriginCountry   string
	DefaultVideoURL string
}

// Engine composes the classifiers into the rendering decision.
type Engine struct {
	counters Counters
	assets   AssetResolver
	bots     SuspicionChecker
	country  func(ip string) string
	cfg      Config
}

// NewEngine creates a decision engine. country is the geo lookup used when
// no override is present.
func NewEngine(counters Counters, assetStore AssetResolver, bots SuspicionChecker, country func(ip string) string, cfg Config) *Engine {
	return &Engine{
		counters: counters,
		assets:   assetStore,
		bots:     bots,
		country:  country,
		cfg: Config{
			TargetCountry:   strings.ToUpper(cfg.TargetCountry),
			OriginCountry:   strings.ToUpper(cfg.OriginCountry),
			DefaultVideoURL: cfg.DefaultVideoURL,
		},
	}
}

// Decide evaluates the gate-then-classify pipeline for one request. It never
// fails: infrastructure hiccups on lookups and counters degrade to safe
// defaults, and the result is always one of the three response shapes.
func (e *Engine) Decide(ctx context.Context, req Request, site *sites.Site) Decision {
	// Device gate runs before anything else; blocked requests never reach
	// country counting.
	if classify.GateBlocks(site.DeviceMode, req.UserAgent) {
		return Decision{Kind: KindBlocked}
	}

	country := e.resolveCountry(req)
	isTarget := country == e.cfg.TargetCountry
	isOrigin := country == e.cfg.OriginCountry

	assetPath, hasAsset := e.assets.Resolve(site.AssetName())

	if isTarget {
		e.bump(ctx, site.ID, sites.CounterTargetVisits)
	}

	if isTarget && req.Download && hasAsset && !e.bots.Suspicious(req.UserAgent, req.ClientIP) {
		filename := filepath.Base(assetPath)
		e.bump(ctx, site.ID, sites.CounterDownloads)
		return Decision{
			Kind: KindFile,
			File: File{
				Path:     assetPath,
				MIMEType: assets.MIMEType(filename),
				Filename: filename,
			},
		}
	}

	videoURL := site.VideoURL
	if videoURL == "" {
		videoURL = e.cfg.DefaultVideoURL
	}

	return Decision{
		Kind: KindLanding,
		Landing: Landing{
			Country:  country,
			IsTarget: isTarget,
			IsOrigin: isOrigin,
			VideoURL: videoURL,
			HasAsset: hasAsset,
		},
	}
}

// resolveCountry honors the explicit override, then falls back to geo lookup.
func (e *Engine) resolveCountry(req Request) string {
	if req.CountryOverride != "" {
		return strings.ToUpper(strings.TrimSpace(req.CountryOverride))
	}
	return e.country(req.ClientIP)
}

func (e *Engine) bump(ctx context.Context, siteID int64, counter string) {
	if err := e.counters.IncrementCounter(ctx, siteID, counter); err != nil {
		logging.L().Warn("counter update failed",
			zap.Int64("site_id", siteID),
			zap.String("counter", counter),
			zap.Error(err))
	}
}
