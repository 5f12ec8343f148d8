// Package handlers wires the HTTP surface: the public landing path, media
// serving, and the admin console.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/vitrina-host/vitrina/internal/logging"
	"github.com/vitrina-host/vitrina/internal/render"
	"github.com/vitrina-host/vitrina/internal/sites"
	"github.com/vitrina-host/vitrina/internal/tenant"
	"github.com/vitrina-host/vitrina/internal/web"
)

// Public serves the visitor-facing path: host resolution, the rendering
// decision, and the resulting page or file response.
type Public struct {
	store    *sites.Store
	resolver *tenant.Resolver
	engine   *render.Engine
}

// NewPublic creates the public handler set.
func NewPublic(store *sites.Store, resolver *tenant.Resolver, engine *render.Engine) *Public {
	return &Public{store: store, resolver: resolver, engine: engine}
}

// HandleRoot is the "/" entry. The Host header picks the site.
func (p *Public) HandleRoot(c fiber.Ctx) error {
	site, err := p.resolver.Resolve(c.Context(), c.Hostname())
	if errors.Is(err, tenant.ErrAdminHost) {
		return c.Redirect().Status(fiber.StatusSeeOther).To("/admin")
	}
	if errors.Is(err, tenant.ErrNoTenant) {
		return web.RenderStatus(c, fiber.StatusNotFound, "notfound", nil)
	}
	if err != nil {
		logging.L().Error("host resolution failed",
			zap.String("host", c.Hostname()), zap.Error(err))
		return web.RenderStatus(c, fiber.StatusNotFound, "notfound", nil)
	}

	// A site bound to a custom domain is canonical there; visits through
	// the base-domain subdomain get a permanent redirect.
	if domain := site.Domain(); domain != "" && tenant.NormalizeHost(c.Hostname()) != domain {
		target := c.Scheme() + "://" + domain + "/"
		if qs := string(c.RequestCtx().URI().QueryString()); qs != "" {
			target += "?" + qs
		}
		return c.Redirect().Status(fiber.StatusMovedPermanently).To(target)
	}

	return p.serveSite(c, site)
}

// HandleBySiteID is the path entry "/s/:site_id", usable on any tenant host.
// The console host keeps its own surface.
func (p *Public) HandleBySiteID(c fiber.Ctx) error {
	if p.resolver.IsAdminHost(c.Hostname()) {
		return c.Redirect().Status(fiber.StatusSeeOther).To("/admin")
	}

	site, err := p.store.FindBySubdomain(c.Context(), c.Params("site_id"))
	if errors.Is(err, sites.ErrNotFound) {
		return web.RenderStatus(c, fiber.StatusNotFound, "notfound", nil)
	}
	if err != nil {
		logging.L().Error("site lookup failed",
			zap.String("site_id", c.Params("site_id")), zap.Error(err))
		return web.RenderStatus(c, fiber.StatusNotFound, "notfound", nil)
	}
	return p.serveSite(c, site)
}

func (p *Public) serveSite(c fiber.Ctx, site *sites.Site) error {
	// Every resolved hit counts as a visit, before the gate runs.
	if err := p.store.IncrementCounter(c.Context(), site.ID, sites.CounterVisits); err != nil {
		logging.L().Warn("visit counter failed",
			zap.Int64("site_id", site.ID), zap.Error(err))
	}

	decision := p.engine.Decide(c.Context(), render.Request{
		UserAgent:       c.Get(fiber.HeaderUserAgent),
		ClientIP:        clientIP(c),
		CountryOverride: c.Query("country"),
		Download:        c.Query("download") == "1",
	}, site)

	switch decision.Kind {
	case render.KindFile:
		c.Set(fiber.HeaderContentType, decision.File.MIMEType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+decision.File.Filename+`"`)
		return c.SendFile(decision.File.Path)
	case render.KindLanding:
		l := decision.Landing
		return web.Render(c, "landing", fiber.Map{
			"Title":        site.Title,
			"VideoURL":     l.VideoURL,
			"ShowDownload": l.IsTarget && l.HasAsset,
		})
	default:
		return web.RenderStatus(c, fiber.StatusNotFound, "notfound", nil)
	}
}
