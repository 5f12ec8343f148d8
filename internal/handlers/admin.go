package handlers

import (
	"errors"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/vitrina-host/vitrina/internal/assets"
	"github.com/vitrina-host/vitrina/internal/logging"
	"github.com/vitrina-host/vitrina/internal/middleware"
	"github.com/vitrina-host/vitrina/internal/sites"
	"github.com/vitrina-host/vitrina/internal/web"
)

// Admin serves the site management console.
type Admin struct {
	store  *sites.Store
	assets *assets.Store
}

// NewAdmin creates the admin console handler set.
func NewAdmin(store *sites.Store, assetStore *assets.Store) *Admin {
	return &Admin{store: store, assets: assetStore}
}

// siteForm is the admin site form as submitted.
type siteForm struct {
	SiteID       string
	Title        string
	VideoURL     string
	CustomDomain string
	DeviceMode   string
	Status       string
}

func readSiteForm(c fiber.Ctx) siteForm {
	return siteForm{
		SiteID:       c.FormValue("site_id"),
		Title:        c.FormValue("title"),
		VideoURL:     c.FormValue("video_url"),
		CustomDomain: c.FormValue("custom_domain"),
		DeviceMode:   c.FormValue("device_mode"),
		Status:       c.FormValue("status"),
	}
}

func formFromSite(s *sites.Site) siteForm {
	return siteForm{
		SiteID:       s.SiteID,
		Title:        s.Title,
		VideoURL:     s.VideoURL,
		CustomDomain: s.Domain(),
		DeviceMode:   s.DeviceMode,
		Status:       s.Status,
	}
}

// HandleList is GET /admin.
func (a *Admin) HandleList(c fiber.Ctx) error {
	list, err := a.store.List(c.Context())
	if err != nil {
		logging.L().Error("site list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to list sites")
	}
	return web.Render(c, "admin_list", fiber.Map{
		"Admin": middleware.GetAdmin(c),
		"Sites": list,
	})
}

// ShowCreate is GET /admin/sites/new.
func (a *Admin) ShowCreate(c fiber.Ctx) error {
	return web.Render(c, "admin_form", fiber.Map{
		"Site": nil,
		"Form": siteForm{DeviceMode: sites.DeviceModeAll, Status: "new"},
	})
}

// HandleCreate is POST /admin/sites/new.
func (a *Admin) HandleCreate(c fiber.Ctx) error {
	form := readSiteForm(c)

	site, formErr := a.siteFromForm(c, form, nil)
	if formErr != "" {
		return web.RenderStatus(c, fiber.StatusBadRequest, "admin_form", fiber.Map{
			"Site": nil, "Form": form, "Error": formErr,
		})
	}

	if err := a.store.Create(c.Context(), site); err != nil {
		return a.storeErrorResponse(c, nil, form, err)
	}
	return c.Redirect().Status(fiber.StatusSeeOther).To("/admin")
}

// ShowEdit is GET /admin/sites/:id.
func (a *Admin) ShowEdit(c fiber.Ctx) error {
	site, resp := a.findSite(c)
	if site == nil {
		return resp
	}
	return web.Render(c, "admin_form", fiber.Map{
		"Site": site,
		"Form": formFromSite(site),
	})
}

// HandleEdit is POST /admin/sites/:id.
func (a *Admin) HandleEdit(c fiber.Ctx) error {
	site, resp := a.findSite(c)
	if site == nil {
		return resp
	}

	form := readSiteForm(c)
	form.SiteID = site.SiteID // read-only once created

	updated, formErr := a.siteFromForm(c, form, site)
	if formErr != "" {
		return web.RenderStatus(c, fiber.StatusBadRequest, "admin_form", fiber.Map{
			"Site": site, "Form": form, "Error": formErr,
		})
	}

	if err := a.store.Update(c.Context(), updated); err != nil {
		return a.storeErrorResponse(c, site, form, err)
	}
	return c.Redirect().Status(fiber.StatusSeeOther).To("/admin")
}

// HandleDelete is POST /admin/sites/:id/delete. The stored asset goes with
// the row.
func (a *Admin) HandleDelete(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Site not found")
	}

	removed, err := a.store.Delete(c.Context(), id)
	if errors.Is(err, sites.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).SendString("Site not found")
	}
	if err != nil {
		logging.L().Error("site delete failed", zap.Int64("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete site")
	}

	if removed.HasAsset() {
		a.assets.Remove(removed.AssetName())
	}
	return c.Redirect().Status(fiber.StatusSeeOther).To("/admin")
}

// findSite loads the :id site. A nil site means the response has already
// been written; return the second value as-is.
func (a *Admin) findSite(c fiber.Ctx) (*sites.Site, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).SendString("Site not found")
	}
	site, err := a.store.FindByID(c.Context(), id)
	if errors.Is(err, sites.ErrNotFound) {
		return nil, c.Status(fiber.StatusNotFound).SendString("Site not found")
	}
	if err != nil {
		logging.L().Error("site lookup failed", zap.Int64("id", id), zap.Error(err))
		return nil, c.Status(fiber.StatusInternalServerError).SendString("Failed to load site")
	}
	return site, nil
}

// siteFromForm validates the form and builds the site row to persist. When
// existing is non-nil its counters and asset carry over unless a new upload
// replaces the asset. The second return value is a user-facing form error.
func (a *Admin) siteFromForm(c fiber.Ctx, form siteForm, existing *sites.Site) (*sites.Site, string) {
	if form.Title == "" {
		return nil, "Title is required"
	}

	domain, err := sites.SanitizeCustomDomain(form.CustomDomain)
	if err != nil {
		return nil, "Custom domain is not valid"
	}

	// On create, exactly one of site ID and custom domain picks the
	// address; a domain-only site gets its label derived from the domain.
	siteID := form.SiteID
	if existing == nil {
		switch {
		case siteID == "" && domain == "":
			return nil, "Provide a site ID or a custom domain"
		case siteID != "" && domain != "":
			return nil, "Provide either a site ID or a custom domain, not both"
		case siteID == "":
			siteID = sites.SiteIDFromDomain(domain)
		}
	}

	site := &sites.Site{
		SiteID:     sites.SanitizeSiteID(siteID),
		Title:      form.Title,
		VideoURL:   form.VideoURL,
		Status:     form.Status,
		DeviceMode: form.DeviceMode,
	}
	if site.Status == "" {
		site.Status = "new"
	}
	if site.DeviceMode == "" {
		site.DeviceMode = sites.DeviceModeAll
	}
	if domain != "" {
		site.CustomDomain = &domain
	}
	if existing != nil {
		site.ID = existing.ID
		site.SiteID = existing.SiteID
		site.Content = existing.Content
	}

	if file, err := c.FormFile("file"); err == nil && file != nil && file.Filename != "" {
		name, err := a.saveUpload(file)
		if err != nil {
			logging.L().Error("asset upload failed", zap.Error(err))
			return nil, "Failed to store the uploaded file"
		}
		if existing != nil && existing.HasAsset() && existing.AssetName() != name {
			a.assets.Remove(existing.AssetName())
		}
		site.Content = &name
	}

	return site, ""
}

func (a *Admin) saveUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = src.Close() }()
	return a.assets.Save(file.Filename, src)
}

func (a *Admin) storeErrorResponse(c fiber.Ctx, site *sites.Site, form siteForm, err error) error {
	switch {
	case errors.Is(err, sites.ErrSiteIDTaken):
		return web.RenderStatus(c, fiber.StatusConflict, "admin_form", fiber.Map{
			"Site": site, "Form": form, "Error": "That site ID is already taken",
		})
	case errors.Is(err, sites.ErrDomainTaken):
		return web.RenderStatus(c, fiber.StatusConflict, "admin_form", fiber.Map{
			"Site": site, "Form": form, "Error": "That custom domain is already bound to another site",
		})
	case errors.Is(err, sites.ErrNotFound):
		return c.Status(fiber.StatusNotFound).SendString("Site not found")
	default:
		logging.L().Error("site save failed", zap.Error(err))
		return web.RenderStatus(c, fiber.StatusInternalServerError, "admin_form", fiber.Map{
			"Site": site, "Form": form, "Error": "Failed to save the site",
		})
	}
}
