package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrina-host/vitrina/internal/config"
	"github.com/vitrina-host/vitrina/internal/database"
	"github.com/vitrina-host/vitrina/internal/sites"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage hosted sites",
	Long: `Manage hosted landing-page sites.

Site commands list, inspect, create, and delete sites without going through
the web console.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var siteListFormat string

var siteListCmd = &cobra.Command{
	Use:   "list [--format json|table|csv]",
	Short: "List hosted sites",
	Long: `Display all hosted sites with their counters.

Supported formats:
  table  - Human-readable table (default)
  json   - JSON array format
  csv    - Comma-separated values`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSiteList(siteListFormat)
	},
}

var siteShowCmd = &cobra.Command{
	Use:   "show <site-id>",
	Short: "Show detailed site information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSiteShow(args[0])
	},
}

var (
	siteCreateTitle  string
	siteCreateVideo  string
	siteCreateDomain string
	siteCreateMode   string
)

var siteCreateCmd = &cobra.Command{
	Use:   "create <site-id> --title <title> [--video <url>] [--domain <domain>] [--devices <mode>]",
	Short: "Create a new site",
	Long: `Create a new hosted site.

Arguments:
  site-id             Subdomain label (lowercase letters, digits, dashes)

Options:
  --title             Page title (required)
  --video             Promo video URL
  --domain            Custom domain to bind
  --devices           Device gate: all, android, ios, or desktop (default: all)

Examples:
  vitrina site create promo --title "Promo App"
  vitrina site create promo --title "Promo App" --domain promo.example.com --devices android`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSiteCreate(args[0], siteCreateTitle, siteCreateVideo, siteCreateDomain, siteCreateMode)
	},
}

var siteDeleteForce bool

var siteDeleteCmd = &cobra.Command{
	Use:   "delete <site-id>",
	Short: "Delete a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSiteDelete(args[0], siteDeleteForce)
	},
}

// connectStore ensures a database connection and returns the sites store
// plus a cleanup callback.
func connectStore() (*sites.Store, func(), error) {
	cleanup := func() {}
	if database.DB == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, cleanup, err
		}
		if err := database.Connect(cfg.DatabaseURL); err != nil {
			return nil, cleanup, fmt.Errorf("database connection failed: %w", err)
		}
		cleanup = func() { _ = database.Close() }
	}
	return sites.NewStore(database.DB), cleanup, nil
}

func cliContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func runSiteList(format string) error {
	if format == "" {
		format = "table"
	}

	store, cleanup, err := connectStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := cliContext()
	defer cancel()

	list, err := store.List(ctx)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return outputSitesJSON(list)
	case "csv":
		return outputSitesCSV(list)
	case "table":
		return outputSitesTable(list)
	default:
		return fmt.Errorf("invalid format: %s", format)
	}
}

func runSiteShow(siteID string) error {
	store, cleanup, err := connectStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := cliContext()
	defer cancel()

	site, err := store.FindBySubdomain(ctx, siteID)
	if err != nil {
		return err
	}

	fmt.Printf("Site:           %s\n", site.SiteID)
	fmt.Printf("Title:          %s\n", site.Title)
	fmt.Printf("Status:         %s\n", site.Status)
	fmt.Printf("Devices:        %s\n", site.DeviceMode)
	fmt.Printf("Custom domain:  %s\n", orDash(site.Domain()))
	fmt.Printf("Video URL:      %s\n", orDash(site.VideoURL))
	fmt.Printf("Asset:          %s\n", orDash(site.AssetName()))
	fmt.Printf("Visits:         %d\n", site.Visits)
	fmt.Printf("Target visits:  %d\n", site.TargetVisits)
	fmt.Printf("Downloads:      %d\n", site.Downloads)
	fmt.Printf("Created:        %s\n", site.CreatedAt.Format(time.RFC3339))
	return nil
}

func runSiteCreate(siteID, title, videoURL, domain, deviceMode string) error {
	if title == "" {
		return fmt.Errorf("--title is required")
	}
	if deviceMode == "" {
		deviceMode = sites.DeviceModeAll
	}
	switch deviceMode {
	case sites.DeviceModeAll, sites.DeviceModeAndroid, sites.DeviceModeIOS, sites.DeviceModeDesktop:
	default:
		return fmt.Errorf("invalid device mode %q", deviceMode)
	}

	cleanDomain, err := sites.SanitizeCustomDomain(domain)
	if err != nil {
		return fmt.Errorf("invalid custom domain: %w", err)
	}

	store, cleanup, err := connectStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := cliContext()
	defer cancel()

	site := &sites.Site{
		SiteID:     sites.SanitizeSiteID(siteID),
		Title:      title,
		VideoURL:   videoURL,
		Status:     "new",
		DeviceMode: deviceMode,
	}
	if cleanDomain != "" {
		site.CustomDomain = &cleanDomain
	}

	if err := store.Create(ctx, site); err != nil {
		return err
	}

	fmt.Printf("\n✓ Site created successfully\n")
	fmt.Printf("  ID:      %d\n", site.ID)
	fmt.Printf("  Site:    %s\n", site.SiteID)
	fmt.Printf("  Title:   %s\n", site.Title)
	if cleanDomain != "" {
		fmt.Printf("  Domain:  %s\n", cleanDomain)
	}
	return nil
}

func runSiteDelete(siteID string, force bool) error {
	store, cleanup, err := connectStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := cliContext()
	defer cancel()

	site, err := store.FindBySubdomain(ctx, siteID)
	if err != nil {
		return err
	}

	if !force {
		fmt.Printf("Delete site '%s' (%s)? [y/N]: ", site.SiteID, site.Title)
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if _, err := store.Delete(ctx, site.ID); err != nil {
		return err
	}
	fmt.Printf("✓ Site '%s' deleted\n", site.SiteID)
	return nil
}

func outputSitesTable(list []sites.Site) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SITE\tTITLE\tDOMAIN\tSTATUS\tDEVICES\tVISITS\tTARGET\tDOWNLOADS")
	for _, s := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			s.SiteID, s.Title, orDash(s.Domain()), s.Status, s.DeviceMode,
			s.Visits, s.TargetVisits, s.Downloads)
	}
	return w.Flush()
}

func outputSitesJSON(list []sites.Site) error {
	type row struct {
		SiteID       string `json:"site_id"`
		Title        string `json:"title"`
		CustomDomain string `json:"custom_domain,omitempty"`
		Status       string `json:"status"`
		DeviceMode   string `json:"device_mode"`
		Visits       int64  `json:"visits"`
		TargetVisits int64  `json:"target_visits"`
		Downloads    int64  `json:"downloads"`
	}
	rows := make([]row, 0, len(list))
	for _, s := range list {
		rows = append(rows, row{
			SiteID:       s.SiteID,
			Title:        s.Title,
			CustomDomain: s.Domain(),
			Status:       s.Status,
			DeviceMode:   s.DeviceMode,
			Visits:       s.Visits,
			TargetVisits: s.TargetVisits,
			Downloads:    s.Downloads,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func outputSitesCSV(list []sites.Site) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	if err := w.Write([]string{"site_id", "title", "custom_domain", "status", "device_mode", "visits", "target_visits", "downloads"}); err != nil {
		return err
	}
	for _, s := range list {
		record := []string{
			s.SiteID, s.Title, s.Domain(), s.Status, s.DeviceMode,
			strconv.FormatInt(s.Visits, 10),
			strconv.FormatInt(s.TargetVisits, 10),
			strconv.FormatInt(s.Downloads, 10),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	siteListCmd.Flags().StringVar(&siteListFormat, "format", "table", "Output format: table, json, or csv")
	siteCreateCmd.Flags().StringVar(&siteCreateTitle, "title", "", "Page title")
	siteCreateCmd.Flags().StringVar(&siteCreateVideo, "video", "", "Promo video URL")
	siteCreateCmd.Flags().StringVar(&siteCreateDomain, "domain", "", "Custom domain")
	siteCreateCmd.Flags().StringVar(&siteCreateMode, "devices", "all", "Device gate: all, android, ios, or desktop")
	siteDeleteCmd.Flags().BoolVarP(&siteDeleteForce, "force", "f", false, "Skip confirmation prompt")

	siteCmd.AddCommand(siteListCmd)
	siteCmd.AddCommand(siteShowCmd)
	siteCmd.AddCommand(siteCreateCmd)
	siteCmd.AddCommand(siteDeleteCmd)
}
