// Package geoip maps client IP addresses to ISO country codes using a local
// GeoLite2 database. The database is optional infrastructure: when it is
// missing or a lookup fails, resolution degrades to UnknownCountry instead
// of erroring.
package geoip

import (
	"compress/gzip"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vitrina-host/vitrina/internal/logging"
)

// UnknownCountry is returned whenever a country cannot be resolved.
const UnknownCountry = "UNKNOWN"

// databaseURL is a CDN mirror of the GeoLite2 country database.
const databaseURL = "https://cdn.jsdelivr.net/npm/geolite2-country/GeoLite2-Country.mmdb.gz"

// refreshSchedule re-downloads the database on the 5th of every month, after
// MaxMind's monthly release.
const refreshSchedule = "0 5 5 * *"

var (
	mu      sync.RWMutex
	reader  *geoip2.Reader
	dbPath  string
	sched   *cron.Cron
	httpGet = http.Get
)

// Init opens the GeoIP database under dataDir, downloading it first when it
// is not present. A failed download or open is logged and tolerated; lookups
// then return UnknownCountry until the next refresh succeeds.
func Init(dataDir string) error {
	mu.Lock()
	dbPath = filepath.Join(dataDir, "GeoLite2-Country.mmdb")
	mu.Unlock()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		logging.L().Info("GeoIP database not found, attempting download", zap.String("path", dbPath))
		if err := downloadDatabase(dbPath); err != nil {
			logging.L().Warn("GeoIP database download failed; lookups will return UNKNOWN",
				zap.String("path", dbPath), zap.Error(err))
			return nil
		}
		logging.L().Info("GeoIP database downloaded")
	}

	if err := reopen(dbPath); err != nil {
		logging.L().Warn("could not load GeoIP database; lookups will return UNKNOWN", zap.Error(err))
		return nil
	}

	logging.L().Info("GeoIP database loaded")
	return nil
}

// LookupCountry returns the uppercase ISO country code for an IP address, or
// UnknownCountry when the database is absent, the IP is malformed, or the
// lookup misses.
func LookupCountry(ipStr string) string {
	mu.RLock()
	r := reader
	mu.RUnlock()

	if r == nil {
		return UnknownCountry
	}

	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil {
		return UnknownCountry
	}

	record, err := r.Country(ip)
	if err != nil {
		return UnknownCountry
	}

	code := strings.ToUpper(record.Country.IsoCode)
	if code == "" {
		return UnknownCountry
	}
	return code
}

// StartAutoRefresh schedules a monthly re-download of the database and a
// hot swap of the open reader.
func StartAutoRefresh() error {
	c := cron.New()
	_, err := c.AddFunc(refreshSchedule, func() {
		if err := Refresh(); err != nil {
			logging.L().Warn("scheduled GeoIP refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule geoip refresh: %w", err)
	}
	c.Start()

	mu.Lock()
	sched = c
	mu.Unlock()
	return nil
}

// Refresh re-downloads the database and swaps the reader in place.
func Refresh() error {
	mu.RLock()
	path := dbPath
	mu.RUnlock()

	if path == "" {
		return fmt.Errorf("geoip not initialized")
	}

	if err := downloadDatabase(path); err != nil {
		return fmt.Errorf("download geoip database: %w", err)
	}
	if err := reopen(path); err != nil {
		return fmt.Errorf("reopen geoip database: %w", err)
	}

	logging.L().Info("GeoIP database refreshed")
	return nil
}

// Close stops the refresh schedule and closes the database.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if sched != nil {
		sched.Stop()
		sched = nil
	}
	if reader != nil {
		err := reader.Close()
		reader = nil
		return err
	}
	return nil
}

func reopen(path string) error {
	r, err := geoip2.Open(path)
	if err != nil {
		return err
	}

	mu.Lock()
	old := reader
	reader = r
	mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// downloadDatabase fetches the gzipped database and writes it to dbPath.
func downloadDatabase(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	resp, err := httpGet(databaseURL)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	gzReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() {
		_ = gzReader.Close()
	}()

	// Write to a temp file first so a torn download never clobbers a
	// working database.
	tmp, err := os.CreateTemp(filepath.Dir(path), "geoip-*.mmdb")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, gzReader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
