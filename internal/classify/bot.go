package classify

import (
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/vitrina-host/vitrina/internal/logging"
)

// Crawler identifiers that are allowed through regardless of request rate.
var goodBots = []string{
	"googlebot", "bingbot", "yandex", "duckduckbot", "slurp",
	"facebookexternalhit", "twitterbot", "applebot", "linkedinbot",
}

// Generic automation markers that are always treated as suspicious.
var badAgents = []string{
	"bot", "crawler", "spider", "python-requests", "curl", "monitor",
}

const (
	// DefaultWindow is the sliding window for per-IP request counting.
	DefaultWindow = 60 * time.Second
	// DefaultLimit is the number of requests tolerated inside the window.
	DefaultLimit = 10

	// Ledger entries untouched for this many windows are evicted by the
	// janitor, keeping memory bounded however many distinct IPs show up.
	idleWindows = 5
)

// ipWindow holds the recent request timestamps for one client IP.
// Value type: every Compute returns a fresh copy, so readers never observe
// a slice being mutated concurrently.
type ipWindow struct {
	stamps   []int64 // unix nanos, ascending
	lastSeen int64
}

// Detector flags automated clients by User-Agent signature and request rate.
type Detector struct {
	window time.Duration
	limit  int
	now    func() time.Time

	ledger *xsync.Map[string, ipWindow]

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewDetector creates a bot detector with the given sliding window and limit.
func NewDetector(window time.Duration, limit int) *Detector {
	return &Detector{
		window:   window,
		limit:    limit,
		now:      time.Now,
		ledger:   xsync.NewMap[string, ipWindow](),
		stopChan: make(chan struct{}),
	}
}

// Suspicious reports whether the request should be treated as automated.
// Known-good crawlers win over everything; deny-listed agents are flagged
// without touching the rate ledger; everything else is rate-counted.
func (d *Detector) Suspicious(ua, ip string) bool {
	u := strings.ToLower(ua)

	for _, good := range goodBots {
		if strings.Contains(u, good) {
			return false
		}
	}

	for _, bad := range badAgents {
		if strings.Contains(u, bad) {
			return true
		}
	}

	return d.overLimit(ip)
}

// overLimit records the current request for ip and reports whether the
// window now holds more than the allowed number of requests.
func (d *Detector) overLimit(ip string) bool {
	now := d.now().UnixNano()
	cutoff := now - d.window.Nanoseconds()

	var count int
	d.ledger.Compute(ip, func(old ipWindow, loaded bool) (ipWindow, xsync.ComputeOp) {
		kept := old.stamps
		for len(kept) > 0 && kept[0] < cutoff {
			kept = kept[1:]
		}
		stamps := make([]int64, 0, len(kept)+1)
		stamps = append(stamps, kept...)
		stamps = append(stamps, now)
		count = len(stamps)
		return ipWindow{stamps: stamps, lastSeen: now}, xsync.UpdateOp
	})

	return count > d.limit
}

// LedgerSize returns the number of tracked client IPs.
func (d *Detector) LedgerSize() int {
	return d.ledger.Size()
}

// StartJanitor launches the background eviction loop for idle ledger
// entries. Call Stop to terminate it.
func (d *Detector) StartJanitor() {
	go func() {
		ticker := time.NewTicker(d.window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.evictIdle()
			case <-d.stopChan:
				return
			}
		}
	}()
}

// Stop terminates the janitor. Safe to call more than once.
func (d *Detector) Stop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
}

func (d *Detector) evictIdle() {
	cutoff := d.now().Add(-time.Duration(idleWindows) * d.window).UnixNano()

	evicted := 0
	d.ledger.Range(func(ip string, _ ipWindow) bool {
		d.ledger.Compute(ip, func(old ipWindow, loaded bool) (ipWindow, xsync.ComputeOp) {
			if !loaded || old.lastSeen >= cutoff {
				return old, xsync.CancelOp
			}
			evicted++
			return old, xsync.DeleteOp
		})
		return true
	})

	if evicted > 0 {
		logging.L().Debug("evicted idle rate ledger entries", zap.Int("count", evicted))
	}
}
