package classify

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector(t *testing.T) (*Detector, *time.Time) {
	t.Helper()
	d := NewDetector(DefaultWindow, DefaultLimit)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }
	return d, &clock
}

func TestGoodBotsAreNeverSuspicious(t *testing.T) {
	d, _ := newTestDetector(t)

	assert.False(t, d.Suspicious("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "1.2.3.4"))
	assert.False(t, d.Suspicious("Mozilla/5.0 (compatible; bingbot/2.0)", "1.2.3.4"))
	assert.False(t, d.Suspicious("facebookexternalhit/1.1", "1.2.3.4"))
}

func TestGoodBotWinsOverRateLimit(t *testing.T) {
	d, _ := newTestDetector(t)

	// Exceed the limit with a generic browser UA first.
	for i := 0; i <= DefaultLimit; i++ {
		d.Suspicious(desktopUA, "5.6.7.8")
	}
	assert.True(t, d.Suspicious(desktopUA, "5.6.7.8"))

	// The crawler from the same IP is still allowed.
	assert.False(t, d.Suspicious("Googlebot/2.1", "5.6.7.8"))
}

func TestBadAgentsAreSuspicious(t *testing.T) {
	d, _ := newTestDetector(t)

	for _, ua := range []string{
		"python-requests/2.31",
		"curl/8.4.0",
		"MySpider/1.0",
		"some-crawler agent",
		"uptime-monitor check",
		"GenericBot",
	} {
		assert.True(t, d.Suspicious(ua, "9.9.9.9"), "ua %q", ua)
	}
}

func TestListedAgentsNeverTouchLedger(t *testing.T) {
	d, _ := newTestDetector(t)

	d.Suspicious("Googlebot/2.1", "1.1.1.1")
	d.Suspicious("curl/8.4.0", "2.2.2.2")

	assert.Equal(t, 0, d.LedgerSize())
}

func TestRateLimitFlagsEleventhRequest(t *testing.T) {
	d, _ := newTestDetector(t)

	for i := 1; i <= DefaultLimit; i++ {
		assert.False(t, d.Suspicious(desktopUA, "10.0.0.1"), "request %d", i)
	}
	assert.True(t, d.Suspicious(desktopUA, "10.0.0.1"), "request %d", DefaultLimit+1)
}

func TestRateLimitResetsAfterWindow(t *testing.T) {
	d, clock := newTestDetector(t)

	for i := 0; i <= DefaultLimit; i++ {
		d.Suspicious(desktopUA, "10.0.0.2")
	}
	require.True(t, d.Suspicious(desktopUA, "10.0.0.2"))

	*clock = clock.Add(DefaultWindow + time.Second)
	assert.False(t, d.Suspicious(desktopUA, "10.0.0.2"))
}

func TestRateLimitIsPerIP(t *testing.T) {
	d, _ := newTestDetector(t)

	for i := 0; i <= DefaultLimit; i++ {
		d.Suspicious(desktopUA, "10.0.0.3")
	}
	require.True(t, d.Suspicious(desktopUA, "10.0.0.3"))

	assert.False(t, d.Suspicious(desktopUA, "10.0.0.4"))
}

func TestJanitorEvictsIdleEntries(t *testing.T) {
	d, clock := newTestDetector(t)

	d.Suspicious(desktopUA, "10.0.0.5")
	d.Suspicious(desktopUA, "10.0.0.6")
	require.Equal(t, 2, d.LedgerSize())

	*clock = clock.Add(time.Duration(idleWindows)*DefaultWindow + time.Minute)
	d.Suspicious(desktopUA, "10.0.0.6") // keep one entry fresh

	d.evictIdle()

	assert.Equal(t, 1, d.LedgerSize())
	_, stale := d.ledger.Load("10.0.0.5")
	assert.False(t, stale)
}

func TestConcurrentCountingLosesNoStamps(t *testing.T) {
	d := NewDetector(DefaultWindow, 1000)

	const goroutines = 8
	const perGoroutine = 25

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				d.Suspicious(desktopUA, "concurrent-ip")
			}
		}()
	}
	wg.Wait()

	entry, ok := d.ledger.Load("concurrent-ip")
	require.True(t, ok)
	assert.Equal(t, goroutines*perGoroutine, len(entry.stamps),
		fmt.Sprintf("expected %d recorded stamps", goroutines*perGoroutine))
}
