package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	androidUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36"
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"
	ipadUA    = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15"
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

func TestDeviceOf(t *testing.T) {
	assert.Equal(t, DeviceAndroid, DeviceOf(androidUA))
	assert.Equal(t, DeviceIOS, DeviceOf(iphoneUA))
	assert.Equal(t, DeviceIOS, DeviceOf(ipadUA))
	assert.Equal(t, DeviceIOS, DeviceOf("something with iPod inside"))
	assert.Equal(t, DeviceDesktop, DeviceOf(desktopUA))
	assert.Equal(t, DeviceDesktop, DeviceOf(""))
}

func TestDeviceMobile(t *testing.T) {
	assert.True(t, DeviceAndroid.Mobile())
	assert.True(t, DeviceIOS.Mobile())
	assert.False(t, DeviceDesktop.Mobile())
}

func TestGateBlocks(t *testing.T) {
	tests := []struct {
		name string
		mode string
		ua   string
		want bool
	}{
		{"android mode passes android", "android", androidUA, false},
		{"android mode blocks iphone", "android", iphoneUA, true},
		{"android mode blocks desktop", "android", desktopUA, true},
		{"ios mode passes iphone", "ios", iphoneUA, false},
		{"ios mode passes ipad", "ios", ipadUA, false},
		{"ios mode blocks android", "ios", androidUA, true},
		{"desktop mode passes desktop", "desktop", desktopUA, false},
		{"desktop mode blocks android", "desktop", androidUA, true},
		{"desktop mode blocks iphone", "desktop", iphoneUA, true},
		{"all mode passes everything", "all", androidUA, false},
		{"all mode passes desktop", "all", desktopUA, false},
		{"unknown mode never blocks", "tablet", iphoneUA, false},
		{"empty mode never blocks", "", desktopUA, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GateBlocks(tt.mode, tt.ua))
		})
	}
}

func TestGateIsCaseInsensitiveOnUA(t *testing.T) {
	assert.False(t, GateBlocks("android", "ANDROID 14 WEBVIEW"))
	assert.False(t, GateBlocks("ios", "Something IPHONE like"))
}
