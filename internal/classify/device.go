// Package classify decides what kind of client is behind a request: which
// device class the User-Agent belongs to, and whether the client looks like
// an automated one that should be denied privileged responses.
package classify

import (
	"strings"

	"github.com/vitrina-host/vitrina/internal/sites"
)

// Device is the coarse device class derived from a User-Agent string.
type Device int

const (
	DeviceDesktop Device = iota
	DeviceAndroid
	DeviceIOS
)

// DeviceOf buckets a User-Agent into android, ios, or desktop.
func DeviceOf(ua string) Device {
	u := strings.ToLower(ua)
	switch {
	case strings.Contains(u, "android"):
		return DeviceAndroid
	case strings.Contains(u, "iphone"), strings.Contains(u, "ipad"), strings.Contains(u, "ipod"):
		return DeviceIOS
	default:
		return DeviceDesktop
	}
}

// Mobile reports whether the device class is a handheld one.
func (d Device) Mobile() bool {
	return d == DeviceAndroid || d == DeviceIOS
}

// GateBlocks applies a site's device targeting mode to a User-Agent and
// reports whether the request must be blocked. An unrecognized mode behaves
// like "all" and never blocks.
func GateBlocks(deviceMode, ua string) bool {
	device := DeviceOf(ua)
	switch deviceMode {
	case sites.DeviceModeAndroid:
		return device != DeviceAndroid
	case sites.DeviceModeIOS:
		return device != DeviceIOS
	case sites.DeviceModeDesktop:
		return device.Mobile()
	default:
		return false
	}
}
