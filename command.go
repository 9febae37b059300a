package huepalette

import (
	"math"
)

// Protocol ranges for a Hue light state.
const (
	MinBrightness = 1
	MaxBrightness = 254
	MaxHue        = 65535
	MaxSaturation = 254

	// DefaultTransitionTime is in protocol units of 100ms.
	DefaultTransitionTime uint16 = 20
)

// DeviceCommand is a device-native light state. Unset protocol fields are
// simply absent.
type DeviceCommand struct {
	On             bool    `json:"on"`
	Bri            *uint8  `json:"bri,omitempty"`
	Hue            *uint16 `json:"hue,omitempty"`
	Sat            *uint8  `json:"sat,omitempty"`
	TransitionTime *uint16 `json:"transitiontime,omitempty"`
}

// NewCommand builds a power-on command. Out-of-range values are clamped to
// the protocol bounds. A nil transition selects DefaultTransitionTime.
func NewCommand(hue, sat, bri int, transition *uint16) DeviceCommand {
	h := uint16(clampInt(hue, 0, MaxHue))
	s := uint8(clampInt(sat, 0, MaxSaturation))
	b := uint8(clampInt(bri, MinBrightness, MaxBrightness))
	t := DefaultTransitionTime
	if transition != nil {
		t = *transition
	}
	return DeviceCommand{
		On:             true,
		Bri:            &b,
		Hue:            &h,
		Sat:            &s,
		TransitionTime: &t,
	}
}

// OffCommand switches a light off, leaving every other field unset.
func OffCommand() DeviceCommand {
	return DeviceCommand{On: false}
}

// CommandFromLab converts a Lab color to a power-on command.
func CommandFromLab(c ColorSample, transition *uint16) DeviceCommand {
	return labToDevice(c).command(transition)
}

type deviceColor struct {
	hue, sat, bri int
}

func (d deviceColor) command(transition *uint16) DeviceCommand {
	return NewCommand(d.hue, d.sat, d.bri, transition)
}

// labToDevice clamps centroids outside the sRGB gamut channel by channel
// before the HSV step, so a clipped channel reads as zero or full.
func labToDevice(c ColorSample) deviceColor {
	h, s, v := c.Color().Clamped().Hsv()
	hue, sat, bri := hsvToDevice(h, s, v)
	return deviceColor{hue: hue, sat: sat, bri: bri}
}

// hsvToDevice maps hue in degrees and saturation/value in [0,1] to protocol
// integers. Every step truncates; results are clamped to the protocol ranges.
func hsvToDevice(h, s, v float64) (hue, sat, bri int) {
	bri = floorClamp(v*253, 0, MaxBrightness-1) + 1
	hue = floorClamp(h*65535/360, 0, MaxHue)
	sat = floorClamp(s*254, 0, MaxSaturation)
	return hue, sat, bri
}

// floorClamp truncates x toward negative infinity and clamps it to [lo, hi].
// NaN maps to lo.
func floorClamp(x float64, lo, hi int) int {
	if math.IsNaN(x) || x <= float64(lo) {
		return lo
	}
	if x >= float64(hi) {
		return hi
	}
	return int(math.Floor(x))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
