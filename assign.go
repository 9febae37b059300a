package huepalette

// Assign gives every device one command, cycling through the ranked palette:
// device i receives palette[i % len(palette)]. The result is aligned with
// devices. An empty device list yields an empty result.
func Assign(palette []WeightedColor, devices []string, transition *uint16) ([]DeviceCommand, error) {
	if len(devices) == 0 {
		return []DeviceCommand{}, nil
	}
	if len(palette) == 0 {
		return nil, ErrEmptyPalette
	}

	// Convert each palette entry once.
	converted := make([]deviceColor, len(palette))
	for i, c := range palette {
		converted[i] = labToDevice(c.Centroid)
	}

	cmds := make([]DeviceCommand, len(devices))
	for i := range devices {
		cmds[i] = converted[i%len(converted)].command(transition)
	}
	return cmds, nil
}
