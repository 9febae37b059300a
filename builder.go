package huepalette

import (
	"fmt"
)

type Options struct {
	// Independent clustering attempts; the lowest score wins.
	// More runs trade time for a palette less sensitive to initialization.
	Runs int
	// Assign/recenter rounds per attempt.
	MaxIterations int
	// Early-stop threshold on summed centroid movement per round, in Lab units.
	Converge float64
	// Base seed. Attempt i uses Seed+i, so equal seeds reproduce equal palettes.
	Seed uint64
	// Transition time written to every command, in 100ms units.
	// nil selects DefaultTransitionTime; a pointer to 0 switches instantly.
	TransitionTime *uint16
	// Debug-log every clustering iteration.
	Verbose bool
	// Goroutines for clustering attempts. 0 runs one goroutine per attempt.
	Workers int
}

func DefaultOptions() Options {
	return Options{
		Runs:          1,
		MaxIterations: 10,
		Converge:      1.0,
	}
}

func (o Options) clusterOptions() ClusterOptions {
	return ClusterOptions{
		Runs:          o.Runs,
		MaxIterations: o.MaxIterations,
		Converge:      o.Converge,
		Seed:          o.Seed,
		Verbose:       o.Verbose,
		Workers:       o.Workers,
	}
}

// Validate reports the first invalid field as an ErrConfiguration.
func (o Options) Validate() error {
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrConfiguration, o.Workers)
	}
	return o.clusterOptions().validate()
}

// PaletteBuilder runs the image → samples → clusters → ranked palette stages
// and keeps every intermediate result for inspection.
type PaletteBuilder struct {
	Pixels  PixelBuffer
	Samples []ColorSample
	Run     ClusterRun
	Palette []WeightedColor

	transition *uint16
}

func NewPaletteBuilder(pixels PixelBuffer) *PaletteBuilder {
	return &PaletteBuilder{Pixels: pixels}
}

// Build extracts samples and computes a ranked palette of k colors.
func (pb *PaletteBuilder) Build(k int, opt Options) error {
	if err := opt.Validate(); err != nil {
		return err
	}
	samples, err := ExtractSamples(pb.Pixels)
	if err != nil {
		return err
	}
	run, err := Cluster(samples, k, opt.clusterOptions())
	if err != nil {
		return err
	}
	pb.Samples = samples
	pb.Run = run
	pb.Palette = Rank(run)
	pb.transition = nil
	if opt.TransitionTime != nil {
		t := *opt.TransitionTime
		pb.transition = &t
	}
	return nil
}

// Commands assigns the built palette to devices.
func (pb *PaletteBuilder) Commands(devices []string) ([]DeviceCommand, error) {
	return Assign(pb.Palette, devices, pb.transition)
}

// Map computes one command per device from pixels. With no devices it returns
// an empty slice without touching the image.
func Map(pixels PixelBuffer, devices []string, opt Options) ([]DeviceCommand, error) {
	if len(devices) == 0 {
		return []DeviceCommand{}, nil
	}
	pb := NewPaletteBuilder(pixels)
	if err := pb.Build(len(devices), opt); err != nil {
		return nil, err
	}
	return pb.Commands(devices)
}
