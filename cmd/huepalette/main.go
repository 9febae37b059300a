package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/setanarut/huepalette"
	"github.com/setanarut/huepalette/config"
	"github.com/setanarut/huepalette/hue"
	"github.com/setanarut/huepalette/utils"
)

func main() {
	// Support both -c and --config for config path
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&configPath, "c", "config.yaml", "Path to configuration file (shorthand)")
	off := flag.Bool("off", false, "Switch every light of the group off instead of applying an image")
	paletteOut := flag.String("palette-out", "", "Also write the computed palette as a PNG strip")
	dryRun := flag.Bool("dry-run", false, "Compute and log commands without sending them")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <group> [image]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || (!*off && flag.NArg() < 2) {
		flag.Usage()
		os.Exit(2)
	}
	groupName := flag.Arg(0)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.Log.Level, cfg.Log.UseJSON, cfg.Log.Colors)
	log.Logger = log.With().Str("run", uuid.NewString()).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := hue.NewClient(cfg.Hue.Bridge, cfg.Hue.Token, cfg.Hue.Timeout.Duration(), cfg.Hue.RateLimitRPS)
	defer client.Close()

	group, err := client.FindGroupByName(ctx, groupName)
	if err != nil {
		log.Fatal().Err(err).Str("group", groupName).Msg("Failed to resolve group")
	}
	lights := group.Lights
	log.Info().
		Str("group", group.Name).
		Str("bridge", client.Address()).
		Int("lights", len(lights)).
		Msg("Resolved group")

	var cmds []huepalette.DeviceCommand
	if *off {
		cmds = make([]huepalette.DeviceCommand, len(lights))
		for i := range cmds {
			cmds[i] = huepalette.OffCommand()
		}
	} else {
		cmds, err = imageCommands(cfg, flag.Arg(1), lights, *paletteOut)
		if err != nil {
			log.Fatal().Err(err).Str("image", flag.Arg(1)).Msg("Failed to compute light commands")
		}
	}

	if *dryRun {
		log.Info().Int("commands", len(cmds)).Msg("Dry run, nothing sent")
		return
	}

	start := time.Now()
	if err := client.Apply(ctx, lights, cmds); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply light states")
	}
	log.Info().
		Int("lights", len(lights)).
		Dur("took", time.Since(start)).
		Msg("Light states applied")
}

func imageCommands(cfg *config.Config, imagePath string, lights []string, paletteOut string) ([]huepalette.DeviceCommand, error) {
	if len(lights) == 0 {
		log.Warn().Msg("Group has no lights")
		return []huepalette.DeviceCommand{}, nil
	}

	img, err := utils.ReadImage(imagePath)
	if err != nil {
		return nil, err
	}
	img = utils.FitImage(img, cfg.Palette.MaxPixels)

	opt, err := cfg.Options(rand.Uint64())
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("method", cfg.Method().String()).
		Uint64("seed", opt.Seed).
		Int("runs", opt.Runs).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Extracting palette")

	palette, err := utils.ExtractPalette(img, len(lights), cfg.Method(), opt)
	if err != nil {
		return nil, err
	}
	if paletteOut != "" {
		if err := utils.SavePalette(palette, 64, paletteOut); err != nil {
			log.Warn().Err(err).Str("path", paletteOut).Msg("Failed to save palette preview")
		}
	}

	cmds, err := huepalette.Assign(palette, lights, opt.TransitionTime)
	if err != nil {
		return nil, err
	}
	for i, c := range cmds {
		log.Info().
			Str("light", lights[i]).
			Float64("weight", palette[i%len(palette)].Weight).
			Uint8("bri", *c.Bri).
			Uint16("hue", *c.Hue).
			Uint8("sat", *c.Sat).
			Msg("Light command")
	}
	return cmds, nil
}

func setupLogging(level string, useJSON bool, colors bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
