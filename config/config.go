package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/setanarut/huepalette"
	"github.com/setanarut/huepalette/utils"
)

// Config represents the application configuration
type Config struct {
	Hue     HueConfig     `yaml:"hue"`
	Palette PaletteConfig `yaml:"palette"`
	Log     LogConfig     `yaml:"log"`
}

// HueConfig contains Hue bridge connection settings
type HueConfig struct {
	Bridge       string   `yaml:"bridge"`
	Token        string   `yaml:"token"`
	Timeout      Duration `yaml:"timeout"`        // HTTP timeout for bridge requests
	RateLimitRPS float64  `yaml:"rate_limit_rps"` // Light-state requests per second (default: 10)
}

// PaletteConfig contains palette extraction settings
type PaletteConfig struct {
	Method        string    `yaml:"method"` // lab, kmeans or dominantcolor
	Runs          int       `yaml:"runs"`
	MaxIterations int       `yaml:"max_iterations"`
	Converge      float64   `yaml:"converge"`
	Seed          *uint64   `yaml:"seed"`       // Unset = draw a fresh seed per invocation
	Workers       int       `yaml:"workers"`    // 0 = one goroutine per run
	MaxPixels     int       `yaml:"max_pixels"` // Images are downscaled to this many pixels (default: 65536)
	Transition    *Duration `yaml:"transition"` // Rounded down to 100ms steps; unset = 2s, 0s = instant
	Verbose       bool      `yaml:"verbose"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"json"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file. Variables from a .env file in
// the working directory are loaded first and never override the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// Hue defaults
	if cfg.Hue.Timeout == 0 {
		cfg.Hue.Timeout = Duration(10 * time.Second)
	}
	if cfg.Hue.RateLimitRPS == 0 {
		cfg.Hue.RateLimitRPS = 10.0
	}

	// Palette defaults mirror huepalette.DefaultOptions
	def := huepalette.DefaultOptions()
	if cfg.Palette.Method == "" {
		cfg.Palette.Method = utils.PaletteMethodLab.String()
	}
	if cfg.Palette.Runs == 0 {
		cfg.Palette.Runs = def.Runs
	}
	if cfg.Palette.MaxIterations == 0 {
		cfg.Palette.MaxIterations = def.MaxIterations
	}
	if cfg.Palette.Converge == 0 {
		cfg.Palette.Converge = def.Converge
	}
	if cfg.Palette.MaxPixels == 0 {
		cfg.Palette.MaxPixels = 256 * 256
	}

	if _, err := utils.ParsePaletteMethod(cfg.Palette.Method); err != nil {
		return nil, err
	}
	if _, err := cfg.Options(0); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Method returns the configured palette method.
func (c *Config) Method() utils.PaletteMethod {
	m, _ := utils.ParsePaletteMethod(c.Palette.Method)
	return m
}

// Options converts the palette section to pipeline options. seed is used
// unless the config pins one.
func (c *Config) Options(seed uint64) (huepalette.Options, error) {
	if c.Palette.Seed != nil {
		seed = *c.Palette.Seed
	}
	opt := huepalette.Options{
		Runs:          c.Palette.Runs,
		MaxIterations: c.Palette.MaxIterations,
		Converge:      c.Palette.Converge,
		Seed:          seed,
		Verbose:       c.Palette.Verbose,
		Workers:       c.Palette.Workers,
	}
	if c.Palette.Transition != nil {
		d := c.Palette.Transition.Duration()
		steps := d / (100 * time.Millisecond)
		if steps < 0 || steps > 0xFFFF {
			return huepalette.Options{}, fmt.Errorf("%w: transition %s out of range", huepalette.ErrConfiguration, d)
		}
		t := uint16(steps)
		opt.TransitionTime = &t
	}
	if err := opt.Validate(); err != nil {
		return huepalette.Options{}, err
	}
	return opt, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
