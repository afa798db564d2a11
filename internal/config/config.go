package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Director   Director         `toml:"director"`
	Logging    LoggingConfig    `toml:"logging"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Blueprints BlueprintsConfig `toml:"blueprints"`
}

// Director holds the stepping policy and the static settings handed to every
// system's Configure hook.
type Director struct {
	FixedStep     bool           `toml:"fixed_step"`
	Step          Duration       `toml:"step"`           // fixed update size
	FrameInterval Duration       `toml:"frame_interval"` // scheduler cadence and first-frame dt
	MaxCatchUp    int            `toml:"max_catch_up"`   // 0 = unbounded catch-up
	Settings      map[string]any `toml:"settings"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type BlueprintsConfig struct {
	Path  string   `toml:"path"`
	Spawn []string `toml:"spawn"` // blueprint names spawned at startup
}

// Duration decodes TOML strings such as "16ms" or "16.667ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML on top of the defaults. name only labels errors.
func Parse(data []byte, name string) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Director.FixedStep && c.Director.Step.Duration <= 0 {
		return fmt.Errorf("director.step must be positive with fixed_step enabled, got %s", c.Director.Step)
	}
	if c.Director.FrameInterval.Duration <= 0 {
		return fmt.Errorf("director.frame_interval must be positive, got %s", c.Director.FrameInterval)
	}
	if c.Director.MaxCatchUp < 0 {
		return fmt.Errorf("director.max_catch_up must not be negative, got %d", c.Director.MaxCatchUp)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Defaults returns the configuration used when a key is absent.
func Defaults() *Config {
	return &Config{
		Director: Director{
			FixedStep:     false,
			Step:          Duration{16 * time.Millisecond},
			FrameInterval: Duration{time.Second / 60},
			MaxCatchUp:    0,
			Settings:      map[string]any{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scripting: ScriptingConfig{
			Enabled: false,
			Dir:     "scripts",
		},
		Blueprints: BlueprintsConfig{
			Path: "",
		},
	}
}
