package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/binder/pkg/reveal"
)

// EnvPrefix prefixes every environment override, e.g. BINDER_PATTERN.
const EnvPrefix = "BINDER_"

// Config is the persisted configuration of a binder (binder.yaml).
type Config struct {
	SystemDir  string       `yaml:"system_dir,omitempty"`
	Pattern    string       `yaml:"pattern,omitempty"`
	ReadOnly   bool         `yaml:"read_only,omitempty"`
	Strict     bool         `yaml:"strict,omitempty"`
	DefaultExt string       `yaml:"default_ext,omitempty"`
	IDColumn   string       `yaml:"id_column,omitempty"`
	Sort       string       `yaml:"sort,omitempty"`
	Reveal     RevealConfig `yaml:"reveal"`
}

// RevealConfig tunes the progressive reveal of list and browse.
type RevealConfig struct {
	Initial     int           `yaml:"initial"`
	Step        int           `yaml:"step"`
	Max         int           `yaml:"max,omitempty"`
	Margin      int           `yaml:"margin"`
	MinInterval time.Duration `yaml:"min_interval"`
	Delay       time.Duration `yaml:"delay,omitempty"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		SystemDir:  ".binder",
		DefaultExt: ".md",
		IDColumn:   "id",
		Sort:       "name",
		Reveal: RevealConfig{
			Initial:     reveal.DefaultInitialVisible,
			Step:        reveal.DefaultIncrement,
			Margin:      reveal.DefaultMargin,
			MinInterval: reveal.DefaultMinInterval,
		},
	}
}

// LoadConfig layers, from lowest to highest precedence: defaults, binder.yaml
// in root, a .env file in root and BINDER_* variables of the process.
// Missing files are not an error.
func LoadConfig(root string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}

	dotenv, err := godotenv.Read(filepath.Join(root, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to read .env: %w", err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SYSTEM_DIR":  &c.SystemDir,
		"PATTERN":     &c.Pattern,
		"DEFAULT_EXT": &c.DefaultExt,
		"ID_COLUMN":   &c.IDColumn,
		"SORT":        &c.Sort,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"READ_ONLY": &c.ReadOnly,
		"STRICT":    &c.Strict,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}

	ints := map[string]*int{
		"REVEAL_INITIAL": &c.Reveal.Initial,
		"REVEAL_STEP":    &c.Reveal.Step,
		"REVEAL_MAX":     &c.Reveal.Max,
		"REVEAL_MARGIN":  &c.Reveal.Margin,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"REVEAL_MIN_INTERVAL": &c.Reveal.MinInterval,
		"REVEAL_DELAY":        &c.Reveal.Delay,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = d
		}
	}
	return nil
}

// SaveConfig writes cfg to root/binder.yaml.
func SaveConfig(root string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(root, ConfigFile), data, 0644)
}

// Options translates the storage part of cfg into binder options.
func (c Config) Options() []Option {
	return []Option{
		WithSystemDir(c.SystemDir),
		WithPattern(c.Pattern),
		WithReadOnly(c.ReadOnly),
		WithStrict(c.Strict),
		WithDefaultExt(c.DefaultExt),
		WithIDColumn(c.IDColumn),
	}
}

// RevealOptions translates the reveal part of cfg into controller options.
func (c Config) RevealOptions() []reveal.Option {
	return []reveal.Option{
		reveal.WithInitialVisible(c.Reveal.Initial),
		reveal.WithIncrement(c.Reveal.Step),
		reveal.WithMax(c.Reveal.Max),
		reveal.WithMargin(c.Reveal.Margin),
		reveal.WithMinInterval(c.Reveal.MinInterval),
		reveal.WithDelay(c.Reveal.Delay),
	}
}
