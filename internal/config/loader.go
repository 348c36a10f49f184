package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the conventional name of the configuration file.
const DefaultFileName = "termio.yaml"

// Default returns the default configuration: auto-detected color and no
// sinks.
func Default() Config {
	return Config{Color: ColorAuto}
}

// Load reads the YAML configuration at path, overlaying it on the
// defaults and validating the result. A missing file returns the defaults
// with found false so programs run without any configuration on disk;
// callers decide whether the fallback is worth a notice.
func Load(path string) (cfg Config, found bool, err error) {
	cfg = Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, false, nil
		}
		return Config{}, false, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, true, fmt.Errorf("parsing config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, true, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, true, nil
}
