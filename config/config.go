// Package config loads the settings that select a toolkit, a native
// backend and a pipe transport.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

// Toolkit names
const (
	ToolkitMock = "mock"
	ToolkitQt   = "qt"
	ToolkitWx   = "wx"
)

// Native backend names
const (
	NativeMemory = "memory"
	NativeStdio  = "stdio"
	NativeScene  = "qmlscene"
)

// Transport names
const (
	TransportMock  = "mock"
	TransportQueue = "queue"
	TransportMux   = "mux"
	TransportNATS  = "nats"
)

// Config is the top-level configuration.
type Config struct {
	Toolkit   string          `yaml:"toolkit"`
	Native    NativeConfig    `yaml:"native"`
	Transport TransportConfig `yaml:"transport"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NativeConfig selects how native handles are created.
type NativeConfig struct {
	Backend string `yaml:"backend"`
	// QML is the root QML file loaded when Backend is qmlscene.
	QML string `yaml:"qml"`
}

// TransportConfig selects the pipe transport between shell and client.
type TransportConfig struct {
	Kind string     `yaml:"kind"`
	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig configures the NATS pipe transport.
type NATSConfig struct {
	URL     string        `yaml:"url"`
	Name    string        `yaml:"name"`
	Subject string        `yaml:"subject"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Toolkit: ToolkitMock,
		Native: NativeConfig{
			Backend: NativeMemory,
		},
		Transport: TransportConfig{
			Kind: TransportMock,
			NATS: NATSConfig{
				URL:     "nats://localhost:4222",
				Name:    "enaml",
				Subject: "enaml.pipe",
				Timeout: 5 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults, applies ENAML_* environment overrides
// and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeConfigParse, "parse config").
					WithContext("path", path)
			}
		case os.IsNotExist(err):
		default:
			return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeConfigLoad, "read config").
				WithContext("path", path)
		}
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("ENAML_TOOLKIT"); v != "" {
		cfg.Toolkit = v
	}
	if v := getenv("ENAML_NATIVE"); v != "" {
		cfg.Native.Backend = v
	}
	if v := getenv("ENAML_TRANSPORT"); v != "" {
		cfg.Transport.Kind = v
	}
	if v := getenv("ENAML_NATS_URL"); v != "" {
		cfg.Transport.NATS.URL = v
	}
	if v := getenv("ENAML_NATS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			// Bare numbers are seconds
			secs, nerr := strconv.Atoi(v)
			if nerr != nil {
				return enamlerrors.Wrap(err, enamlerrors.ErrCodeConfigInvalid, "ENAML_NATS_TIMEOUT")
			}
			d = time.Duration(secs) * time.Second
		}
		cfg.Transport.NATS.Timeout = d
	}
	if v := getenv("ENAML_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate checks that every selector names a known implementation.
func (c *Config) Validate() error {
	c.Toolkit = strings.ToLower(c.Toolkit)
	c.Native.Backend = strings.ToLower(c.Native.Backend)
	c.Transport.Kind = strings.ToLower(c.Transport.Kind)

	if err := oneOf("toolkit", c.Toolkit, ToolkitMock, ToolkitQt, ToolkitWx); err != nil {
		return err
	}
	if err := oneOf("native.backend", c.Native.Backend, NativeMemory, NativeStdio, NativeScene); err != nil {
		return err
	}
	if err := oneOf("transport.kind", c.Transport.Kind, TransportMock, TransportQueue, TransportMux, TransportNATS); err != nil {
		return err
	}
	if c.Native.Backend == NativeScene {
		if c.Toolkit != ToolkitQt {
			return enamlerrors.New(enamlerrors.ErrCodeConfigInvalid, "the qmlscene backend requires the qt toolkit")
		}
		if c.Native.QML == "" {
			return enamlerrors.New(enamlerrors.ErrCodeConfigInvalid, "native.qml is required for the qmlscene backend")
		}
	}
	if c.Transport.Kind == TransportNATS {
		if c.Transport.NATS.URL == "" {
			return enamlerrors.New(enamlerrors.ErrCodeConfigInvalid, "transport.nats.url is required")
		}
		if c.Transport.NATS.Subject == "" {
			return enamlerrors.New(enamlerrors.ErrCodeConfigInvalid, "transport.nats.subject is required")
		}
		if c.Transport.NATS.Timeout <= 0 {
			return enamlerrors.New(enamlerrors.ErrCodeConfigInvalid, "transport.nats.timeout must be positive")
		}
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return enamlerrors.New(enamlerrors.ErrCodeConfigInvalid, fmt.Sprintf("unknown %s %q", field, value)).
		WithContext("allowed", strings.Join(allowed, ","))
}
