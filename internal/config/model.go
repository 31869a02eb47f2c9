package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	// LogLevels lists the accepted log levels.
	LogLevels = []string{"debug", "info", "warn", "error"}
	// Formats lists the accepted log and output formats.
	Formats = []string{"text", "json"}
)

// Model holds every setting of a run.
type Model struct {
	Seed   uint64 `yaml:"seed"`
	Atomic bool   `yaml:"atomic"`
	// SubscriptionBuffer is the channel capacity of change subscriptions.
	SubscriptionBuffer int `yaml:"subscription_buffer"`

	Log    Log    `yaml:"log"`
	Output string `yaml:"output"`
	Events Events `yaml:"events"`
}

// Log configures the application logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File, when set, receives a copy of every record.
	File string `yaml:"file"`
}

// Events configures the remote interaction collector. It is disabled while
// URL is empty.
type Events struct {
	URL                string `yaml:"url"`
	Namespace          string `yaml:"namespace"`
	Event              string `yaml:"event"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// Default returns the settings used when nothing is configured.
func Default() *Model {
	return &Model{
		Atomic:             true,
		SubscriptionBuffer: 64,
		Log:                Log{Level: "info", Format: "text"},
		Output:             "text",
		Events:             Events{Namespace: "/"},
	}
}

// Load reads a YAML settings file over the defaults.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()
	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return m, nil
}

// Decode reads YAML settings over the defaults. Unknown keys are errors.
func Decode(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks every enumerated field.
func (m *Model) Validate() error {
	var errs []error
	if !slices.Contains(LogLevels, m.Log.Level) {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of %v", m.Log.Level, LogLevels))
	}
	if !slices.Contains(Formats, m.Log.Format) {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of %v", m.Log.Format, Formats))
	}
	if !slices.Contains(Formats, m.Output) {
		errs = append(errs, fmt.Errorf("invalid output format %q: must be one of %v", m.Output, Formats))
	}
	if m.SubscriptionBuffer <= 0 {
		errs = append(errs, fmt.Errorf("subscription buffer must be positive, got %d", m.SubscriptionBuffer))
	}
	return errors.Join(errs...)
}
