package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/stategrid/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DocPaths []string // hcl files or directories
	Sets     []Assignment
	Settings *config.Model
}

// NewConfig validates cfg and fills in default settings.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.DocPaths) == 0 {
		return nil, errors.New("a document path is required")
	}
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Assignment is one `name.variable=EXPR` update request.
type Assignment struct {
	Name     string
	Variable string
	Source   string
}

// ParseAssignment parses `name.variable=EXPR`. The variable defaults to
// value when omitted.
func ParseAssignment(s string) (Assignment, error) {
	target, src, ok := strings.Cut(s, "=")
	if !ok {
		return Assignment{}, fmt.Errorf("invalid assignment %q: want name.variable=EXPR", s)
	}
	target = strings.TrimSpace(target)
	src = strings.TrimSpace(src)
	name, variable, dotted := strings.Cut(target, ".")
	if !dotted {
		variable = "value"
	}
	if name == "" || variable == "" || src == "" {
		return Assignment{}, fmt.Errorf("invalid assignment %q: want name.variable=EXPR", s)
	}
	return Assignment{Name: name, Variable: variable, Source: src}, nil
}

func (a Assignment) String() string {
	return a.Name + "." + a.Variable + "=" + a.Source
}
