// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/HendryAvila/autorelate/internal/store"
)

// Config holds all application configuration.
type Config struct {
	DataDir         string `env:"AUTORELATE_DATA_DIR" validate:"required"`
	Environment     string `env:"AUTORELATE_ENV" envDefault:"development" validate:"oneof=development production"`
	LogLevel        string `env:"AUTORELATE_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	MetricsAddr     string `env:"AUTORELATE_METRICS_ADDR" validate:"omitempty,hostname_port|startswith=:"`
	MaxTraversal    int    `env:"AUTORELATE_MAX_TRAVERSAL" envDefault:"10000" validate:"gt=0"`
	MaxContextDepth int    `env:"AUTORELATE_MAX_CONTEXT_DEPTH" envDefault:"5" validate:"gt=0,lte=10"`
}

var validate = newValidator()

// newValidator reports fields by their environment variable name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		return name
	})
	return v
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = store.DefaultConfig().DataDir
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s=%q fails %q", fe.Field(), fmt.Sprint(fe.Value()), describeTag(fe)))
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// IsProduction reports whether the production logger should be used.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// StoreConfig maps the settings onto the issue store's configuration.
func (c *Config) StoreConfig() store.Config {
	sc := store.DefaultConfig()
	sc.DataDir = c.DataDir
	sc.MaxContextDepth = c.MaxContextDepth
	return sc
}
