package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML config at filePath on top of Default(). A missing
// file is not an error: the built-in defaults are used instead. Values from
// .env and CCR_* environment variables are applied last.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()
	cfg.Source = "defaults"

	file, err := os.Open(filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// built-in defaults
	case err != nil:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	default:
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				log.Printf("Warning: failed to close config file: %v", closeErr)
			}
		}()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		cfg.Source = filePath
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CCR_URL"); v != "" {
		c.URL = v
	}
	if v := os.Getenv("CCR_MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CCR_MAX_PAGES %q: %w", v, err)
		}
		c.Pagination.MaxPages = n
	}
	if v := os.Getenv("CCR_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("CCR_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
		c.Storage.Enabled = true
	}
	if v := os.Getenv("CCR_LOG_LEVEL"); v != "" {
		c.Observability.LogLevel = v
	}
	return nil
}
