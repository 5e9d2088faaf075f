package config

import (
	"fmt"
	"time"
)

type Config struct {
	URL             string              `yaml:"url"`
	WaitTimeoutS    int                 `yaml:"wait_timeout_s"`
	PageLoadDelayMS int                 `yaml:"page_load_delay_ms"`
	SettleDelayMS   int                 `yaml:"settle_delay_ms"`
	Rod             RodConfig           `yaml:"rod"`
	Pagination      PaginationConfig    `yaml:"pagination"`
	SelectorsFile   string              `yaml:"selectors_file"`
	Normalize       NormalizeConfig     `yaml:"normalize"`
	Output          OutputConfig        `yaml:"output"`
	Storage         StorageConfig       `yaml:"storage"`
	Observability   ObservabilityConfig `yaml:"observability"`

	// Source is the file the config was read from, or "defaults".
	Source string `yaml:"-"`
}

type RodConfig struct {
	ChromePath string `yaml:"chrome_path"`
	Headless   bool   `yaml:"headless"`
	NoSandbox  bool   `yaml:"no_sandbox"`
	Stealth    bool   `yaml:"stealth"`
	// Seconds to keep the browser open after the run, for manual inspection.
	CloseDelayS int `yaml:"close_delay_s"`
}

type PaginationConfig struct {
	ScrapeAllPages         bool `yaml:"scrape_all_pages"`
	MaxPages               int  `yaml:"max_pages"`
	CheckpointInterval     int  `yaml:"checkpoint_interval"`
	MaxConsecutiveFailures int  `yaml:"max_consecutive_failures"`
}

type NormalizeConfig struct {
	TrimNBSP       bool `yaml:"trim_nbsp"`
	CollapseSpaces bool `yaml:"collapse_spaces"`
}

type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Format   string `yaml:"format"`
	Filename string `yaml:"filename"`
}

type StorageConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type ObservabilityConfig struct {
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		URL:             "https://ccr.mit.gov.jo/mitq/faces/HomePage",
		WaitTimeoutS:    15,
		PageLoadDelayMS: 4000,
		SettleDelayMS:   3000,
		Rod: RodConfig{
			Headless: false,
			Stealth:  true,
		},
		Pagination: PaginationConfig{
			ScrapeAllPages:         true,
			MaxPages:               100,
			CheckpointInterval:     10,
			MaxConsecutiveFailures: 3,
		},
		Normalize: NormalizeConfig{
			TrimNBSP:       true,
			CollapseSpaces: true,
		},
		Output: OutputConfig{
			Dir:      ".",
			Format:   "excel",
			Filename: "ccr_{kind}_{date}.xlsx",
		},
		Storage: StorageConfig{
			Driver:           "mssql",
			CommandTimeoutMS: 30000,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.WaitTimeoutS <= 0 {
		return fmt.Errorf("wait_timeout_s must be > 0")
	}
	if c.PageLoadDelayMS < 0 {
		return fmt.Errorf("page_load_delay_ms must be >= 0")
	}
	if c.SettleDelayMS < 0 {
		return fmt.Errorf("settle_delay_ms must be >= 0")
	}
	if c.Pagination.MaxPages <= 0 {
		return fmt.Errorf("pagination.max_pages must be > 0")
	}
	if c.Pagination.CheckpointInterval < 0 {
		return fmt.Errorf("pagination.checkpoint_interval must be >= 0")
	}
	if c.Pagination.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("pagination.max_consecutive_failures must be > 0")
	}
	if c.Output.Format != "excel" && c.Output.Format != "csv" {
		return fmt.Errorf("output.format must be 'excel' or 'csv'")
	}
	if c.Output.Filename == "" {
		return fmt.Errorf("output.filename is required")
	}
	if c.Storage.Enabled {
		if c.Storage.Driver != "mssql" {
			return fmt.Errorf("storage.driver must be 'mssql'")
		}
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.enabled is true")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	if c.Rod.CloseDelayS < 0 {
		return fmt.Errorf("rod.close_delay_s must be >= 0")
	}
	return nil
}

// PageBudget is the number of result pages a run may visit.
func (c *Config) PageBudget() int {
	if !c.Pagination.ScrapeAllPages {
		return 1
	}
	return c.Pagination.MaxPages
}

// Getters
func (c *Config) GetWaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutS) * time.Second
}

func (c *Config) GetPageLoadDelay() time.Duration {
	return time.Duration(c.PageLoadDelayMS) * time.Millisecond
}

func (c *Config) GetSettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetRodCloseDelay() time.Duration {
	return time.Duration(c.Rod.CloseDelayS) * time.Second
}
