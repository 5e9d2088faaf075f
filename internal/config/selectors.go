package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ccr-registry-scraper/internal/scraper"
)

// LoadSelectors reads page locators from a YAML file. Keys missing from the
// file keep their values from scraper.DefaultSelectors.
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("selectors file not found: %s: %w", filePath, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	selectors := scraper.DefaultSelectors()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(selectors); err != nil {
		return nil, err
	}

	return selectors, nil
}

// Selectors returns the locators configured by selectors_file, or the
// built-in CCR locators when none is set. A relative path is resolved
// against the directory of the config file.
func (c *Config) Selectors() (*scraper.Selectors, error) {
	if c.SelectorsFile == "" {
		return scraper.DefaultSelectors(), nil
	}

	filePath := c.SelectorsFile
	if !filepath.IsAbs(filePath) && c.Source != "defaults" {
		filePath = filepath.Join(filepath.Dir(c.Source), filePath)
	}

	return LoadSelectors(filePath)
}

// validateSelectors checks the minimal locator set
func validateSelectors(s *scraper.Selectors) error {
	if s.SearchButtonID == "" {
		return fmt.Errorf("search_button_id is required")
	}
	if s.ResultsTableID == "" {
		return fmt.Errorf("results_table_id is required")
	}
	if s.NextButtonID == "" && len(s.NextLabels) == 0 && len(s.NextAffixes) == 0 {
		return fmt.Errorf("at least one of next_button_id, next_labels, next_affixes is required")
	}
	if len(s.DisabledMarkers) == 0 {
		return fmt.Errorf("disabled_markers is required")
	}
	if s.HeaderRows < 0 {
		return fmt.Errorf("header_rows must be >= 0")
	}
	if s.MinCells <= 0 {
		return fmt.Errorf("min_cells must be > 0")
	}

	return nil
}
