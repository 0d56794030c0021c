// Package config loads the optional planilha.yaml file.
//
// Every field has a default, so a missing file is not an error. Values read
// from the file are merged over the defaults and then validated.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/nconklindev/planilha/internal/present"
	"github.com/nconklindev/planilha/internal/sheet"
)

// DefaultFile is looked up in the working directory when --config is not set.
const DefaultFile = "planilha.yaml"

// DefaultOutputFile is the name of the reconciled workbook.
const DefaultOutputFile = "Contas_com_CPF.xlsx"

// Config holds the application settings.
type Config struct {
	// OutputFile is where the reconciled sheet is written. A relative name
	// is placed next to the charges file. The extension picks the format
	// (.xlsx or .csv).
	OutputFile string `yaml:"output_file"`

	// SheetName names the single sheet of the output workbook.
	SheetName string `yaml:"sheet_name"`

	// HeaderSearchRows limits how many leading rows are scanned for the
	// header of each input.
	HeaderSearchRows int `yaml:"header_search_rows"`

	// PreviewRows is how many rows the terminal UI shows after processing.
	PreviewRows int `yaml:"preview_rows"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFile receives logs. Empty means stderr for the merge command and
	// nowhere for the terminal UI.
	LogFile string `yaml:"log_file"`

	// Locale drives number formatting in summaries, e.g. pt-BR or en-US.
	Locale string `yaml:"locale"`

	Palette present.Palette `yaml:"palette"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads path, merges it over the defaults and validates the result.
// When path is DefaultFile and it does not exist, the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && path == DefaultFile:
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OutputFile == "" {
		cfg.OutputFile = DefaultOutputFile
	}
	if cfg.SheetName == "" {
		cfg.SheetName = sheet.DefaultSheetName
	}
	if cfg.HeaderSearchRows == 0 {
		cfg.HeaderSearchRows = sheet.DefaultHeaderSearchRows
	}
	if cfg.PreviewRows == 0 {
		cfg.PreviewRows = 10
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Locale == "" {
		cfg.Locale = "pt-BR"
	}
	cfg.Palette = cfg.Palette.WithDefaults()
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	switch ext := strings.ToLower(filepath.Ext(c.OutputFile)); ext {
	case ".xlsx", ".csv":
	default:
		return fmt.Errorf("output_file must end in .xlsx or .csv, got %q", c.OutputFile)
	}
	if len(c.SheetName) > 31 {
		return fmt.Errorf("sheet_name must be at most 31 characters")
	}
	if c.HeaderSearchRows < 0 {
		return fmt.Errorf("header_search_rows must not be negative")
	}
	if c.PreviewRows < 0 {
		return fmt.Errorf("preview_rows must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("unknown locale %q: %w", c.Locale, err)
	}
	return c.Palette.Validate()
}

// Language returns the parsed locale, falling back to Brazilian Portuguese.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

// OutputPath resolves OutputFile against the directory of the charges file.
func (c *Config) OutputPath(chargesFile string) string {
	if filepath.IsAbs(c.OutputFile) || chargesFile == "" {
		return c.OutputFile
	}
	return filepath.Join(filepath.Dir(chargesFile), c.OutputFile)
}
