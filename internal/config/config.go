package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied to any field left empty by colmerge.yml.
const (
	DefaultParticipantPrefix = "HBU"
	DefaultCSVSuffix         = ".csv"
	DefaultExcludeSubstring  = "mri"
	DefaultOutputDir         = "processed-data"
)

// ProjectConfig holds settings loaded from colmerge.yml.
type ProjectConfig struct {
	// ParticipantPrefix selects which top-level directories are participants.
	ParticipantPrefix string `yaml:"participantPrefix,omitempty"`

	// CSVSuffix is the case-sensitive suffix a data file name must carry.
	CSVSuffix string `yaml:"csvSuffix,omitempty"`

	// ExcludeSubstring marks column directories whose contents are never opened.
	ExcludeSubstring string `yaml:"excludeSubstring,omitempty"`

	// OutputDir is where <column>_combined directories are written. Relative
	// paths resolve against the scanned root.
	OutputDir string `yaml:"outputDir,omitempty"`

	// Workers bounds the scan pool. Zero means GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`

	LogLevel  string `yaml:"logLevel,omitempty"`
	LogFormat string `yaml:"logFormat,omitempty"`
}

// Load attempts to read colmerge.yml or colmerge.yaml from the given
// directory. Returns a defaulted config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"colmerge.yml", "colmerge.yaml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	cfg := &ProjectConfig{}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads the config file at path. Unlike Load, a missing file is an
// error.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", filepath.Base(path), err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Marshal renders c as YAML, e.g. for writing a starter colmerge.yml.
func (c *ProjectConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ApplyEnv overrides fields from COLMERGE_* environment variables.
func (c *ProjectConfig) ApplyEnv() error {
	if v := os.Getenv("COLMERGE_PARTICIPANT_PREFIX"); v != "" {
		c.ParticipantPrefix = v
	}
	if v := os.Getenv("COLMERGE_CSV_SUFFIX"); v != "" {
		c.CSVSuffix = v
	}
	if v, ok := os.LookupEnv("COLMERGE_EXCLUDE_SUBSTRING"); ok {
		c.ExcludeSubstring = v
	}
	if v := os.Getenv("COLMERGE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("COLMERGE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: COLMERGE_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("COLMERGE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("COLMERGE_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	return nil
}

// Validate reports every invalid setting.
func (c *ProjectConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ParticipantPrefix) == "" {
		errs = append(errs, errors.New("participantPrefix must not be empty"))
	}
	if strings.TrimSpace(c.CSVSuffix) == "" {
		errs = append(errs, errors.New("csvSuffix must not be empty"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ResolveOutputDir returns the absolute output directory for a scanned root.
func (c *ProjectConfig) ResolveOutputDir(root string) string {
	if filepath.IsAbs(c.OutputDir) {
		return c.OutputDir
	}
	return filepath.Join(root, c.OutputDir)
}

func (c *ProjectConfig) applyDefaults() {
	if c.ParticipantPrefix == "" {
		c.ParticipantPrefix = DefaultParticipantPrefix
	}
	if c.CSVSuffix == "" {
		c.CSVSuffix = DefaultCSVSuffix
	}
	if c.ExcludeSubstring == "" {
		c.ExcludeSubstring = DefaultExcludeSubstring
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}
