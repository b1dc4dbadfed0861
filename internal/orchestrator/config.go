package orchestrator

import (
	"github.com/dusk-indust/colmerge/internal/config"
	"github.com/dusk-indust/colmerge/internal/scan"
)

// Config holds runtime configuration for a Pipeline.
type Config struct {
	// Root is the directory holding participant directories.
	Root string

	// OutputDir receives the <column>_combined directories.
	OutputDir string

	ParticipantPrefix string
	CSVSuffix         string
	ExcludeSubstring  string

	// Workers bounds every worker pool. Zero means GOMAXPROCS.
	Workers int
}

// FromProject builds a Config for root from a loaded project config.
func FromProject(root string, pc *config.ProjectConfig) Config {
	return Config{
		Root:              root,
		OutputDir:         pc.ResolveOutputDir(root),
		ParticipantPrefix: pc.ParticipantPrefix,
		CSVSuffix:         pc.CSVSuffix,
		ExcludeSubstring:  pc.ExcludeSubstring,
		Workers:           pc.Workers,
	}
}

func (c Config) scanOptions() scan.Options {
	return scan.Options{
		ParticipantPrefix: c.ParticipantPrefix,
		CSVSuffix:         c.CSVSuffix,
		ExcludeSubstring:  c.ExcludeSubstring,
		Workers:           c.Workers,
	}
}
