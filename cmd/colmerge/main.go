package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dusk-indust/colmerge/internal/config"
	"github.com/dusk-indust/colmerge/internal/logging"
	"github.com/dusk-indust/colmerge/internal/orchestrator"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Root     string
	Config   string
	Columns  string
	All      bool
	GraphDB  string
	HTTPAddr string
	Force    bool
	Verbose  bool
	Version  bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: colmerge [flags] <command>

commands:
  scan       list discovered columns and how they can be merged
  combine    combine and verify the columns given by -columns or -all
  status     list combined outputs on disk; with -columns, expected vs present files
  export     print a JSON report of the scan and combined outputs
  diagram    print a Mermaid diagram of participants, columns and files
  serve-mcp  run the MCP server on stdio, or on -http when set
  init       write a starter colmerge.yml and .mcp.json entry

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var flags cliFlags

	fs := flag.NewFlagSet("colmerge", flag.ContinueOnError)
	fs.StringVar(&flags.Root, "root", ".", "directory holding the participant directories")
	fs.StringVar(&flags.Config, "config", "", "config file (default: <root>/colmerge.yml)")
	fs.StringVar(&flags.Columns, "columns", "", "comma-separated columns to combine")
	fs.BoolVar(&flags.All, "all", false, "combine every column available for selection")
	fs.StringVar(&flags.GraphDB, "graph-db", "", "persist the inventory graph at this path (requires cgo)")
	fs.StringVar(&flags.HTTPAddr, "http", "", "serve MCP over HTTP on this address instead of stdio")
	fs.BoolVar(&flags.Force, "force", false, "overwrite existing files on init")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, version)
		return nil
	}

	command := fs.Arg(0)
	if command == "" {
		fs.Usage()
		return errors.New("missing command")
	}

	root, err := filepath.Abs(flags.Root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	if command == "init" {
		return runInit(root, flags.Force, stdout)
	}

	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	pc, err := loadConfig(root, flags.Config)
	if err != nil {
		return err
	}

	level := pc.LogLevel
	if flags.Verbose {
		level = "debug"
	}
	logging.Setup(level, pc.LogFormat)

	cfg := orchestrator.FromProject(root, pc)
	pipeline := orchestrator.NewPipeline(cfg)

	switch command {
	case "scan":
		return runScan(ctx, pipeline, flags.Verbose, stdout)
	case "combine":
		return runCombine(ctx, pipeline, splitColumns(flags.Columns), flags.All, stdout)
	case "status":
		return runStatus(ctx, pipeline, splitColumns(flags.Columns), stdout)
	case "export":
		return runExport(ctx, pipeline, splitColumns(flags.Columns), flags.All, stdout)
	case "diagram":
		return runDiagram(ctx, pipeline, flags.GraphDB, stdout)
	case "serve-mcp":
		return runServeMCP(ctx, pipeline, flags.GraphDB, flags.HTTPAddr)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// loadConfig reads the project config, applies COLMERGE_* overrides and
// validates the result.
func loadConfig(root, path string) (*config.ProjectConfig, error) {
	var (
		pc  *config.ProjectConfig
		err error
	)
	if path != "" {
		pc, err = config.LoadFile(path)
	} else {
		pc, err = config.Load(root)
	}
	if err != nil {
		return nil, err
	}
	if err := pc.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	return pc, nil
}

func splitColumns(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
