package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dusk-indust/colmerge/internal/config"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// mcpEntry is the MCP server configuration for the colmerge binary.
type mcpEntry struct {
	Type    string   `json:"type"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// runInit writes a starter colmerge.yml and registers the MCP server in
// .mcp.json under root.
func runInit(root string, force bool, w io.Writer) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating root: %w", err)
	}

	if err := writeStarterConfig(root, force, w); err != nil {
		return err
	}
	if err := mergeMCPConfig(root, filepath.Join(root, ".mcp.json"), force, w); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSetup complete. Run 'colmerge scan' to list the columns.")
	return nil
}

func writeStarterConfig(root string, force bool, w io.Writer) error {
	path := filepath.Join(root, "colmerge.yml")
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(w, "  skipped %s (exists, use -force to overwrite)\n", dotRelative(root, path))
		return nil
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(w, "  created %s\n", dotRelative(root, path))
	return nil
}

// mergeMCPConfig creates or merges the colmerge entry into .mcp.json.
func mergeMCPConfig(root, mcpPath string, force bool, w io.Writer) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["colmerge"]; exists && !force {
		fmt.Fprintf(w, "  skipped .mcp.json colmerge entry (exists, use -force to overwrite)\n")
		return nil
	}

	entry, err := json.Marshal(mcpEntry{
		Type:    "stdio",
		Command: "colmerge",
		Args:    []string{"-root", root, "serve-mcp"},
	})
	if err != nil {
		return fmt.Errorf("marshaling MCP entry: %w", err)
	}
	cfg.MCPServers["colmerge"] = entry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with colmerge MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to root, prefixed with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
