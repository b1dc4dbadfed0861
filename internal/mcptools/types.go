package mcptools

import (
	"github.com/dusk-indust/colmerge/internal/combine"
	"github.com/dusk-indust/colmerge/internal/graph"
	"github.com/dusk-indust/colmerge/internal/scan"
	"github.com/dusk-indust/colmerge/internal/status"
	"github.com/dusk-indust/colmerge/internal/verify"
)

// --- MCP Tool Types ---
// These structs define the JSON schema for each MCP tool's input and output.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ScanColumnsInput is the input for the scan_columns MCP tool.
type ScanColumnsInput struct{}

// ScanColumnsOutput is the result of the scan_columns MCP tool.
type ScanColumnsOutput struct {
	Participants   []string             `json:"participants"`
	Classification *scan.Classification `json:"classification"`
	Failures       []string             `json:"failures,omitempty"`
	Graph          graph.GraphStats     `json:"graph"`
}

// CombineColumnsInput is the input for the combine_columns MCP tool.
type CombineColumnsInput struct {
	Columns []string `json:"columns,omitempty" jsonschema:"column names to combine; ignored when all is true"`
	All     bool     `json:"all,omitempty" jsonschema:"combine every column available for selection"`
}

// CombineColumnsOutput is the result of the combine_columns MCP tool.
type CombineColumnsOutput struct {
	RunID    string           `json:"runId"`
	OK       bool             `json:"ok"`
	Selected []string         `json:"selected"`
	Rejected []string         `json:"rejected,omitempty"`
	Written  []combine.Target `json:"written"`
	Failures []string         `json:"failures,omitempty"`

	// VerificationFailures holds the records that did not pass.
	VerificationFailures []verify.Record `json:"verificationFailures,omitempty"`

	// Message is the aggregate notice shown when OK is false.
	Message string `json:"message,omitempty"`
}

// CombinedStatusInput is the input for the combined_status MCP tool.
type CombinedStatusInput struct {
	Column string `json:"column,omitempty" jsonschema:"column to check against the latest scan; when empty every combined directory is listed"`
}

// CombinedStatusOutput is the result of the combined_status MCP tool.
type CombinedStatusOutput struct {
	OutputDir string                `json:"outputDir"`
	Exists    bool                  `json:"exists"`
	Columns   []status.ColumnStatus `json:"columns"`
}

// ColumnParticipantsInput is the input for the column_participants MCP tool.
type ColumnParticipantsInput struct {
	Column string `json:"column" jsonschema:"column name"`
	File   string `json:"file,omitempty" jsonschema:"file name; when empty every file of the column is listed"`
}

// ColumnParticipantsOutput is the result of the column_participants MCP tool.
type ColumnParticipantsOutput struct {
	Column        string               `json:"column"`
	Label         string               `json:"label"`
	Contributions []graph.Contribution `json:"contributions"`
}
