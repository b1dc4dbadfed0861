package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/colmerge/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(root string) orchestrator.Config {
	return orchestrator.Config{
		Root:              root,
		OutputDir:         filepath.Join(root, "processed-data"),
		ParticipantPrefix: "HBU",
		CSVSuffix:         ".csv",
		ExcludeSubstring:  "mri",
	}
}

func TestBuildReport(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n1\n2\n")
	writeFile(t, root, "HBU002/vision/scores.csv", "score\n3\n4\n")
	writeFile(t, root, "HBU002/bad/x.csv", "a\n1,2\n")
	writeFile(t, root, "HBU001/mri/brain.csv", "v\n1\n")

	cfg := testConfig(root)
	p := orchestrator.NewPipeline(cfg)
	outcome, err := p.Scan(context.Background(), nil)
	require.NoError(t, err)
	run, err := p.RunCombine(context.Background(), []string{"vision", "bad", "mri"}, nil)
	require.NoError(t, err)

	r := BuildReport(cfg, outcome, run)

	assert.NotEmpty(t, r.ExportedAt)
	assert.Equal(t, []string{"HBU001", "HBU002"}, r.Participants)
	assert.Equal(t, []string{"mri"}, r.Classification.Unmergeable)
	require.Len(t, r.Files, 2)
	assert.Equal(t, FileExport{Column: "vision", File: "scores.csv", Lines: 3, Participants: []string{"HBU001", "HBU002"}}, r.Files[1])

	require.NotNil(t, r.Run)
	assert.False(t, r.Run.OK)
	assert.Equal(t, []string{"mri"}, r.Run.Rejected)
	require.Len(t, r.Run.Written, 1)
	require.Len(t, r.Run.Failures, 1)
	assert.Equal(t, "bad", r.Run.Failures[0].Column)
	assert.Equal(t, "HBU002", r.Run.Failures[0].Participant)
	assert.NotEmpty(t, r.Run.Failures[0].Error)
	assert.Len(t, r.Run.Verification, 2)

	require.Len(t, r.Combined, 1)
	assert.Equal(t, "vision", r.Combined[0].Column)
}

func TestBuildReport_StatusOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "processed-data/vision_combined/scores.csv", "participant_id,score\nHBU001,1\n")

	r := BuildReport(testConfig(root), nil, nil)
	assert.Nil(t, r.Classification)
	assert.Nil(t, r.Run)
	require.Len(t, r.Combined, 1)
	assert.Equal(t, 1, r.Combined[0].Files[0].Rows)
}

func TestWriteJSON(t *testing.T) {
	r := &Report{Root: "/data", OutputDir: "/data/processed-data", Participants: []string{"HBU001"}}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "/data", decoded["root"])
	assert.NotContains(t, decoded, "run")
	assert.Contains(t, buf.String(), "\n  \"root\"")
}
