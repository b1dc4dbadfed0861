package combine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/colmerge/internal/progress"
	"github.com/dusk-indust/colmerge/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scanTree(t *testing.T, root string) *scan.Inventory {
	t.Helper()
	res, err := scan.New(scan.Options{
		ParticipantPrefix: "HBU",
		CSVSuffix:         ".csv",
		ExcludeSubstring:  "mri",
	}).Scan(context.Background(), root, nil)
	require.NoError(t, err)
	return res.Inventory
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCombine_TwoParticipants(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n7\n")
	writeFile(t, root, "HBU002/vision/scores.csv", "score\n9\n")
	out := filepath.Join(root, "processed-data")

	report, err := New(Options{OutputDir: out}).Combine(context.Background(), scanTree(t, root), []string{"vision"}, nil)
	require.NoError(t, err)

	require.Len(t, report.Written, 1)
	target := report.Written[0]
	assert.Equal(t, CombinedPath(out, "vision", "scores.csv"), target.Path)
	assert.Equal(t, []string{"HBU001", "HBU002"}, target.Participants)
	assert.Equal(t, 2, target.Rows)

	assert.Equal(t, "participant_id,score\nHBU001,7\nHBU002,9\n", readFile(t, target.Path))
}

func TestCombine_UnselectedColumnsUntouched(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n7\n")
	writeFile(t, root, "HBU001/hearing/left.csv", "db\n20\n")
	out := filepath.Join(root, "processed-data")

	_, err := New(Options{OutputDir: out}).Combine(context.Background(), scanTree(t, root), []string{"vision"}, nil)
	require.NoError(t, err)

	_, err = os.Stat(CombinedDir(out, "hearing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(CombinedPath(out, "vision", "scores.csv"))
	assert.NoError(t, err)
}

func TestCombine_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU002/vision/scores.csv", "score,eye\n9,left\n8,right\n")
	writeFile(t, root, "HBU001/vision/scores.csv", "eye,score\nleft,7\n")
	writeFile(t, root, "HBU003/vision/scores.csv", "score\n\n")
	out := filepath.Join(root, "processed-data")
	inv := scanTree(t, root)
	c := New(Options{OutputDir: out, Workers: 4})

	_, err := c.Combine(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)
	first := readFile(t, CombinedPath(out, "vision", "scores.csv"))

	_, err = c.Combine(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)
	second := readFile(t, CombinedPath(out, "vision", "scores.csv"))

	assert.Equal(t, first, second)
	assert.Equal(t, "participant_id,eye,score\nHBU001,left,7\nHBU002,left,9\nHBU002,right,8\n", first)
}

func TestCombine_MultiFileColumn(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/hearing/left.csv", "db\n20\n")
	writeFile(t, root, "HBU001/hearing/right.csv", "db\n25\n")
	writeFile(t, root, "HBU002/hearing/left.csv", "db\n30\n")
	out := filepath.Join(root, "out")

	report, err := New(Options{OutputDir: out}).Combine(context.Background(), scanTree(t, root), []string{"hearing"}, nil)
	require.NoError(t, err)

	require.Len(t, report.Written, 2)
	assert.Equal(t, "participant_id,db\nHBU001,20\nHBU002,30\n", readFile(t, CombinedPath(out, "hearing", "left.csv")))
	assert.Equal(t, "participant_id,db\nHBU001,25\n", readFile(t, CombinedPath(out, "hearing", "right.csv")))
}

func TestCombine_MalformedSourceIsolated(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n7\n")
	writeFile(t, root, "HBU002/vision/scores.csv", "score\n1,2,3\n")
	writeFile(t, root, "HBU001/hearing/left.csv", "db\n20\n")
	out := filepath.Join(root, "out")

	report, err := New(Options{OutputDir: out}).Combine(context.Background(), scanTree(t, root), []string{"vision", "hearing"}, nil)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	f := report.Failures[0]
	assert.Equal(t, "vision", f.Column)
	assert.Equal(t, "scores.csv", f.File)
	assert.Equal(t, "HBU002", f.Participant)
	assert.Contains(t, f.Error(), "HBU002")

	require.Len(t, report.Written, 1)
	assert.Equal(t, "hearing", report.Written[0].Column)
	_, err = os.Stat(CombinedPath(out, "vision", "scores.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist, "no partial output for a failed target")
}

func TestCombine_AllTargetsFail(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "")
	out := filepath.Join(root, "out")

	report, err := New(Options{OutputDir: out}).Combine(context.Background(), scanTree(t, root), []string{"vision"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllTargetsFailed)
	require.NotNil(t, report)
	assert.Len(t, report.Failures, 1)
}

func TestCombine_ProgressOncePerColumn(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/a/x.csv", "v\n1\n")
	writeFile(t, root, "HBU001/b/x.csv", "v\n1\n")
	writeFile(t, root, "HBU001/b/y.csv", "v\n1\n")
	writeFile(t, root, "HBU001/c/x.csv", "v\n1\n")
	writeFile(t, root, "HBU001/d/x.csv", "v\n1\n")

	var got []int
	tracker := progress.NewTracker(context.Background(), func(ev progress.Event) { got = append(got, ev.Percent) })

	_, err := New(Options{OutputDir: filepath.Join(root, "out")}).Combine(context.Background(), scanTree(t, root), []string{"b", "d"}, tracker)
	require.NoError(t, err)

	assert.Equal(t, []int{13, 25, 38, 50}, got)
}

func TestCombine_MissingSelection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n7\n")

	report, err := New(Options{OutputDir: filepath.Join(root, "out")}).Combine(context.Background(), scanTree(t, root), []string{"ghost", "ghost"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, report.Missing)
	assert.Empty(t, report.Written)
}

func TestCombine_OutputDirUnwritable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n7\n")
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	_, err := New(Options{OutputDir: filepath.Join(blocker, "out")}).Combine(context.Background(), scanTree(t, root), []string{"vision"}, nil)
	assert.Error(t, err)
}

func TestCombine_Canceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n7\n")
	inv := scanTree(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{OutputDir: filepath.Join(root, "out")}).Combine(ctx, inv, []string{"vision"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
