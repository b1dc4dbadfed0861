package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/colmerge/internal/combine"
	"github.com/dusk-indust/colmerge/internal/progress"
	"github.com/dusk-indust/colmerge/internal/scan"
	"github.com/dusk-indust/colmerge/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// combined scans root, combines the selected columns into root/out and
// returns the inventory and output directory.
func combined(t *testing.T, root string, selected ...string) (*scan.Inventory, string) {
	t.Helper()
	res, err := scan.New(scan.Options{ParticipantPrefix: "HBU", CSVSuffix: ".csv", ExcludeSubstring: "mri"}).
		Scan(context.Background(), root, nil)
	require.NoError(t, err)

	out := filepath.Join(root, "out")
	_, err = combine.New(combine.Options{OutputDir: out}).Combine(context.Background(), res.Inventory, selected, nil)
	require.NoError(t, err)
	return res.Inventory, out
}

func TestVerify_RoundTripPasses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score,eye\n1,NaN\n2,left\n")
	writeFile(t, root, "HBU002/vision/scores.csv", "eye,score\nright,3\n")
	writeFile(t, root, "HBU003/vision/scores.csv", "score\n")
	inv, out := combined(t, root, "vision")

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)

	require.Len(t, report.Records, 1)
	assert.True(t, report.Records[0].OK, "%+v", report.Records[0])
	assert.True(t, report.Passed())
	assert.Empty(t, report.Failed())
}

func TestVerify_TamperedValue(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n1\n")
	writeFile(t, root, "HBU002/vision/scores.csv", "score\n2\n")
	inv, out := combined(t, root, "vision")
	writeFile(t, out, "vision_combined/scores.csv", "participant_id,score\nHBU001,1\nHBU002,5\n")

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)

	require.Len(t, report.Records, 1)
	rec := report.Records[0]
	assert.False(t, rec.OK)
	require.Len(t, rec.Mismatches, 1)
	assert.Equal(t, Mismatch{Participant: "HBU002", Field: "score", Row: 0, Combined: "5", Original: "2", Reason: "value differs"}, rec.Mismatches[0])
	assert.False(t, report.Passed())
}

func TestVerify_NaNSpellingsMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\nNaN\n")
	inv, out := combined(t, root, "vision")
	writeFile(t, out, "vision_combined/scores.csv", "participant_id,score\nHBU001,nan\n")

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)
	assert.True(t, report.Passed())
}

func TestVerify_RowCountDiffers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n1\n2\n")
	inv, out := combined(t, root, "vision")
	writeFile(t, out, "vision_combined/scores.csv", "participant_id,score\nHBU001,1\n")

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)

	rec := report.Records[0]
	assert.False(t, rec.OK)
	require.Len(t, rec.Mismatches, 1)
	assert.Contains(t, rec.Mismatches[0].Reason, "row count differs")
}

func TestVerify_UnknownParticipantRows(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n1\n")
	inv, out := combined(t, root, "vision")
	writeFile(t, out, "vision_combined/scores.csv", "participant_id,score\nHBU001,1\nHBU999,4\n")

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)

	rec := report.Records[0]
	assert.False(t, rec.OK)
	assert.Equal(t, "HBU999", rec.Mismatches[0].Participant)
}

func TestVerify_FieldDroppedFromCombined(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score,eye\n1,left\n")
	inv, out := combined(t, root, "vision")
	writeFile(t, out, "vision_combined/scores.csv", "participant_id,score\nHBU001,1\n")

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)

	rec := report.Records[0]
	assert.False(t, rec.OK)
	assert.Equal(t, "eye", rec.Mismatches[0].Field)
}

func TestVerify_MissingCombinedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n1\n")
	inv, out := combined(t, root)

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)

	rec := report.Records[0]
	assert.False(t, rec.OK)
	assert.Contains(t, rec.Message, rec.CombinedPath)
	assert.Contains(t, rec.Message, "open combined file")
}

func TestVerify_SourceRemovedAfterCombine(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, root, "HBU001/vision/scores.csv", "score\n1\n")
	inv, out := combined(t, root, "vision")
	require.NoError(t, os.Remove(src))

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)

	rec := report.Records[0]
	assert.False(t, rec.OK)
	assert.Contains(t, rec.Message, src)
	assert.Contains(t, rec.Message, rec.CombinedPath)
}

func TestVerify_MissingParticipantField(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n1\n")
	inv, out := combined(t, root, "vision")
	writeFile(t, out, "vision_combined/scores.csv", "score\n1\n")

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"vision"}, nil)
	require.NoError(t, err)
	assert.Contains(t, report.Records[0].Message, "participant_id")
}

func TestVerify_PanicBecomesFailedRecord(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/survey/a.csv", "q\ny\n")
	writeFile(t, root, "HBU001/survey/b.csv", "q\nn\n")
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n1\n")
	bad := writeFile(t, root, "HBU002/survey/a.csv", "q\nm\n")
	inv, out := combined(t, root, "survey", "vision")

	v := New(Options{OutputDir: out})
	v.read = func(path string) (*tabular.Table, error) {
		if path == bad {
			panic("decoder exploded")
		}
		return tabular.Read(path)
	}

	report, err := v.Verify(context.Background(), inv, []string{"survey", "vision"}, nil)
	require.NoError(t, err)
	require.Len(t, report.Records, 3)
	assert.False(t, report.Passed())

	byFile := make(map[string]Record)
	for _, rec := range report.Records {
		byFile[rec.Column+"/"+rec.File] = rec
	}
	failed := byFile["survey/a.csv"]
	assert.False(t, failed.OK)
	assert.Contains(t, failed.Message, "decoder exploded")
	assert.Contains(t, failed.Message, combine.CombinedPath(out, "survey", "a.csv"))

	assert.True(t, byFile["survey/b.csv"].OK, "%+v", byFile["survey/b.csv"])
	assert.True(t, byFile["vision/scores.csv"].OK, "%+v", byFile["vision/scores.csv"])
	assert.Len(t, report.Failed(), 1)
}

func TestVerify_ProgressFromFiftyToHundred(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/a/x.csv", "v\n1\n")
	writeFile(t, root, "HBU001/b/x.csv", "v\n1\n")
	writeFile(t, root, "HBU001/c/x.csv", "v\n1\n")
	inv, out := combined(t, root, "a", "b", "c")

	var got []int
	tracker := progress.NewTracker(context.Background(), func(ev progress.Event) { got = append(got, ev.Percent) })

	_, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, []string{"c", "a", "b"}, tracker)
	require.NoError(t, err)
	assert.Equal(t, []int{67, 83, 100}, got)
}

func TestVerify_NothingSelectedPasses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "HBU001/vision/scores.csv", "score\n1\n")
	inv, out := combined(t, root)

	report, err := New(Options{OutputDir: out}).Verify(context.Background(), inv, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Records)
	assert.True(t, report.Passed())
}

func TestReport_NilFails(t *testing.T) {
	var r *Report
	assert.False(t, r.Passed())
}

func TestRecord_MismatchCap(t *testing.T) {
	rec := Record{OK: true}
	for i := 0; i < MaxMismatches+5; i++ {
		rec.addMismatch(Mismatch{Row: i})
	}
	assert.False(t, rec.OK)
	assert.Len(t, rec.Mismatches, MaxMismatches)
	assert.Equal(t, MaxMismatches+5, rec.MismatchCount)
}
