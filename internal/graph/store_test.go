package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behavior every Store implementation shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx))

	require.NoError(t, s.AddColumn(ctx, ColumnNode{Name: "vision", Label: "single-file-deep"}))
	require.NoError(t, s.AddColumn(ctx, ColumnNode{Name: "mri", Label: "unmergeable"}))
	require.NoError(t, s.AddFile(ctx, FileNode{Column: "vision", Name: "scores.csv", Lines: 3}))
	require.NoError(t, s.AddParticipant(ctx, ParticipantNode{ID: "HBU002"}))
	require.NoError(t, s.AddParticipant(ctx, ParticipantNode{ID: "HBU001"}))
	require.NoError(t, s.AddContribution(ctx, Contribution{Participant: "HBU002", Column: "vision", File: "scores.csv", Path: "/r/HBU002/vision/scores.csv"}))
	require.NoError(t, s.AddContribution(ctx, Contribution{Participant: "HBU001", Column: "vision", File: "scores.csv", Path: "/r/HBU001/vision/scores.csv"}))

	// Re-adding replaces rather than duplicates.
	require.NoError(t, s.AddParticipant(ctx, ParticipantNode{ID: "HBU001"}))
	require.NoError(t, s.AddColumn(ctx, ColumnNode{Name: "vision", Label: "multi-file"}))
	require.NoError(t, s.AddContribution(ctx, Contribution{Participant: "HBU001", Column: "vision", File: "scores.csv", Path: "/r/HBU001/vision/scores.csv"}))

	columns, err := s.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ColumnNode{
		{Name: "mri", Label: "unmergeable"},
		{Name: "vision", Label: "multi-file"},
	}, columns)

	files, err := s.Files(ctx, "vision")
	require.NoError(t, err)
	assert.Equal(t, []FileNode{{Column: "vision", Name: "scores.csv", Lines: 3}}, files)

	files, err = s.Files(ctx, "mri")
	require.NoError(t, err)
	assert.Empty(t, files)

	got, err := s.Participants(ctx, "vision", "scores.csv")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "HBU001", got[0].Participant)
	assert.Equal(t, "/r/HBU001/vision/scores.csv", got[0].Path)
	assert.Equal(t, "HBU002", got[1].Participant)

	none, err := s.Participants(ctx, "mri", "brain.csv")
	require.NoError(t, err)
	assert.Empty(t, none)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &GraphStats{ParticipantCount: 2, ColumnCount: 2, FileCount: 1, ContributionCount: 2}, stats)

	assert.Error(t, s.AddFile(ctx, FileNode{Column: "missing", Name: "x.csv"}))
	assert.Error(t, s.AddContribution(ctx, Contribution{Participant: "HBU999", Column: "vision", File: "scores.csv"}))
	assert.Error(t, s.AddContribution(ctx, Contribution{Participant: "HBU001", Column: "vision", File: "other.csv"}))

	require.NoError(t, s.Reset(ctx))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &GraphStats{}, stats)

	require.NoError(t, s.AddColumn(ctx, ColumnNode{Name: "vision", Label: "single-file-deep"}))
	require.NoError(t, s.AddFile(ctx, FileNode{Column: "vision", Name: "scores.csv", Lines: 3}))
	got, err = s.Participants(ctx, "vision", "scores.csv")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}
