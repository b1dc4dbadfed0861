package graph

// ParticipantNode is one participant directory.
type ParticipantNode struct {
	ID string `json:"id"`
}

// ColumnNode is one discovered column and its merge category.
type ColumnNode struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// FileNode is one distinct filename under a column.
type FileNode struct {
	Column string `json:"column"`
	Name   string `json:"name"`

	// Lines is the recorded line count; 0 means shallow.
	Lines int `json:"lines"`
}

// Contribution links a participant to the file it supplied for a column.
type Contribution struct {
	Participant string `json:"participant"`
	Column      string `json:"column"`
	File        string `json:"file"`
	Path        string `json:"path"`
}

// GraphStats summarizes an inventory graph.
type GraphStats struct {
	ParticipantCount  int `json:"participantCount"`
	ColumnCount       int `json:"columnCount"`
	FileCount         int `json:"fileCount"`
	ContributionCount int `json:"contributionCount"`
}

// fileID is the primary key of a file node.
func fileID(column, name string) string {
	return column + "/" + name
}
