package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/colmerge/internal/graph"
)

// GenerateMermaid produces a Mermaid graph LR diagram from a graph store.
// Each column is a subgraph of its files; contributions become arrows from
// participants to files. Columns without files are drawn as lone nodes.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	columns, err := store.Columns(ctx)
	if err != nil {
		return "", fmt.Errorf("get columns: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	var sb strings.Builder
	var arrows, participants []string
	seen := make(map[string]bool)
	sb.WriteString("graph LR\n")

	for _, c := range columns {
		files, err := store.Files(ctx, c.Name)
		if err != nil {
			return "", fmt.Errorf("get files of %s: %w", c.Name, err)
		}
		label := fmt.Sprintf("%s (%s)", c.Name, c.Label)
		if len(files) == 0 {
			fmt.Fprintf(&sb, "  %s[\"%s\"]\n", getID("column:"+c.Name), escape(label))
			continue
		}

		fmt.Fprintf(&sb, "  subgraph %s[\"%s\"]\n", getID("column:"+c.Name), escape(label))
		for _, f := range files {
			fileKey := "file:" + c.Name + "/" + f.Name
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", getID(fileKey), escape(f.Name))

			contributions, err := store.Participants(ctx, c.Name, f.Name)
			if err != nil {
				return "", fmt.Errorf("get participants of %s/%s: %w", c.Name, f.Name, err)
			}
			for _, p := range contributions {
				if !seen[p.Participant] {
					seen[p.Participant] = true
					participants = append(participants, p.Participant)
				}
				arrows = append(arrows, fmt.Sprintf("  %s --> %s\n", getID("participant:"+p.Participant), getID(fileKey)))
			}
		}
		sb.WriteString("  end\n")
	}

	// Participant nodes are declared once, after every subgraph.
	for _, p := range participants {
		fmt.Fprintf(&sb, "  %s([\"%s\"])\n", getID("participant:"+p), escape(p))
	}

	for _, a := range arrows {
		sb.WriteString(a)
	}
	return sb.String(), nil
}

// escape makes label safe inside a quoted Mermaid label.
func escape(label string) string {
	return strings.ReplaceAll(label, `"`, "#quot;")
}
