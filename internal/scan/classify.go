package scan

import "slices"

// Label is the merge category of one discovered column.
type Label string

const (
	// LabelShallow marks a single-file column whose recorded line count is
	// at most ShallowLineLimit.
	LabelShallow Label = "single-file-shallow"

	// LabelDeep marks a single-file column with more than ShallowLineLimit lines.
	LabelDeep Label = "single-file-deep"

	// LabelMultiFile marks a column holding several distinct filenames.
	LabelMultiFile Label = "multi-file"

	// LabelUnmergeable marks a column that never yielded a matching file.
	LabelUnmergeable Label = "unmergeable"
)

// Classification partitions the discovered columns. Every slice is sorted.
type Classification struct {
	Columns            []string `json:"columns"`
	SingleFileShallow  []string `json:"singleFileShallow"`
	SingleFileDeep     []string `json:"singleFileDeep"`
	MultiFile          []string `json:"multiFile"`
	Unmergeable        []string `json:"unmergeable"`
	AvailableForSelect []string `json:"availableForSelect"`

	labels map[string]Label
}

// Classify derives the Classification of inv. It performs no I/O and returns
// equal results for equal inventories.
func Classify(inv *Inventory) *Classification {
	c := &Classification{
		Columns: inv.ColumnNames(),
		labels:  make(map[string]Label, len(inv.Columns)),
	}

	for _, column := range c.Columns {
		files, ok := inv.Files[column]
		switch {
		case !ok || len(files) == 0:
			c.labels[column] = LabelUnmergeable
			c.Unmergeable = append(c.Unmergeable, column)
		case len(files) > 1:
			c.labels[column] = LabelMultiFile
			c.MultiFile = append(c.MultiFile, column)
			c.AvailableForSelect = append(c.AvailableForSelect, column)
		default:
			var fi *FileInventory
			for _, v := range files {
				fi = v
			}
			if fi.Lines <= ShallowLineLimit {
				c.labels[column] = LabelShallow
				c.SingleFileShallow = append(c.SingleFileShallow, column)
			} else {
				c.labels[column] = LabelDeep
				c.SingleFileDeep = append(c.SingleFileDeep, column)
			}
			c.AvailableForSelect = append(c.AvailableForSelect, column)
		}
	}
	return c
}

// Label returns the category of column and whether it was discovered.
func (c *Classification) Label(column string) (Label, bool) {
	l, ok := c.labels[column]
	return l, ok
}

// Selectable reports whether column may be chosen for merging.
func (c *Classification) Selectable(column string) bool {
	_, ok := slices.BinarySearch(c.AvailableForSelect, column)
	return ok
}

// FilterSelectable returns the members of requested that may be merged,
// sorted and de-duplicated, plus the rejected names.
func (c *Classification) FilterSelectable(requested []string) (accepted, rejected []string) {
	seen := make(map[string]bool, len(requested))
	for _, col := range requested {
		if seen[col] {
			continue
		}
		seen[col] = true
		if c.Selectable(col) {
			accepted = append(accepted, col)
		} else {
			rejected = append(rejected, col)
		}
	}
	slices.Sort(accepted)
	slices.Sort(rejected)
	return accepted, rejected
}
