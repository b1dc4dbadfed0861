package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInventory() *Inventory {
	inv := NewInventory()
	inv.AddSource("vision", "scores.csv", "HBU001", "/r/HBU001/vision/scores.csv", 3)
	inv.AddSource("demo", "one.csv", "HBU001", "/r/HBU001/demo/one.csv", 0)
	inv.AddSource("hearing", "left.csv", "HBU001", "/r/HBU001/hearing/left.csv", 5)
	inv.AddSource("hearing", "right.csv", "HBU001", "/r/HBU001/hearing/right.csv", 0)
	inv.AddColumn("mri")
	inv.AddColumn("survey")
	return inv
}

func TestClassify(t *testing.T) {
	c := Classify(sampleInventory())

	assert.Equal(t, []string{"demo", "hearing", "mri", "survey", "vision"}, c.Columns)
	assert.Equal(t, []string{"demo"}, c.SingleFileShallow)
	assert.Equal(t, []string{"vision"}, c.SingleFileDeep)
	assert.Equal(t, []string{"hearing"}, c.MultiFile)
	assert.Equal(t, []string{"mri", "survey"}, c.Unmergeable)
	assert.Equal(t, []string{"demo", "hearing", "vision"}, c.AvailableForSelect)
}

func TestClassify_EveryColumnInExactlyOneOfAvailableOrUnmergeable(t *testing.T) {
	c := Classify(sampleInventory())

	for _, col := range c.Columns {
		inAvail := contains(c.AvailableForSelect, col)
		inUnmerge := contains(c.Unmergeable, col)
		assert.True(t, inAvail != inUnmerge, "column %q", col)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	inv := sampleInventory()
	assert.Equal(t, Classify(inv), Classify(inv))
}

func TestClassify_DeepNotShallow(t *testing.T) {
	inv := NewInventory()
	inv.AddSource("vision", "scores.csv", "HBU001", "/p", 3)

	label, ok := Classify(inv).Label("vision")
	require.True(t, ok)
	assert.Equal(t, LabelDeep, label)
}

func TestClassify_UnknownColumn(t *testing.T) {
	_, ok := Classify(NewInventory()).Label("nothing")
	assert.False(t, ok)
}

func TestFilterSelectable(t *testing.T) {
	c := Classify(sampleInventory())

	accepted, rejected := c.FilterSelectable([]string{"vision", "mri", "demo", "vision", "ghost"})

	assert.Equal(t, []string{"demo", "vision"}, accepted)
	assert.Equal(t, []string{"ghost", "mri"}, rejected)
}

func TestInventoryMerge_OrderIndependentSources(t *testing.T) {
	a := NewInventory()
	a.AddSource("vision", "scores.csv", "HBU001", "/a", 3)
	b := NewInventory()
	b.AddSource("vision", "scores.csv", "HBU002", "/b", 3)
	b.AddColumn("survey")

	ab := NewInventory()
	ab.Merge(a)
	ab.Merge(b)
	ba := NewInventory()
	ba.Merge(b)
	ba.Merge(a)

	assert.Equal(t, ab.Columns, ba.Columns)
	assert.Equal(t, ab.Files["vision"]["scores.csv"].Sources, ba.Files["vision"]["scores.csv"].Sources)
	assert.Equal(t, []string{"HBU001", "HBU002"}, ab.Participants("vision", "scores.csv"))

	path, ok := ab.Source("vision", "scores.csv", "HBU002")
	assert.True(t, ok)
	assert.Equal(t, "/b", path)
	_, ok = ab.Source("vision", "absent.csv", "HBU002")
	assert.False(t, ok)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
