package pathtree

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIdempotent(t *testing.T) {
	t.Parallel()

	once := Build([][]string{{"Member1", "Member2"}})
	twice := Build([][]string{{"Member1", "Member2"}, {"Member1", "Member2"}})

	assert.True(t, Equal(once, twice), "once:\n%s\ntwice:\n%s", once, twice)
	assert.Equal(t, once.Fingerprint(), twice.Fingerprint())
}

func TestInsertOrderIndependent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b [][]string
	}{
		{"siblings", [][]string{{"A", "B"}, {"A", "C"}}, [][]string{{"A", "C"}, {"A", "B"}}},
		{"prefix first", [][]string{{"A"}, {"A", "B", "C"}}, [][]string{{"A", "B", "C"}, {"A"}}},
		{"disjoint", [][]string{{"X"}, {"Y", "Z"}, {"A"}}, [][]string{{"A"}, {"X"}, {"Y", "Z"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, b := Build(tt.a), Build(tt.b)
			assert.True(t, Equal(a, b), "a:\n%s\nb:\n%s", a, b)
			assert.Equal(t, a.Fingerprint(), b.Fingerprint())
			assert.Equal(t, a.String(), b.String())
		})
	}
}

func TestPrefixSharing(t *testing.T) {
	t.Parallel()

	root := Build([][]string{{"A", "B"}, {"A", "B", "C"}})

	a, ok := root.Child("A")
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, a.Keys())

	ab, ok := root.Lookup([]string{"A", "B"})
	require.True(t, ok)
	assert.Equal(t, []string{"C"}, ab.Keys())
	assert.Equal(t, [][]string{{"A", "B", "C"}}, root.Chains())
}

func TestShortChainAfterLongerSharesSubtree(t *testing.T) {
	t.Parallel()

	long := Build([][]string{{"A", "B"}})
	both := Insert(long, []string{"A"})
	assert.Same(t, long, both)
}

func TestEmptyChainIsRootOnly(t *testing.T) {
	t.Parallel()

	root := Build([][]string{{}})
	assert.True(t, root.IsRoot())
	assert.Equal(t, RootName, root.Name())
	assert.Zero(t, root.Len())
	assert.True(t, Equal(root, nil))
	assert.True(t, Equal(root, Build(nil)))
}

func TestInsertPanicsOnEmptyName(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { Insert(NewRoot(), []string{"A", ""}) })
}

func TestInsertIsPersistent(t *testing.T) {
	t.Parallel()

	before := Build([][]string{{"A", "B"}, {"X"}})
	snapshot := before.String()

	after := Insert(before, []string{"A", "C"})

	assert.Equal(t, snapshot, before.String(), "original tree changed")
	x1, _ := before.Child("X")
	x2, _ := after.Child("X")
	assert.Same(t, x1, x2, "untouched subtree should be shared")
	assert.False(t, Equal(before, after))
}

func TestBuildEach(t *testing.T) {
	t.Parallel()

	type key struct{ name string }
	trees := BuildEach(map[key][][]string{
		{"CarPath"}:    {{"Engine", "Cylinders"}, {"Name"}},
		{"Int32Path"}:  nil,
		{"EnginePath"}: {{"Cylinders"}},
	})
	require.Len(t, trees, 3, spew.Sdump(trees))

	assert.Equal(t, []string{"Engine", "Name"}, trees[key{"CarPath"}].Keys())
	assert.Zero(t, trees[key{"Int32Path"}].Len())
	assert.Equal(t, [][]string{{"Cylinders"}}, trees[key{"EnginePath"}].Chains())
}

func TestWalkSkipsChildren(t *testing.T) {
	t.Parallel()

	root := Build([][]string{{"A", "B"}, {"C"}})
	var visited []string
	root.Walk(func(path []string, node *Node) bool {
		visited = append(visited, node.Name())
		return node.Name() != "A"
	})
	assert.Equal(t, []string{RootName, "A", "C"}, visited)
}

func TestFingerprintDistinguishesShape(t *testing.T) {
	t.Parallel()

	flat := Build([][]string{{"A"}, {"B"}})
	nested := Build([][]string{{"A", "B"}})
	assert.NotEqual(t, flat.Fingerprint(), nested.Fingerprint())
}

func TestSegments(t *testing.T) {
	t.Parallel()

	engine := NewSegment(nil, "Engine", "")
	cylinders := NewSegment(engine, "Cylinders", "Cylinders")
	calc := NewSegment(engine, "Calc", "Calc_Int32")

	assert.Equal(t, "Engine", engine.UniqueMemberName)
	assert.Equal(t, "Engine.Cylinders", cylinders.PathToHere)
	assert.Equal(t, 2, cylinders.Depth())
	assert.Equal(t, []string{"Engine", "Calc"}, calc.Chain())
	assert.Equal(t, "Calc_Int32", calc.UniqueMemberName)

	again := NewSegment(NewSegment(nil, "Engine", ""), "Cylinders", "")
	assert.True(t, Same(cylinders, again))
	assert.False(t, Same(cylinders, calc))
	assert.Nil(t, (*Segment)(nil).Chain())
}
