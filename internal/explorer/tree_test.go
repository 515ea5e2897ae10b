package explorer

import (
	"reflect"
	"testing"
)

func TestTreeInsertAndKeys(t *testing.T) {
	tr := NewTree(":")
	for _, k := range []string{"user:2", "user:1", "order:1"} {
		if !tr.Insert(k) {
			t.Errorf("Insert(%q) should report new", k)
		}
	}
	if tr.Len() != 3 {
		t.Errorf("Len = %d", tr.Len())
	}
	want := []string{"order:1", "user:1", "user:2"}
	if got := tr.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys = %v, want %v", got, want)
	}
}

func TestTreeReinsertIsNoop(t *testing.T) {
	tr := NewTree(":")
	tr.Insert("user:1")
	if tr.Insert("user:1") {
		t.Error("re-insert should report not-new")
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d after duplicate insert", tr.Len())
	}
}

func TestTreeLeafBecomesDirectory(t *testing.T) {
	tr := NewTree(":")
	tr.Insert("user")
	tr.Insert("user:1")

	root := tr.Snapshot()
	kids := root.Children()
	if len(kids) != 1 || kids[0].Segment != "user" {
		t.Fatalf("root children = %v", kids)
	}
	user := kids[0]
	if !user.IsLeaf {
		t.Error("user node must stay a leaf after gaining children")
	}
	sub := user.Children()
	if len(sub) != 1 || !sub[0].IsLeaf || sub[0].Key != "user:1" {
		t.Errorf("user children = %+v", sub)
	}
}

func TestTreeIntermediateNodesAreNotLeaves(t *testing.T) {
	tr := NewTree(":")
	tr.Insert("a:b:c")
	root := tr.Snapshot()
	a := root.Children()[0]
	if a.IsLeaf {
		t.Error("intermediate node a should not be a leaf")
	}
	b := a.Children()[0]
	if b.IsLeaf {
		t.Error("intermediate node a:b should not be a leaf")
	}
	c := b.Children()[0]
	if !c.IsLeaf || c.Key != "a:b:c" {
		t.Errorf("leaf = %+v", c)
	}
}

func TestTreeCustomDelimiter(t *testing.T) {
	tr := NewTree("/")
	tr.Insert("a/b")
	tr.Insert("a:b")
	if got := len(tr.Snapshot().Children()); got != 2 {
		t.Errorf("root children = %d, want 2 (a and a:b)", got)
	}
}

func TestTreeSetValueKind(t *testing.T) {
	tr := NewTree(":")
	tr.Insert("user:1")
	tr.SetValueKind("user:1", "hash")
	tr.SetValueKind("missing", "string")

	node := tr.Snapshot().Children()[0].Children()[0]
	if node.ValueKind != "hash" {
		t.Errorf("ValueKind = %q", node.ValueKind)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	tr := NewTree(":")
	tr.Insert("a:1")
	snap := tr.Snapshot()
	tr.Insert("a:2")
	if got := len(snap.Children()[0].Children()); got != 1 {
		t.Errorf("snapshot grew after later insert: %d children", got)
	}
}

func TestFilterSubstringAndRanking(t *testing.T) {
	keys := []string{"order:9", "user:1", "user:10", "xxuserxx"}
	got := Filter(keys, "user")
	if len(got) != 3 {
		t.Fatalf("Filter = %v", got)
	}
	// user:1 is the closest match to the query, longer keys rank
	// after it.
	if got[0] != "user:1" {
		t.Errorf("first = %q, want user:1", got[0])
	}
	for _, k := range got {
		if k == "order:9" {
			t.Error("non-matching key leaked through filter")
		}
	}
}

func TestFilterEmptyQueryPassesThrough(t *testing.T) {
	keys := []string{"b", "a"}
	if got := Filter(keys, ""); !reflect.DeepEqual(got, keys) {
		t.Errorf("Filter(empty) = %v", got)
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	got := Filter([]string{"User:1"}, "user")
	if len(got) != 1 {
		t.Errorf("Filter should match case-insensitively, got %v", got)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	keys := []string{"z:1", "a:1"}
	Filter(keys, "1")
	if keys[0] != "z:1" || keys[1] != "a:1" {
		t.Errorf("input reordered: %v", keys)
	}
}
