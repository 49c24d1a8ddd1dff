package store_test

import (
	"slices"
	"testing"

	"github.com/swalker2m/gem-odb-api/internal/store"
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

func TestIndexLinkBothDirections(t *testing.T) {
	ix := store.NewIndex[odb.ProgramID, odb.TargetID]()

	ix.Link(1, 10)
	ix.Link(1, 20)
	ix.Link(2, 10)

	if got := ix.RightOf(1); !slices.Equal(got, []odb.TargetID{10, 20}) {
		t.Fatalf("RightOf(1) = %v", got)
	}
	if got := ix.LeftOf(10); !slices.Equal(got, []odb.ProgramID{1, 2}) {
		t.Fatalf("LeftOf(10) = %v", got)
	}
	if !ix.Linked(1, 10) || ix.Linked(2, 20) {
		t.Fatalf("edge membership wrong")
	}

	// re-linking an existing edge is a no-op
	ix.Link(1, 10)
	if got := ix.RightOf(1); !slices.Equal(got, []odb.TargetID{10, 20}) {
		t.Fatalf("duplicate link changed the edge set: %v", got)
	}
}

func TestIndexUnlinkBothDirections(t *testing.T) {
	ix := store.NewIndex[odb.ProgramID, odb.TargetID]()
	ix.Link(1, 10)
	ix.Link(1, 20)

	ix.Unlink(1, 10)
	if ix.Linked(1, 10) {
		t.Fatalf("forward edge survived unlink")
	}
	if got := ix.LeftOf(10); len(got) != 0 {
		t.Fatalf("reverse edge survived unlink: %v", got)
	}
	if got := ix.RightOf(1); !slices.Equal(got, []odb.TargetID{20}) {
		t.Fatalf("unrelated edge lost: %v", got)
	}

	// unlinking a missing edge is a no-op
	ix.Unlink(42, 42)
	if got := ix.RightOf(1); !slices.Equal(got, []odb.TargetID{20}) {
		t.Fatalf("missing-edge unlink had an effect: %v", got)
	}
}

func TestIndexReplaceRight(t *testing.T) {
	ix := store.NewIndex[odb.ProgramID, odb.TargetID]()
	ix.Link(1, 10)
	ix.Link(1, 20)
	ix.Link(2, 20)

	ix.ReplaceRight(1, []odb.TargetID{20, 30})

	if got := ix.RightOf(1); !slices.Equal(got, []odb.TargetID{20, 30}) {
		t.Fatalf("RightOf(1) after replace = %v", got)
	}
	if got := ix.LeftOf(10); len(got) != 0 {
		t.Fatalf("removed edge survives in reverse: %v", got)
	}
	// other programs' edges stay intact
	if got := ix.LeftOf(20); !slices.Equal(got, []odb.ProgramID{1, 2}) {
		t.Fatalf("LeftOf(20) = %v", got)
	}
}

func TestIndexCloneIsIndependent(t *testing.T) {
	ix := store.NewIndex[odb.ProgramID, odb.TargetID]()
	ix.Link(1, 10)

	cp := ix.Clone()
	cp.Link(1, 20)
	cp.Unlink(1, 10)

	if !ix.Linked(1, 10) {
		t.Fatalf("clone unlink reached the original")
	}
	if ix.Linked(1, 20) {
		t.Fatalf("clone link reached the original")
	}
}

func TestIndexLeftsAndEdges(t *testing.T) {
	ix := store.NewIndex[odb.ProgramID, odb.TargetID]()
	ix.Link(2, 20)
	ix.Link(1, 10)
	ix.Link(1, 30)

	if got := ix.Lefts(); !slices.Equal(got, []odb.ProgramID{1, 2}) {
		t.Fatalf("Lefts() = %v", got)
	}
	edges := ix.Edges()
	if len(edges) != 2 {
		t.Fatalf("Edges() has %d entries", len(edges))
	}
	if got := edges[1]; !slices.Equal(got, []odb.TargetID{10, 30}) {
		t.Fatalf("edges[1] = %v", got)
	}
	if got := edges[2]; !slices.Equal(got, []odb.TargetID{20}) {
		t.Fatalf("edges[2] = %v", got)
	}
}
