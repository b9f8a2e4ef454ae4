package topology

import (
	"reflect"
	"testing"

	"github.com/routewise/contentserver/netid"
)

func buildLineGraph() *Graph {
	g := New()
	g.AddEdge(21, 2)
	g.AddEdge(2, 1)
	return g
}

func TestShortestPathLine(t *testing.T) {
	g := buildLineGraph()
	got := g.ShortestPath(1, 21)
	want := []netid.NodeID{1, 2, 21}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ShortestPath(1,21) = %v, want %v", got, want)
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	g := buildLineGraph()
	g.AddNode(99)
	if got := g.ShortestPath(1, 99); got != nil {
		t.Fatalf("ShortestPath(1,99) = %v, want nil", got)
	}
}

func TestShortestPathTieBreakSmallestSecondHop(t *testing.T) {
	g := New()
	// Two disjoint equal-length paths from 1 to 9: via 2 and via 5.
	g.AddEdge(1, 5)
	g.AddEdge(5, 9)
	g.AddEdge(1, 2)
	g.AddEdge(2, 9)

	got := g.ShortestPath(1, 9)
	want := []netid.NodeID{1, 2, 9}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ShortestPath(1,9) = %v, want %v (smallest second hop)", got, want)
	}
}

func TestRemoveEdgeKeepsIsolatedNode(t *testing.T) {
	g := buildLineGraph()
	g.RemoveEdge(1, 2)
	if !g.HasNode(1) {
		t.Fatalf("node 1 should remain after RemoveEdge, isolated nodes are allowed")
	}
	if g.ShortestPath(1, 21) != nil {
		t.Fatalf("expected no route from 1 to 21 after removing the edge")
	}
}

func TestRemoveNodeDeletesEdges(t *testing.T) {
	g := buildLineGraph()
	g.RemoveNode(2)
	if g.HasNode(2) {
		t.Fatalf("node 2 should be gone")
	}
	if g.ShortestPath(1, 21) != nil {
		t.Fatalf("expected no route from 1 to 21 after removing node 2")
	}
}
