package packet

import (
	"reflect"
	"testing"

	"github.com/routewise/contentserver/netid"
)

func TestRoutingHeaderReversed(t *testing.T) {
	h := RoutingHeader{HopIndex: 2, Hops: []netid.NodeID{21, 2, 1}}
	rev := h.Reversed()
	want := []netid.NodeID{1, 2, 21}
	if !reflect.DeepEqual(rev.Hops, want) {
		t.Fatalf("Reversed().Hops = %v, want %v", rev.Hops, want)
	}
	if rev.HopIndex != 1 {
		t.Fatalf("Reversed().HopIndex = %d, want 1", rev.HopIndex)
	}
	if got, _ := h.Source(); got != 21 {
		t.Fatalf("Source() = %d, want 21", got)
	}
	if got, _ := h.Destination(); got != 1 {
		t.Fatalf("Destination() = %d, want 1", got)
	}
}

func TestPacketCloneIndependence(t *testing.T) {
	p := &Packet{
		Kind:   KindFragment,
		Header: RoutingHeader{HopIndex: 1, Hops: []netid.NodeID{1, 2, 21}},
		PathTrace: []PathEntry{
			{Node: 1, Type: NodeKindServer},
		},
	}
	clone := p.Clone()
	clone.Header.Hops[0] = 99
	clone.PathTrace[0].Node = 99

	if p.Header.Hops[0] != 1 {
		t.Fatalf("mutating clone's Hops mutated original: %v", p.Header.Hops)
	}
	if p.PathTrace[0].Node != 1 {
		t.Fatalf("mutating clone's PathTrace mutated original: %v", p.PathTrace)
	}
}

func TestNextHop(t *testing.T) {
	h := RoutingHeader{HopIndex: 1, Hops: []netid.NodeID{1, 2, 21}}
	got, ok := h.NextHop()
	if !ok || got != 2 {
		t.Fatalf("NextHop() = (%d, %v), want (2, true)", got, ok)
	}
}
