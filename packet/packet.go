// Package packet defines the wire-level message that flows between
// overlay nodes: a single tagged struct with one arm populated per kind,
// mirroring how the mesh codec represents its own packet types.
package packet

import "github.com/routewise/contentserver/netid"

// Kind identifies which arm of Packet is populated.
type Kind uint8

const (
	KindFragment Kind = iota
	KindAck
	KindNack
	KindFloodRequest
	KindFloodResponse
)

func (k Kind) String() string {
	switch k {
	case KindFragment:
		return "Fragment"
	case KindAck:
		return "Ack"
	case KindNack:
		return "Nack"
	case KindFloodRequest:
		return "FloodRequest"
	case KindFloodResponse:
		return "FloodResponse"
	default:
		return "Unknown"
	}
}

// NackKind distinguishes transient delivery failures from structural
// routing errors.
type NackKind uint8

const (
	NackDropped NackKind = iota
	NackErrorInRouting
	NackDestinationIsDrone
	NackUnexpectedRecipient
)

func (k NackKind) String() string {
	switch k {
	case NackDropped:
		return "Dropped"
	case NackErrorInRouting:
		return "ErrorInRouting"
	case NackDestinationIsDrone:
		return "DestinationIsDrone"
	case NackUnexpectedRecipient:
		return "UnexpectedRecipient"
	default:
		return "Unknown"
	}
}

// FragSize is the fixed payload capacity of a single fragment.
const FragSize = 128

// Fragment carries one slice of a disassembled message.
type Fragment struct {
	Index   uint64
	Total   uint64
	Length  uint8
	Payload [FragSize]byte
}

// NodeKind labels an entry in a flood's path trace.
type NodeKind uint8

const (
	NodeKindDrone NodeKind = iota
	NodeKindClient
	NodeKindServer
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindDrone:
		return "Drone"
	case NodeKindClient:
		return "Client"
	case NodeKindServer:
		return "Server"
	default:
		return "Unknown"
	}
}

// PathEntry is a single hop recorded by a flood as it propagates.
type PathEntry struct {
	Node netid.NodeID
	Type NodeKind
}

// RoutingHeader is the source-routing header carried by fragment, ack, and
// nack packets. HopIndex points at the next forwarder; for a packet freshly
// built at its origin, HopIndex is 1 (Hops[0] is always the origin itself).
type RoutingHeader struct {
	HopIndex int
	Hops     []netid.NodeID
}

// Source returns the packet's origin, i.e. Hops[0].
func (h RoutingHeader) Source() (netid.NodeID, bool) {
	if len(h.Hops) == 0 {
		return 0, false
	}
	return h.Hops[0], true
}

// Destination returns the packet's final recipient, i.e. the last hop.
func (h RoutingHeader) Destination() (netid.NodeID, bool) {
	if len(h.Hops) == 0 {
		return 0, false
	}
	return h.Hops[len(h.Hops)-1], true
}

// NextHop returns the neighbor that HopIndex currently points at.
func (h RoutingHeader) NextHop() (netid.NodeID, bool) {
	if h.HopIndex < 0 || h.HopIndex >= len(h.Hops) {
		return 0, false
	}
	return h.Hops[h.HopIndex], true
}

// Reversed builds the header for a reply that retraces Hops back to the
// origin, with HopIndex reset to 1 so the reply's first send targets the
// second entry of the reversed list.
func (h RoutingHeader) Reversed() RoutingHeader {
	reversed := make([]netid.NodeID, len(h.Hops))
	for i, hop := range h.Hops {
		reversed[len(h.Hops)-1-i] = hop
	}
	return RoutingHeader{HopIndex: 1, Hops: reversed}
}

// Packet is the single message type exchanged with neighbors. Only the
// fields relevant to Kind are populated; the rest are left at their zero
// value.
type Packet struct {
	Kind    Kind
	Session uint64
	Header  RoutingHeader

	// Fragment carries the payload slice for KindFragment.
	Fragment Fragment

	// FragmentIndex identifies the fragment an Ack or Nack refers to.
	FragmentIndex uint64

	// NackKind and NackNode are populated for KindNack.
	NackKind NackKind
	NackNode netid.NodeID

	// FloodID, Initiator and PathTrace are populated for
	// KindFloodRequest and KindFloodResponse.
	FloodID   uint64
	Initiator netid.NodeID
	PathTrace []PathEntry
}

// Clone returns a deep copy so that transiting or retained packets can be
// mutated (header advanced, hops overwritten) without aliasing the
// original.
func (p *Packet) Clone() *Packet {
	clone := *p
	if p.Header.Hops != nil {
		clone.Header.Hops = append([]netid.NodeID(nil), p.Header.Hops...)
	}
	if p.PathTrace != nil {
		clone.PathTrace = append([]PathEntry(nil), p.PathTrace...)
	}
	return &clone
}
