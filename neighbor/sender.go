// Package neighbor defines the small interface every engine uses to push a
// packet onto a neighbor's channel, so the flood, retry, and content
// packages never need to know how the node actually owns those channels.
package neighbor

import (
	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/packet"
)

// Sender pushes packets onto neighbor channels. Implementations must not
// block and must not panic if the underlying channel has been closed.
type Sender interface {
	Send(id netid.NodeID, pkt *packet.Packet) bool
	IDs() []netid.NodeID
}
