// Package flood implements topology discovery: initiating a debounced
// flood request, relaying foreign flood requests, and forwarding or
// absorbing flood responses. The forwarding style is adapted from the mesh
// node's advert scheduler (a debounced timer gating a broadcast send).
package flood

import (
	"log/slog"
	"math/rand"

	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/neighbor"
	"github.com/routewise/contentserver/packet"
)

// Clock reports the current time in milliseconds, satisfied by
// *clockutil.Clock.
type Clock interface {
	NowMillis() int64
}

// Engine owns flood-discovery state: the debounce timestamp and the
// random source used to mint flood and session identifiers.
type Engine struct {
	self     netid.NodeID
	cooldown int64 // milliseconds
	last     int64
	clock    Clock
	rng      *rand.Rand
	log      *slog.Logger
}

// New returns a flood engine for self, suppressing re-initiation within
// cooldown of the previous one.
func New(self netid.NodeID, cooldownMillis int64, clock Clock, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		self:     self,
		cooldown: cooldownMillis,
		clock:    clock,
		rng:      rand.New(rand.NewSource(int64(self) + 1)),
		log:      logger.With("component", "flood"),
	}
}

// Initiate sends a fresh FloodRequest to every neighbor, unless the last
// initiation was within the cooldown window. Returns true if the flood was
// actually sent.
func (e *Engine) Initiate(sender neighbor.Sender) bool {
	now := e.clock.NowMillis()
	if e.last != 0 && now-e.last < e.cooldown {
		e.log.Debug("flood suppressed by cooldown", "self", e.self)
		return false
	}

	floodID := e.rng.Uint64()
	for _, id := range sender.IDs() {
		pkt := &packet.Packet{
			Kind:      packet.KindFloodRequest,
			Session:   e.rng.Uint64(),
			FloodID:   floodID,
			Initiator: e.self,
			PathTrace: []packet.PathEntry{{Node: e.self, Type: packet.NodeKindServer}},
		}
		sender.Send(id, pkt)
	}
	e.last = now
	return true
}

// HandleRequest relays a foreign FloodRequest to every neighbor except the
// one it most recently arrived from, appending this node to the path
// trace. A content server never originates a flood reply.
func (e *Engine) HandleRequest(pkt *packet.Packet, sender neighbor.Sender) {
	if len(pkt.PathTrace) == 0 {
		e.log.Warn("flood request with empty path trace", "flood_id", pkt.FloodID)
		return
	}
	arrivedFrom := pkt.PathTrace[len(pkt.PathTrace)-1].Node

	fwd := pkt.Clone()
	fwd.PathTrace = append(fwd.PathTrace, packet.PathEntry{Node: e.self, Type: packet.NodeKindServer})

	for _, id := range sender.IDs() {
		if id == arrivedFrom {
			continue
		}
		sender.Send(id, fwd.Clone())
	}
}

// HandleReply processes a FloodResponse. If it is addressed to this node
// (path_trace[0] == self), it returns true so the caller can absorb the
// topology update. Otherwise it advances the reply toward its destination
// along its own hop list and returns false.
func (e *Engine) HandleReply(pkt *packet.Packet, sender neighbor.Sender) bool {
	if len(pkt.PathTrace) == 0 || pkt.PathTrace[0].Node != e.self {
		e.forward(pkt, sender)
		return false
	}
	return true
}

func (e *Engine) forward(pkt *packet.Packet, sender neighbor.Sender) {
	next := pkt.Header.HopIndex + 1
	if next >= len(pkt.Header.Hops) {
		e.log.Warn("flood response transit has no further hop", "session", pkt.Session)
		return
	}
	fwd := pkt.Clone()
	fwd.Header.HopIndex = next
	sender.Send(pkt.Header.Hops[next], fwd)
}
