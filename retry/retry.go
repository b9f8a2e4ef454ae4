// Package retry handles acknowledgment and negative-acknowledgment of
// outbound fragments: pruning retained fragments on ack, and on nack
// recomputing a route and resending or, if no route exists yet, parking
// the fragment in a retry set until topology improves. The pending-map
// style is adapted from the mesh node's ack tracker, simplified because
// this node's routes are recomputed on demand rather than retried on a
// timer.
package retry

import (
	"log/slog"

	"github.com/routewise/contentserver/fragbuf"
	"github.com/routewise/contentserver/neighbor"
	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/packet"
	"github.com/routewise/contentserver/topology"
)

// FloodTrigger requests a (possibly debounced) flood to refresh topology.
type FloodTrigger interface {
	Initiate()
}

type retryKey struct {
	session uint64
	index   uint64
}

// Engine tracks fragments awaiting acknowledgment and retries them on
// nack or once a route becomes available.
type Engine struct {
	self      netid.NodeID
	graph     *topology.Graph
	retention *fragbuf.Retention
	retrySet  map[retryKey]struct{}
	log       *slog.Logger
}

// New returns a retry engine for self, sharing graph and retention with
// the rest of the node.
func New(self netid.NodeID, graph *topology.Graph, retention *fragbuf.Retention, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		self:      self,
		graph:     graph,
		retention: retention,
		retrySet:  make(map[retryKey]struct{}),
		log:       logger.With("component", "retry"),
	}
}

// HandleAck removes the acknowledged fragment from retention and clears
// any pending retry for it.
func (e *Engine) HandleAck(session uint64, index uint64) {
	e.retention.Ack(session, index)
	delete(e.retrySet, retryKey{session, index})
}

// HandleNack reacts to a negative acknowledgment. Dropped nacks leave
// the topology untouched and resend the same route; ErrorInRouting
// removes the offending node and triggers a flood; every other kind is
// treated conservatively by also triggering a flood. In every case the
// fragment is resent if a route currently exists, and resend itself
// triggers a flood whenever it cannot find one, regardless of nack kind.
func (e *Engine) HandleNack(pkt *packet.Packet, sender neighbor.Sender, flood FloodTrigger) {
	session, index := pkt.Session, pkt.FragmentIndex
	retained, ok := e.retention.Get(session, index)
	if !ok {
		e.log.Debug("nack for unknown fragment", "session", session, "index", index)
		return
	}

	switch pkt.NackKind {
	case packet.NackDropped:
		// topology unchanged, resend recomputes the same route
	case packet.NackErrorInRouting:
		e.graph.RemoveNode(pkt.NackNode)
		flood.Initiate()
	default:
		flood.Initiate()
	}

	e.resend(retained, sender, flood)
}

// Drain retries every fragment in the retry set for which a route now
// exists, typically called after a flood response updates the topology.
func (e *Engine) Drain(sender neighbor.Sender, flood FloodTrigger) {
	pending := make([]retryKey, 0, len(e.retrySet))
	for k := range e.retrySet {
		pending = append(pending, k)
	}
	for _, k := range pending {
		retained, ok := e.retention.Get(k.session, k.index)
		if !ok {
			delete(e.retrySet, k)
			continue
		}
		e.resend(retained, sender, flood)
	}
}

// resend recomputes the shortest path to the retained packet's
// destination. If one exists, it overwrites the packet's routing header
// and sends it to the new second hop, clearing any retry-set entry. If
// none exists, the fragment is parked in the retry set and a flood is
// primed so a route can eventually be discovered, regardless of what
// nack kind (if any) triggered this resend.
func (e *Engine) resend(pkt *packet.Packet, sender neighbor.Sender, flood FloodTrigger) {
	key := retryKey{pkt.Session, pkt.Fragment.Index}
	dst, ok := pkt.Header.Destination()
	if !ok {
		e.log.Warn("retained fragment has no destination", "session", pkt.Session)
		return
	}

	path := e.graph.ShortestPath(e.self, dst)
	if len(path) < 2 {
		e.retrySet[key] = struct{}{}
		flood.Initiate()
		return
	}

	pkt.Header = packet.RoutingHeader{HopIndex: 1, Hops: path}
	delete(e.retrySet, key)
	sender.Send(path[1], pkt)
}
