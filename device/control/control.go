// Package control implements the control-plane handler: adding and
// removing neighbor channels and answering topology snapshot queries. The
// command-as-tagged-interface shape is adapted from the mesh transport
// layer's small event/state enums.
package control

import (
	"log/slog"

	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/packet"
	"github.com/routewise/contentserver/topology"
)

// Command is a control-plane instruction delivered by the supervisor.
type Command interface{ isCommand() }

// AddSender registers a channel the node can use to send to neighbor ID,
// and adds an edge (self, ID) to the topology.
type AddSender struct {
	ID      netid.NodeID
	Channel chan<- *packet.Packet
}

func (AddSender) isCommand() {}

// RemoveSender drops the channel for ID and removes only the (self, ID)
// edge; the node ID itself is not deleted from the topology.
type RemoveSender struct {
	ID netid.NodeID
}

func (RemoveSender) isCommand() {}

// TopologyQuery asks for a snapshot of the current topology.
type TopologyQuery struct{}

func (TopologyQuery) isCommand() {}

// Snapshot is a point-in-time copy of the topology graph.
type Snapshot struct {
	Nodes []netid.NodeID
	Edges map[netid.NodeID][]netid.NodeID
}

// FloodTrigger requests a (possibly debounced) topology-discovery flood.
type FloodTrigger interface {
	Initiate()
}

// Handler owns the neighbor channel map and the topology graph, and
// dispatches commands against them.
type Handler struct {
	self      netid.NodeID
	neighbors map[netid.NodeID]chan<- *packet.Packet
	graph     *topology.Graph
	flood     FloodTrigger
	log       *slog.Logger
}

// New returns a control-plane handler for self.
func New(self netid.NodeID, graph *topology.Graph, flood FloodTrigger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		self:      self,
		neighbors: make(map[netid.NodeID]chan<- *packet.Packet),
		graph:     graph,
		flood:     flood,
		log:       logger.With("component", "control"),
	}
}

// Handle dispatches cmd. It returns a non-nil Snapshot only for
// TopologyQuery.
func (h *Handler) Handle(cmd Command) *Snapshot {
	switch c := cmd.(type) {
	case AddSender:
		h.neighbors[c.ID] = c.Channel
		h.graph.AddEdge(h.self, c.ID)
		h.flood.Initiate()
		return nil
	case RemoveSender:
		delete(h.neighbors, c.ID)
		h.graph.RemoveEdge(h.self, c.ID)
		return nil
	case TopologyQuery:
		return &Snapshot{Nodes: h.graph.Nodes(), Edges: h.graph.Edges()}
	default:
		h.log.Warn("unknown control command", "command", cmd)
		return nil
	}
}

// Send implements neighbor.Sender: a non-blocking, panic-safe send to the
// channel registered for id.
func (h *Handler) Send(id netid.NodeID, pkt *packet.Packet) (ok bool) {
	ch, found := h.neighbors[id]
	if !found {
		h.log.Warn("no channel for neighbor", "neighbor", id)
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Warn("neighbor channel closed", "neighbor", id)
			ok = false
		}
	}()
	select {
	case ch <- pkt:
		return true
	default:
		h.log.Warn("neighbor channel full, dropping packet", "neighbor", id)
		return false
	}
}

// IDs implements neighbor.Sender.
func (h *Handler) IDs() []netid.NodeID {
	ids := make([]netid.NodeID, 0, len(h.neighbors))
	for id := range h.neighbors {
		ids = append(ids, id)
	}
	return ids
}
