// Package dispatch routes an inbound packet to the engine responsible for
// its kind: fragment intake and ack generation, ack/nack handling, or flood
// request/response handling. The gated-dispatch shape is adapted from the
// mesh node's router, which similarly fans a single inbound packet out to
// one of several handlers based on its type.
package dispatch

import (
	"log/slog"

	"github.com/routewise/contentserver/fragbuf"
	"github.com/routewise/contentserver/neighbor"
	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/packet"
	"github.com/routewise/contentserver/topology"
)

// FloodEngine is the subset of flood.Engine the dispatcher needs.
type FloodEngine interface {
	HandleRequest(pkt *packet.Packet, sender neighbor.Sender)
	HandleReply(pkt *packet.Packet, sender neighbor.Sender) bool
}

// FloodTrigger requests a (possibly debounced) flood.
type FloodTrigger interface {
	Initiate()
}

// RetryEngine is the subset of retry.Engine the dispatcher needs.
type RetryEngine interface {
	HandleAck(session uint64, index uint64)
	HandleNack(pkt *packet.Packet, sender neighbor.Sender, flood FloodTrigger)
	Drain(sender neighbor.Sender, flood FloodTrigger)
}

// Processor is the subset of content.Processor the dispatcher needs.
type Processor interface {
	HandleMessage(source netid.NodeID, session uint64, payload []byte, inboundHops []netid.NodeID)
}

// EventSink reports dispatcher-level events.
type EventSink interface {
	FloodResponseReceived(floodID uint64)
}

// Config bundles a Dispatcher's collaborators.
type Config struct {
	Assembler *fragbuf.Assembler
	Retention *fragbuf.Retention
	Retry     RetryEngine
	Flood     FloodEngine
	FloodTrig FloodTrigger
	Graph     *topology.Graph
	Sender    neighbor.Sender
	Processor Processor
	Events    EventSink
	Logger    *slog.Logger
}

// Dispatcher classifies and handles every inbound packet kind.
type Dispatcher struct {
	assembler *fragbuf.Assembler
	retention *fragbuf.Retention
	retry     RetryEngine
	flood     FloodEngine
	floodTrig FloodTrigger
	graph     *topology.Graph
	sender    neighbor.Sender
	processor Processor
	events    EventSink
	log       *slog.Logger
}

// New builds a Dispatcher from cfg.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		assembler: cfg.Assembler,
		retention: cfg.Retention,
		retry:     cfg.Retry,
		flood:     cfg.Flood,
		floodTrig: cfg.FloodTrig,
		graph:     cfg.Graph,
		sender:    cfg.Sender,
		processor: cfg.Processor,
		events:    cfg.Events,
		log:       logger.With("component", "dispatch"),
	}
}

// Handle classifies pkt by Kind and routes it to the responsible engine.
func (d *Dispatcher) Handle(pkt *packet.Packet) {
	switch pkt.Kind {
	case packet.KindFragment:
		d.handleFragment(pkt)
	case packet.KindAck:
		d.retry.HandleAck(pkt.Session, pkt.FragmentIndex)
	case packet.KindNack:
		d.retry.HandleNack(pkt, d.sender, d.floodTrig)
	case packet.KindFloodRequest:
		d.flood.HandleRequest(pkt, d.sender)
	case packet.KindFloodResponse:
		d.handleFloodResponse(pkt)
	default:
		d.log.Warn("unknown packet kind", "kind", pkt.Kind)
	}
}

func (d *Dispatcher) handleFragment(pkt *packet.Packet) {
	ackHeader := pkt.Header.Reversed()
	if len(ackHeader.Hops) >= 2 {
		ack := &packet.Packet{
			Kind:          packet.KindAck,
			Session:       pkt.Session,
			Header:        ackHeader,
			FragmentIndex: pkt.Fragment.Index,
		}
		d.sender.Send(ackHeader.Hops[1], ack)
	} else {
		d.log.Warn("cannot ack fragment: no reverse route", "session", pkt.Session)
	}

	payload, complete := d.assembler.Add(pkt.Session, pkt.Fragment)
	if !complete {
		return
	}

	source, ok := pkt.Header.Source()
	if !ok {
		d.log.Warn("fragment missing source in routing header", "session", pkt.Session)
		return
	}
	d.processor.HandleMessage(source, pkt.Session, payload, pkt.Header.Hops)
}

func (d *Dispatcher) handleFloodResponse(pkt *packet.Packet) {
	if !d.flood.HandleReply(pkt, d.sender) {
		return
	}

	for _, entry := range pkt.PathTrace {
		d.graph.AddNode(entry.Node)
	}
	for i := 1; i < len(pkt.PathTrace); i++ {
		d.graph.AddEdge(pkt.PathTrace[i-1].Node, pkt.PathTrace[i].Node)
	}
	d.retry.Drain(d.sender, d.floodTrig)
	d.events.FloodResponseReceived(pkt.FloodID)
}
