// Package node wires every engine together into a content-serving overlay
// node and runs its event loop. The loop itself — drain the control
// channel first, then block on both control and data — is adapted from
// the mesh router's biased dispatch, generalized from "PacketHandler and a
// connect/disconnect callback" to this node's supervisor protocol.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/routewise/contentserver/clockutil"
	"github.com/routewise/contentserver/collab/appcodec"
	"github.com/routewise/contentserver/collab/fileindex"
	"github.com/routewise/contentserver/collab/fragcodec"
	"github.com/routewise/contentserver/collab/imaging"
	"github.com/routewise/contentserver/collab/textfile"
	"github.com/routewise/contentserver/device/content"
	"github.com/routewise/contentserver/device/control"
	"github.com/routewise/contentserver/device/dispatch"
	"github.com/routewise/contentserver/flood"
	"github.com/routewise/contentserver/fragbuf"
	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/packet"
	"github.com/routewise/contentserver/retry"
	"github.com/routewise/contentserver/topology"
)

// ServerType selects which kind of content this node serves.
type ServerType uint8

const (
	ServerTypeText ServerType = iota
	ServerTypeMedia
	// ServerTypeChat exists in the supervisor's vocabulary but this node
	// never serves it.
	ServerTypeChat
)

// ErrUnsupportedServerType is returned by New when asked to run as a chat
// server.
var ErrUnsupportedServerType = errors.New("chat server type is not supported by a content server")

// DefaultFloodCooldown is used when Config.FloodCooldown is zero.
const DefaultFloodCooldown = time.Second

// Event is something the node reports to its supervisor over
// ResponseSender.
type Event interface{ isEvent() }

// PacketSent reports a successful transmission to a neighbor.
type PacketSent struct {
	Session uint64
	Kind    packet.Kind
}

func (PacketSent) isEvent() {}

// MessageSent reports that a logical (possibly multi-fragment) message has
// been fully handed off to the network.
type MessageSent struct{ Session uint64 }

func (MessageSent) isEvent() {}

// FloodRequestSent reports that a flood was actually initiated (not
// suppressed by the debounce cooldown).
type FloodRequestSent struct{}

func (FloodRequestSent) isEvent() {}

// FloodResponseReceived reports that a flood response addressed to this
// node was absorbed into the topology.
type FloodResponseReceived struct{ FloodID uint64 }

func (FloodResponseReceived) isEvent() {}

// TopologyResponse answers a TopologyQuery command.
type TopologyResponse struct {
	Nodes []netid.NodeID
	Edges map[netid.NodeID][]netid.NodeID
}

func (TopologyResponse) isEvent() {}

// Config describes everything needed to construct a Node. Channel
// ownership (creating and wiring Senders to real neighbors) belongs to the
// supervisor, outside this package.
type Config struct {
	ServerID netid.NodeID

	// Senders holds one outbound channel per initial neighbor. More
	// neighbors can be added later via ControlReceiver.
	Senders map[netid.NodeID]chan<- *packet.Packet

	DataReceiver    <-chan *packet.Packet
	ControlReceiver <-chan control.Command
	ResponseSender  chan<- Event

	FileDirectory  string
	MediaDirectory string
	ServerType     ServerType

	FloodCooldown time.Duration
	Debug         bool
	Logger        *slog.Logger
}

// Node is a running content-serving overlay node.
type Node struct {
	cfg         Config
	log         *slog.Logger
	graph       *topology.Graph
	retention   *fragbuf.Retention
	assembler   *fragbuf.Assembler
	retryEngine *retry.Engine
	floodEngine *flood.Engine
	control     *control.Handler
	dispatcher  *dispatch.Dispatcher
}

// New builds a Node from cfg, indexing its file directory and validating
// its server type.
func New(ctx context.Context, cfg Config) (*Node, error) {
	if cfg.ServerType == ServerTypeChat {
		return nil, ErrUnsupportedServerType
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "node", "server_id", cfg.ServerID)

	cooldown := cfg.FloodCooldown
	if cooldown <= 0 {
		cooldown = DefaultFloodCooldown
	}

	graph := topology.New()
	graph.AddNode(cfg.ServerID)
	retention := fragbuf.NewRetention()
	assembler := fragbuf.NewAssembler(fragcodec.New())

	n := &Node{
		cfg:       cfg,
		log:       logger,
		graph:     graph,
		retention: retention,
		assembler: assembler,
	}

	n.floodEngine = flood.New(cfg.ServerID, int64(cooldown/time.Millisecond), clockutil.New(), logger)
	n.control = control.New(cfg.ServerID, graph, floodTrigger{n}, logger)
	for id, ch := range cfg.Senders {
		n.control.Handle(control.AddSender{ID: id, Channel: ch})
	}

	n.retryEngine = retry.New(cfg.ServerID, graph, retention, logger)

	var ext, dir string
	var mediaReader content.MediaReader
	var textReader content.TextReader
	switch cfg.ServerType {
	case ServerTypeText:
		ext, dir = "txt", cfg.FileDirectory
		textReader = textfile.New()
	case ServerTypeMedia:
		ext, dir = "jpg", cfg.MediaDirectory
		mediaReader = imaging.New()
	}
	index, err := fileindex.Build(ctx, dir, ext)
	if err != nil {
		return nil, fmt.Errorf("build file index: %w", err)
	}

	processor := content.New(content.Config{
		Self:         cfg.ServerID,
		ServerType:   content.ServerType(cfg.ServerType),
		Files:        index,
		TextReader:   textReader,
		MediaReader:  mediaReader,
		Codec:        appcodec.New(),
		Disassembler: fragcodec.New(),
		Retention:    retention,
		Sender:       n,
		Events:       n,
		Logger:       logger,
	})

	n.dispatcher = dispatch.New(dispatch.Config{
		Assembler: assembler,
		Retention: retention,
		Retry:     n.retryEngine,
		Flood:     n.floodEngine,
		FloodTrig: floodTrigger{n},
		Graph:     graph,
		Sender:    n,
		Processor: processor,
		Events:    n,
		Logger:    logger,
	})

	return n, nil
}

// Run drives the event loop until ctx is canceled. It first attempts an
// initial topology-discovery flood, matching how a freshly started content
// server seeds its view of the network before serving requests.
func (n *Node) Run(ctx context.Context) error {
	floodTrigger{n}.Initiate()

	for {
		select {
		case cmd := <-n.cfg.ControlReceiver:
			n.handleControl(cmd)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-n.cfg.ControlReceiver:
			n.handleControl(cmd)
		case pkt := <-n.cfg.DataReceiver:
			n.dispatcher.Handle(pkt)
		}
	}
}

func (n *Node) handleControl(cmd control.Command) {
	snapshot := n.control.Handle(cmd)
	if snapshot != nil {
		n.emit(TopologyResponse{Nodes: snapshot.Nodes, Edges: snapshot.Edges})
	}
}

// Send implements neighbor.Sender, wrapping the control handler's raw
// channel send with PacketSent event reporting.
func (n *Node) Send(id netid.NodeID, pkt *packet.Packet) bool {
	ok := n.control.Send(id, pkt)
	if ok {
		n.emit(PacketSent{Session: pkt.Session, Kind: pkt.Kind})
	}
	return ok
}

// IDs implements neighbor.Sender.
func (n *Node) IDs() []netid.NodeID {
	return n.control.IDs()
}

// MessageSent implements content.EventSink.
func (n *Node) MessageSent(session uint64) {
	n.emit(MessageSent{Session: session})
}

// FloodResponseReceived implements dispatch.EventSink.
func (n *Node) FloodResponseReceived(floodID uint64) {
	n.emit(FloodResponseReceived{FloodID: floodID})
}

func (n *Node) emit(e Event) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Warn("response channel closed, dropping event")
		}
	}()
	select {
	case n.cfg.ResponseSender <- e:
	default:
		n.log.Warn("response channel full, dropping event")
	}
}

// floodTrigger adapts Node into both retry.FloodTrigger and
// control.FloodTrigger, emitting FloodRequestSent only when a flood
// actually goes out (i.e. isn't suppressed by the debounce cooldown).
type floodTrigger struct{ n *Node }

func (t floodTrigger) Initiate() {
	if t.n.floodEngine.Initiate(t.n) {
		t.n.emit(FloodRequestSent{})
	}
}
