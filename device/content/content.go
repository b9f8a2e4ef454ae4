// Package content implements the request processor: decoding an inbound
// application request, checking it against this server's declared type,
// and building and sending the response. Its collaborator-interface shape
// mirrors the mesh node's room server, which pulls client and post stores
// in rather than owning storage itself.
package content

import (
	"log/slog"

	"github.com/routewise/contentserver/fragbuf"
	"github.com/routewise/contentserver/neighbor"
	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/packet"
)

// ServerType is this server's declared content affinity.
type ServerType uint8

const (
	ServerTypeText ServerType = iota
	ServerTypeMedia
)

func (t ServerType) String() string {
	if t == ServerTypeMedia {
		return "Media"
	}
	return "Text"
}

// RequestKind identifies which application request was decoded.
type RequestKind uint8

const (
	RequestFileList RequestKind = iota
	RequestTextFile
	RequestMediaFile
	RequestServerType
)

// Request is the decoded form of an inbound application payload.
type Request struct {
	Kind   RequestKind
	FileID uint8
}

// Codec decodes application requests and encodes application responses.
// Implemented by collab/appcodec.Codec.
type Codec interface {
	DecodeRequest(payload []byte) (Request, error)
	EncodeFileList(ids []uint8) ([]byte, error)
	EncodeTextFile(id uint8, content string) ([]byte, error)
	EncodeMediaFile(id uint8, content []byte) ([]byte, error)
	EncodeServerType(t ServerType) ([]byte, error)
}

// FileIndex reports which file ids this server is serving and where each
// lives on disk. Implemented by collab/fileindex.Index.
type FileIndex interface {
	IDs() []uint8
	Path(id uint8) (string, bool)
}

// TextReader loads a text file's contents from disk.
type TextReader interface {
	ReadText(path string) (string, error)
}

// MediaReader loads and transcodes an image file from disk.
type MediaReader interface {
	ReadMedia(path string) ([]byte, error)
}

// Disassembler splits an encoded response payload into wire fragments.
// Implemented by collab/fragcodec.Codec.
type Disassembler interface {
	Disassemble(payload []byte, session uint64) []packet.Fragment
}

// EventSink reports that a logical message has been fully sent.
type EventSink interface {
	MessageSent(session uint64)
}

// Processor answers decoded application requests.
type Processor struct {
	self        netid.NodeID
	serverType  ServerType
	files       FileIndex
	textReader  TextReader
	mediaReader MediaReader
	codec       Codec
	disasm      Disassembler
	retention   *fragbuf.Retention
	sender      neighbor.Sender
	events      EventSink
	log         *slog.Logger
}

// Config bundles a Processor's collaborators.
type Config struct {
	Self        netid.NodeID
	ServerType  ServerType
	Files       FileIndex
	TextReader  TextReader
	MediaReader MediaReader
	Codec       Codec
	Disassembler Disassembler
	Retention   *fragbuf.Retention
	Sender      neighbor.Sender
	Events      EventSink
	Logger      *slog.Logger
}

// New builds a Processor from cfg.
func New(cfg Config) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		self:        cfg.Self,
		serverType:  cfg.ServerType,
		files:       cfg.Files,
		textReader:  cfg.TextReader,
		mediaReader: cfg.MediaReader,
		codec:       cfg.Codec,
		disasm:      cfg.Disassembler,
		retention:   cfg.Retention,
		sender:      cfg.Sender,
		events:      cfg.Events,
		log:         logger.With("component", "content"),
	}
}

// HandleMessage decodes a fully-reassembled request payload from source
// and responds in kind. inboundHops is the routing header's hop list as it
// arrived, used to build the reply's reversed path.
func (p *Processor) HandleMessage(source netid.NodeID, session uint64, payload []byte, inboundHops []netid.NodeID) {
	req, err := p.codec.DecodeRequest(payload)
	if err != nil {
		p.log.Warn("failed to decode request", "source", source, "session", session, "err", err)
		return
	}

	switch req.Kind {
	case RequestFileList:
		p.respondFileList(session, inboundHops)
	case RequestTextFile:
		if p.serverType != ServerTypeText {
			p.log.Warn("text file request rejected: wrong server type", "session", session)
			return
		}
		p.respondTextFile(req.FileID, session, inboundHops)
	case RequestMediaFile:
		if p.serverType != ServerTypeMedia {
			p.log.Warn("media file request rejected: wrong server type", "session", session)
			return
		}
		p.respondMediaFile(req.FileID, session, inboundHops)
	case RequestServerType:
		p.respondServerType(session, inboundHops)
	default:
		p.log.Warn("unknown request kind", "kind", req.Kind, "session", session)
	}
}

func (p *Processor) respondFileList(session uint64, inboundHops []netid.NodeID) {
	payload, err := p.codec.EncodeFileList(p.files.IDs())
	if err != nil {
		p.log.Warn("failed to encode file list", "session", session, "err", err)
		return
	}
	p.send(payload, session, inboundHops)
}

func (p *Processor) respondTextFile(id uint8, session uint64, inboundHops []netid.NodeID) {
	path, ok := p.files.Path(id)
	if !ok {
		p.log.Warn("text file not found", "id", id, "session", session)
		return
	}
	text, err := p.textReader.ReadText(path)
	if err != nil {
		p.log.Warn("failed to read text file", "id", id, "session", session, "err", err)
		return
	}
	payload, err := p.codec.EncodeTextFile(id, text)
	if err != nil {
		p.log.Warn("failed to encode text file response", "id", id, "session", session, "err", err)
		return
	}
	p.send(payload, session, inboundHops)
}

func (p *Processor) respondMediaFile(id uint8, session uint64, inboundHops []netid.NodeID) {
	path, ok := p.files.Path(id)
	if !ok {
		p.log.Warn("media file not found", "id", id, "session", session)
		return
	}
	content, err := p.mediaReader.ReadMedia(path)
	if err != nil {
		p.log.Warn("failed to read media file", "id", id, "session", session, "err", err)
		return
	}
	payload, err := p.codec.EncodeMediaFile(id, content)
	if err != nil {
		p.log.Warn("failed to encode media file response", "id", id, "session", session, "err", err)
		return
	}
	p.send(payload, session, inboundHops)
}

func (p *Processor) respondServerType(session uint64, inboundHops []netid.NodeID) {
	payload, err := p.codec.EncodeServerType(p.serverType)
	if err != nil {
		p.log.Warn("failed to encode server type response", "session", session, "err", err)
		return
	}
	p.send(payload, session, inboundHops)
}

func (p *Processor) send(payload []byte, session uint64, inboundHops []netid.NodeID) {
	reversed := packet.RoutingHeader{Hops: inboundHops}.Reversed()
	if len(reversed.Hops) < 2 {
		p.log.Warn("cannot respond: no reverse route", "session", session)
		return
	}

	fragments := p.disasm.Disassemble(payload, session)
	for _, f := range fragments {
		pkt := &packet.Packet{
			Kind:     packet.KindFragment,
			Session:  session,
			Header:   reversed,
			Fragment: f,
		}
		p.retention.Append(session, pkt)
		p.sender.Send(reversed.Hops[1], pkt)
	}
	p.events.MessageSent(session)
}
