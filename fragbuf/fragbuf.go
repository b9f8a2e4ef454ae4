// Package fragbuf reassembles inbound fragments into complete messages and
// retains outbound fragments for retransmission, keyed by session. The
// per-session bookkeeping here is adapted from the mesh node's multipart
// reassembler; the actual byte<->fragment conversion is left to an
// external codec collaborator, matching how that reassembler delegates to
// its own payload decoder.
package fragbuf

import "github.com/routewise/contentserver/packet"

// ByteAssembler turns a complete, index-ordered set of fragments back into
// the original byte payload.
type ByteAssembler interface {
	Assemble(fragments []packet.Fragment) []byte
}

// Assembler reassembles fragments into messages, one reassembly in
// progress per session. It is owned by a single goroutine; no locking is
// performed.
type Assembler struct {
	codec   ByteAssembler
	pending map[uint64]map[uint64]packet.Fragment
}

// NewAssembler returns an Assembler that defers byte-level reconstruction
// to codec.
func NewAssembler(codec ByteAssembler) *Assembler {
	return &Assembler{
		codec:   codec,
		pending: make(map[uint64]map[uint64]packet.Fragment),
	}
}

// Add records frag under session. Once every index in [0, Total) has
// arrived for that session, it returns the reassembled payload and true,
// and discards the session's bookkeeping. Duplicate fragments are
// idempotent: a repeat of an index already seen simply overwrites it.
func (a *Assembler) Add(session uint64, frag packet.Fragment) ([]byte, bool) {
	group, ok := a.pending[session]
	if !ok {
		group = make(map[uint64]packet.Fragment)
		a.pending[session] = group
	}
	group[frag.Index] = frag

	if uint64(len(group)) < frag.Total {
		return nil, false
	}

	ordered := make([]packet.Fragment, frag.Total)
	for i := uint64(0); i < frag.Total; i++ {
		f, present := group[i]
		if !present {
			return nil, false
		}
		ordered[i] = f
	}

	delete(a.pending, session)
	return a.codec.Assemble(ordered), true
}

// Pending reports how many sessions currently have an incomplete
// reassembly in progress.
func (a *Assembler) Pending() int {
	return len(a.pending)
}

// Entry is one outbound fragment retained for possible retransmission.
type Entry struct {
	Packet *packet.Packet
}

// Retention holds, per session, the ordered list of outbound fragment
// packets still awaiting acknowledgment.
type Retention struct {
	bySession map[uint64][]*packet.Packet
}

// NewRetention returns an empty outbound retention store.
func NewRetention() *Retention {
	return &Retention{bySession: make(map[uint64][]*packet.Packet)}
}

// Append records pkt as an outbound fragment for session, in send order.
func (r *Retention) Append(session uint64, pkt *packet.Packet) {
	r.bySession[session] = append(r.bySession[session], pkt)
}

// Ack removes the retained fragment at index for session. If that was the
// session's last retained fragment, the session entry is pruned entirely.
func (r *Retention) Ack(session uint64, index uint64) {
	list, ok := r.bySession[session]
	if !ok {
		return
	}
	kept := list[:0]
	for _, pkt := range list {
		if pkt.Fragment.Index != index {
			kept = append(kept, pkt)
		}
	}
	if len(kept) == 0 {
		delete(r.bySession, session)
		return
	}
	r.bySession[session] = kept
}

// Get returns the retained packet for (session, index), if any.
func (r *Retention) Get(session uint64, index uint64) (*packet.Packet, bool) {
	for _, pkt := range r.bySession[session] {
		if pkt.Fragment.Index == index {
			return pkt, true
		}
	}
	return nil, false
}

// Sessions reports every session with at least one retained fragment.
func (r *Retention) Sessions() []uint64 {
	out := make([]uint64, 0, len(r.bySession))
	for s := range r.bySession {
		out = append(out, s)
	}
	return out
}
