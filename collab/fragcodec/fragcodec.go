// Package fragcodec converts between a flat byte payload and the fixed-
// size fragments carried on the wire. It is the external collaborator the
// core fragment buffer delegates to for the actual slicing and
// concatenation.
package fragcodec

import "github.com/routewise/contentserver/packet"

// Codec implements both fragbuf.ByteAssembler and content.Disassembler.
type Codec struct{}

// New returns a ready-to-use Codec.
func New() Codec {
	return Codec{}
}

// Disassemble splits payload into fixed-size fragments tagged with the
// index and total fragment count.
func (Codec) Disassemble(payload []byte, session uint64) []packet.Fragment {
	total := (len(payload) + packet.FragSize - 1) / packet.FragSize
	if total == 0 {
		total = 1
	}

	fragments := make([]packet.Fragment, 0, total)
	for i := 0; i < total; i++ {
		start := i * packet.FragSize
		end := start + packet.FragSize
		if end > len(payload) {
			end = len(payload)
		}
		var buf [packet.FragSize]byte
		n := copy(buf[:], payload[start:end])
		fragments = append(fragments, packet.Fragment{
			Index:   uint64(i),
			Total:   uint64(total),
			Length:  uint8(n),
			Payload: buf,
		})
	}
	return fragments
}

// Assemble concatenates an index-ordered, complete set of fragments back
// into the original payload.
func (Codec) Assemble(fragments []packet.Fragment) []byte {
	var buf []byte
	for _, f := range fragments {
		buf = append(buf, f.Payload[:f.Length]...)
	}
	return buf
}
