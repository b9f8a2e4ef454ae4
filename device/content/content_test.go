package content

import (
	"fmt"
	"testing"

	"github.com/routewise/contentserver/fragbuf"
	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/packet"
)

type mockSender struct {
	sent map[netid.NodeID][]*packet.Packet
}

func newMockSender() *mockSender {
	return &mockSender{sent: make(map[netid.NodeID][]*packet.Packet)}
}
func (m *mockSender) Send(id netid.NodeID, pkt *packet.Packet) bool {
	m.sent[id] = append(m.sent[id], pkt)
	return true
}
func (m *mockSender) IDs() []netid.NodeID { return nil }

type mockEvents struct{ sessions []uint64 }

func (e *mockEvents) MessageSent(session uint64) { e.sessions = append(e.sessions, session) }

type mockFiles struct{ ids []uint8 }

func (f *mockFiles) IDs() []uint8 { return f.ids }
func (f *mockFiles) Path(id uint8) (string, bool) {
	for _, x := range f.ids {
		if x == id {
			return fmt.Sprintf("/files/%d.txt", id), true
		}
	}
	return "", false
}

type mockTextReader struct{}

func (mockTextReader) ReadText(path string) (string, error) { return "hello", nil }

type mockMediaReader struct{}

func (mockMediaReader) ReadMedia(path string) ([]byte, error) { return []byte{0xFF, 0xD8}, nil }

type mockCodec struct{}

func (mockCodec) DecodeRequest(payload []byte) (Request, error) {
	switch string(payload) {
	case "FileList":
		return Request{Kind: RequestFileList}, nil
	case "TextFile":
		return Request{Kind: RequestTextFile, FileID: 2}, nil
	case "ServerType":
		return Request{Kind: RequestServerType}, nil
	default:
		return Request{}, fmt.Errorf("unknown request %q", payload)
	}
}
func (mockCodec) EncodeFileList(ids []uint8) ([]byte, error)   { return []byte("file-list-response"), nil }
func (mockCodec) EncodeTextFile(id uint8, content string) ([]byte, error) {
	return []byte("text-response:" + content), nil
}
func (mockCodec) EncodeMediaFile(id uint8, content []byte) ([]byte, error) {
	return []byte("media-response"), nil
}
func (mockCodec) EncodeServerType(t ServerType) ([]byte, error) { return []byte(t.String()), nil }

type passthroughDisasm struct{}

func (passthroughDisasm) Disassemble(payload []byte, session uint64) []packet.Fragment {
	var buf [packet.FragSize]byte
	n := copy(buf[:], payload)
	return []packet.Fragment{{Index: 0, Total: 1, Length: uint8(n), Payload: buf}}
}

func TestHandleMessageFileList(t *testing.T) {
	sender := newMockSender()
	events := &mockEvents{}
	retention := fragbuf.NewRetention()

	p := New(Config{
		Self:        1,
		ServerType:  ServerTypeText,
		Files:       &mockFiles{ids: []uint8{2}},
		TextReader:  mockTextReader{},
		MediaReader: mockMediaReader{},
		Codec:       mockCodec{},
		Disassembler: passthroughDisasm{},
		Retention:   retention,
		Sender:      sender,
		Events:      events,
	})

	p.HandleMessage(21, 12345, []byte("FileList"), []netid.NodeID{21, 2, 1})

	got := sender.sent[2]
	if len(got) != 1 {
		t.Fatalf("expected one fragment sent to neighbor 2, got %v", sender.sent)
	}
	if got[0].Header.Hops[0] != 1 || got[0].Header.Hops[2] != 21 {
		t.Fatalf("response hops = %v, want reversed [1 2 21]", got[0].Header.Hops)
	}
	if len(events.sessions) != 1 || events.sessions[0] != 12345 {
		t.Fatalf("expected one MessageSent(12345), got %v", events.sessions)
	}
}

func TestHandleMessageWrongServerTypeIgnored(t *testing.T) {
	sender := newMockSender()
	events := &mockEvents{}
	retention := fragbuf.NewRetention()

	p := New(Config{
		Self:        1,
		ServerType:  ServerTypeMedia,
		Files:       &mockFiles{ids: []uint8{2}},
		TextReader:  mockTextReader{},
		MediaReader: mockMediaReader{},
		Codec:       mockCodec{},
		Disassembler: passthroughDisasm{},
		Retention:   retention,
		Sender:      sender,
		Events:      events,
	})

	p.HandleMessage(21, 1, []byte("TextFile"), []netid.NodeID{21, 2, 1})

	if len(sender.sent) != 0 {
		t.Fatalf("media server should ignore text file request, got %v", sender.sent)
	}
	if len(events.sessions) != 0 {
		t.Fatalf("no MessageSent expected for rejected request")
	}
}
