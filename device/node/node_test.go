package node

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/routewise/contentserver/device/control"
	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/packet"
)

func writeFileListRequest(t *testing.T, hops []netid.NodeID) *packet.Packet {
	t.Helper()
	payload := []byte(`{"type":"FileList"}`)
	var buf [packet.FragSize]byte
	n := copy(buf[:], payload)
	return &packet.Packet{
		Kind:    packet.KindFragment,
		Session: 12345,
		Header:  packet.RoutingHeader{HopIndex: 2, Hops: hops},
		Fragment: packet.Fragment{Index: 0, Total: 1, Length: uint8(n), Payload: buf},
	}
}

func TestNodeRunAnswersFileListRequest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	toNeighbor2 := make(chan *packet.Packet, 8)
	dataIn := make(chan *packet.Packet, 8)
	controlIn := make(chan control.Command, 8)
	responses := make(chan Event, 8)

	n, err := New(context.Background(), Config{
		ServerID: 1,
		Senders: map[netid.NodeID]chan<- *packet.Packet{
			2: toNeighbor2,
		},
		DataReceiver:    dataIn,
		ControlReceiver: controlIn,
		ResponseSender:  responses,
		FileDirectory:   dir,
		ServerType:      ServerTypeText,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	// drain the initial flood request
	select {
	case <-toNeighbor2:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for initial flood request")
	}
	select {
	case ev := <-responses:
		if ps, ok := ev.(PacketSent); !ok || ps.Kind != packet.KindFloodRequest {
			t.Fatalf("expected PacketSent event for the flood request, got %#v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for PacketSent event")
	}
	select {
	case ev := <-responses:
		if _, ok := ev.(FloodRequestSent); !ok {
			t.Fatalf("expected FloodRequestSent event, got %#v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for FloodRequestSent event")
	}

	dataIn <- writeFileListRequest(t, []netid.NodeID{21, 2, 1})

	var gotAck, gotFragment bool
	for i := 0; i < 2; i++ {
		select {
		case pkt := <-toNeighbor2:
			switch pkt.Kind {
			case packet.KindAck:
				gotAck = true
				if pkt.Header.Hops[0] != 1 || pkt.Header.Hops[2] != 21 {
					t.Fatalf("ack hops = %v, want reversed [1 2 21]", pkt.Header.Hops)
				}
			case packet.KindFragment:
				gotFragment = true
			default:
				t.Fatalf("unexpected packet kind %v", pkt.Kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for response packet %d", i)
		}
	}
	if !gotAck || !gotFragment {
		t.Fatalf("expected both an ack and a fragment, gotAck=%v gotFragment=%v", gotAck, gotFragment)
	}

	sawMessageSent := false
	for i := 0; i < 10; i++ {
		select {
		case ev := <-responses:
			if _, ok := ev.(MessageSent); ok {
				sawMessageSent = true
			}
		case <-time.After(200 * time.Millisecond):
			i = 10
		}
	}
	if !sawMessageSent {
		t.Fatalf("expected a MessageSent event for the FileList response")
	}
}

func TestNodeRejectsChatServerType(t *testing.T) {
	_, err := New(context.Background(), Config{
		ServerID:   1,
		ServerType: ServerTypeChat,
	})
	if err != ErrUnsupportedServerType {
		t.Fatalf("err = %v, want ErrUnsupportedServerType", err)
	}
}

func TestNodeTopologyQueryResponds(t *testing.T) {
	dir := t.TempDir()
	toNeighbor2 := make(chan *packet.Packet, 8)
	controlIn := make(chan control.Command, 8)
	responses := make(chan Event, 8)

	n, err := New(context.Background(), Config{
		ServerID: 1,
		Senders: map[netid.NodeID]chan<- *packet.Packet{
			2: toNeighbor2,
		},
		DataReceiver:    make(chan *packet.Packet),
		ControlReceiver: controlIn,
		ResponseSender:  responses,
		FileDirectory:   dir,
		ServerType:      ServerTypeText,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	<-toNeighbor2 // drain initial flood

	controlIn <- control.TopologyQuery{}

	for i := 0; i < 5; i++ {
		select {
		case ev := <-responses:
			if tr, ok := ev.(TopologyResponse); ok {
				found := false
				for _, id := range tr.Nodes {
					if id == 2 {
						found = true
					}
				}
				if !found {
					t.Fatalf("topology response nodes = %v, want to include 2", tr.Nodes)
				}
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for TopologyResponse")
		}
	}
	t.Fatalf("did not receive TopologyResponse within expected events")
}
