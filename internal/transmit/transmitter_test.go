package transmit

import (
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/log"
	"github.com/Pentagram-Sofware/udp-video-streamer/pkg/packet"
)

// fakeConn records writes per destination and can fail a destination
// after a fixed number of accepted packets.
type fakeConn struct {
	writes    map[string][][]byte
	failAddr  string
	failAfter int
}

func newFakeConn() *fakeConn {
	return &fakeConn{writes: make(map[string][][]byte), failAfter: -1}
}

func (f *fakeConn) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	key := addr.String()
	if key == f.failAddr && len(f.writes[key]) >= f.failAfter {
		return 0, errors.New("socket buffer full")
	}
	p := make([]byte, len(b))
	copy(p, b)
	f.writes[key] = append(f.writes[key], p)
	return len(b), nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func dest(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: port}
}

func TestBroadcast_SendsFullSequenceToEveryDestination(t *testing.T) {
	conn := newFakeConn()
	tx := New(conn, 1200, 0, log.NewNoopLogger(), nil)

	data := make([]byte, 3000)
	dests := []*net.UDPAddr{dest(7000), dest(7001)}

	id := tx.Broadcast(data, dests)
	if id != 0 {
		t.Errorf("first frame id = %d, want 0", id)
	}

	for _, d := range dests {
		got := conn.writes[d.String()]
		if len(got) != 4 {
			t.Fatalf("dest %s received %d packets, want 4 (start + 3 chunks)", d, len(got))
		}
		fs, err := packet.DecodeFrameStart(got[0])
		if err != nil {
			t.Fatalf("first packet is not FRAME_START: %v", err)
		}
		if fs.FrameID != 0 || fs.FrameSize != 3000 || fs.ChunkCount != 3 {
			t.Errorf("FRAME_START = %+v, want {0 3000 3}", fs)
		}
		for i := 1; i < 4; i++ {
			c, err := packet.DecodeChunk(got[i])
			if err != nil {
				t.Fatalf("packet %d is not a CHUNK: %v", i, err)
			}
			if c.Index != uint32(i-1) {
				t.Errorf("chunk order: packet %d has index %d", i, c.Index)
			}
		}
	}
}

func TestBroadcast_FrameIDIncrements(t *testing.T) {
	conn := newFakeConn()
	tx := New(conn, 1200, 0, log.NewNoopLogger(), nil)

	for want := uint32(0); want < 5; want++ {
		if id := tx.Broadcast([]byte("frame"), []*net.UDPAddr{dest(7000)}); id != want {
			t.Errorf("Broadcast id = %d, want %d", id, want)
		}
	}
}

func TestBroadcast_FrameIDWraps(t *testing.T) {
	conn := newFakeConn()
	tx := New(conn, 1200, 0, log.NewNoopLogger(), nil)
	tx.nextFrameID = math.MaxUint32

	if id := tx.Broadcast([]byte("frame"), []*net.UDPAddr{dest(7000)}); id != math.MaxUint32 {
		t.Errorf("Broadcast id = %d, want MaxUint32", id)
	}
	if id := tx.Broadcast([]byte("frame"), []*net.UDPAddr{dest(7000)}); id != 0 {
		t.Errorf("Broadcast id after wrap = %d, want 0", id)
	}
}

func TestBroadcast_IDAdvancesWithoutDestinations(t *testing.T) {
	conn := newFakeConn()
	tx := New(conn, 1200, 0, log.NewNoopLogger(), nil)

	tx.Broadcast([]byte("frame"), nil)
	if id := tx.Broadcast([]byte("frame"), []*net.UDPAddr{dest(7000)}); id != 1 {
		t.Errorf("Broadcast id = %d, want 1", id)
	}
}

func TestBroadcast_WriteErrorDropsRestForThatDestinationOnly(t *testing.T) {
	conn := newFakeConn()
	conn.failAddr = dest(7000).String()
	conn.failAfter = 2 // accept FRAME_START + chunk 0, then fail

	tx := New(conn, 1200, 0, log.NewNoopLogger(), nil)
	data := make([]byte, 3000)

	tx.Broadcast(data, []*net.UDPAddr{dest(7000), dest(7001)})

	if got := len(conn.writes[dest(7000).String()]); got != 2 {
		t.Errorf("failing dest received %d packets, want 2 (rest dropped)", got)
	}
	if got := len(conn.writes[dest(7001).String()]); got != 4 {
		t.Errorf("healthy dest received %d packets, want 4", got)
	}
}
