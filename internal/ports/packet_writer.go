package ports

import (
	"net"
	"time"
)

// PacketWriter abstracts outbound datagram writes for dependency
// injection. *net.UDPConn satisfies this interface.
type PacketWriter interface {
	// WriteToUDP writes a datagram to the given address.
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)

	// SetWriteDeadline bounds how long a single write may block.
	SetWriteDeadline(t time.Time) error
}
