// Package ports defines the interfaces that connect the transport core
// to the outside world.
//
// The streamer deliberately stops at two boundaries: where compressed
// frames come from on the sending side, and where completed frames go
// on the receiving side. Camera capture, image compression, and
// playback live behind these interfaces.
//
//   - [FrameSource]: produces compressed frames on the sender
//   - [FrameSink]: consumes completed frames on the receiver
//   - [PacketWriter]: datagram write surface, satisfied by *net.UDPConn
//   - [Logger]: structured logging abstraction (alias of pkg/log)
//
// The application layer depends only on these interfaces, which keeps
// the transport testable without sockets or cameras.
package ports
