// Package domain contains the core entities and sentinel errors for the
// frame streamer.
//
// This is the innermost layer: it has no dependencies on sockets,
// logging, or configuration and holds only the types the transport
// components exchange.
package domain
