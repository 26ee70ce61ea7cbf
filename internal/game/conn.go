package game

import "context"

// Conn is the transport capability the gateway hands to a session.
// Each connection is written from a single goroutine (the player's
// write pump), so implementations never see concurrent writes.
type Conn interface {
	Write(ctx context.Context, data []byte) error
	Close(reason string) error
}
