package game

import (
	"context"
	"time"
)

const (
	outboxSize   = 64
	writeTimeout = 10 * time.Second
)

// Player is one roster entry. A player outlives their connection: on
// disconnect the entry stays in the session (keeping score and
// identity) so the same userId can reconnect and pick up where they
// left off.
//
// All fields below conn are owned by the session and touched only
// under the session lock.
type Player struct {
	ID   string
	Name string

	conn      Conn
	outbox    chan []byte
	done      chan struct{}
	connected bool
	score     int
	isHost    bool
}

func newPlayer(id, name string) *Player {
	return &Player{ID: id, Name: name}
}

// attach binds a live connection and starts its write pump. Called
// under the session lock, on first join and on every reconnect.
func (p *Player) attach(conn Conn) {
	p.conn = conn
	p.connected = true
	p.outbox = make(chan []byte, outboxSize)
	p.done = make(chan struct{})
	go writePump(conn, p.outbox, p.done)
}

// detach stops the write pump and closes the transport. Safe to call
// more than once for the same connection. Called under the session lock.
func (p *Player) detach(reason string) {
	if !p.connected {
		return
	}
	p.connected = false
	close(p.done)
	p.conn.Close(reason)
}

// enqueue hands a frame to the write pump without blocking. A false
// return means the outbox is full — the client is not draining.
func (p *Player) enqueue(data []byte) bool {
	select {
	case p.outbox <- data:
		return true
	default:
		return false
	}
}

// writePump drains one connection's outbox in order. Frames enqueued
// under the session lock come out in exactly the order the session
// produced them.
func writePump(conn Conn, outbox <-chan []byte, done <-chan struct{}) {
	for {
		select {
		case data := <-outbox:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := conn.Write(ctx, data)
			cancel()
			if err != nil {
				// The read loop will hit the same failure and run the
				// leave path; nothing to do here.
				return
			}
		case <-done:
			return
		}
	}
}
