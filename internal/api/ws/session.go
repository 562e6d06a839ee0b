package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// sendQueueSize bounds the per-session egress buffer. A consumer that
	// falls further behind than this loses events instead of blocking the
	// room: delivery is best-effort, at-most-once.
	sendQueueSize = 64

	writeTimeout = 10 * time.Second
)

// Session is one live, authenticated connection. The hub owns exactly one
// Session per websocket; the registry holds non-owning references while the
// session is a room member.
type Session struct {
	ConnID   uuid.UUID
	UserID   uuid.UUID
	Username string

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newSession(userID uuid.UUID, username string) *Session {
	return &Session{
		ConnID:   uuid.New(),
		UserID:   userID,
		Username: username,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
	}
}

// trySend queues msg for the session's writer without blocking. Returns false
// when the session is closed or its queue is full (the event is dropped).
func (s *Session) trySend(msg []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- msg:
		return true
	default:
		log.Debug().
			Str("conn_id", s.ConnID.String()).
			Str("username", s.Username).
			Msg("session send queue full, dropping event")
		return false
	}
}

// close marks the session dead. Safe to call more than once.
func (s *Session) close() {
	s.once.Do(func() { close(s.done) })
}

// writeLoop pumps queued messages to the connection. A single writer per
// connection keeps egress FIFO. Exits on session close, context cancellation,
// or write failure.
func (s *Session) writeLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case msg := <-s.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("conn_id", s.ConnID.String()).Msg("websocket write")
				s.close()
				return
			}
		}
	}
}
