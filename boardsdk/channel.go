package boardsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ChannelState is the lifecycle of a session channel.
type ChannelState int

const (
	ChannelConnecting ChannelState = iota
	ChannelOpen
	ChannelClosed
)

// Handlers receive server events. All handlers run on a single dispatch
// goroutine, so they observe events in arrival order and need no locking
// among themselves. A nil handler drops its events.
type Handlers struct {
	OnChat        func(boardID uuid.UUID, msg ChatMessage)
	OnWhiteboard  func(boardID uuid.UUID, scene json.RawMessage)
	OnTaskUpdate  func(boardID uuid.UUID, task Task)
	OnTaskDeleted func(boardID, taskID uuid.UUID)
	OnStatus      func(boardID uuid.UUID, message string)
	OnError       func(boardID uuid.UUID, message string)
}

// Channel is a live realtime connection. One websocket, any number of board
// rooms joined on it.
type Channel struct {
	conn     *websocket.Conn
	handlers Handlers
	cancel   context.CancelFunc

	mu      sync.Mutex
	state   ChannelState
	joined  map[uuid.UUID]bool
	writeMu sync.Mutex
}

// DialChannel opens a session channel authenticated with the client's
// current session token. A dead credential fails the handshake with
// ErrUnauthorized; the connection is never admitted and later rejected.
func (c *Client) DialChannel(ctx context.Context, handlers Handlers) (*Channel, error) {
	token := c.SessionToken()
	if token == "" {
		return nil, fmt.Errorf("boardsdk.DialChannel: %w", ErrUnauthorized)
	}

	u := *c.BaseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	conn, resp, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 401 {
			return nil, fmt.Errorf("boardsdk.DialChannel: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("boardsdk.DialChannel: %w", err)
	}
	conn.SetReadLimit(1 << 20)

	dispatchCtx, cancel := context.WithCancel(context.Background())
	ch := &Channel{
		conn:     conn,
		handlers: handlers,
		cancel:   cancel,
		state:    ChannelOpen,
		joined:   make(map[uuid.UUID]bool),
	}
	go ch.dispatch(dispatchCtx)

	return ch, nil
}

// State returns the channel lifecycle state.
func (ch *Channel) State() ChannelState {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Joined reports whether the channel has joined boardID's room.
func (ch *Channel) Joined(boardID uuid.UUID) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.joined[boardID]
}

// Join enters boardID's room. Idempotent: joining a room the channel already
// belongs to is a no-op.
func (ch *Channel) Join(ctx context.Context, boardID uuid.UUID) error {
	ch.mu.Lock()
	if ch.state != ChannelOpen {
		ch.mu.Unlock()
		return fmt.Errorf("boardsdk.Channel.Join: channel is not open")
	}
	if ch.joined[boardID] {
		ch.mu.Unlock()
		return nil
	}
	ch.joined[boardID] = true
	ch.mu.Unlock()

	if err := ch.send(ctx, Event{Type: EventJoin, BoardID: boardID}); err != nil {
		ch.mu.Lock()
		delete(ch.joined, boardID)
		ch.mu.Unlock()
		return fmt.Errorf("boardsdk.Channel.Join: %w", err)
	}
	return nil
}

// Leave exits boardID's room.
func (ch *Channel) Leave(ctx context.Context, boardID uuid.UUID) error {
	ch.mu.Lock()
	if !ch.joined[boardID] {
		ch.mu.Unlock()
		return nil
	}
	delete(ch.joined, boardID)
	ch.mu.Unlock()

	if err := ch.send(ctx, Event{Type: EventLeave, BoardID: boardID}); err != nil {
		return fmt.Errorf("boardsdk.Channel.Leave: %w", err)
	}
	return nil
}

// SendChat relays a chat message to boardID's room. Requires a prior Join.
func (ch *Channel) SendChat(ctx context.Context, boardID uuid.UUID, message string) error {
	if !ch.Joined(boardID) {
		return fmt.Errorf("boardsdk.Channel.SendChat: not joined to board %s", boardID)
	}

	payload, err := json.Marshal(ChatMessage{Message: message})
	if err != nil {
		return fmt.Errorf("boardsdk.Channel.SendChat: %w", err)
	}
	if err := ch.send(ctx, Event{Type: EventChatMessage, BoardID: boardID, Payload: payload}); err != nil {
		return fmt.Errorf("boardsdk.Channel.SendChat: %w", err)
	}
	return nil
}

// SendWhiteboard broadcasts a full canvas snapshot to boardID's room. The
// broadcast is live-only; persistence is a separate SaveWhiteboard call.
func (ch *Channel) SendWhiteboard(ctx context.Context, boardID uuid.UUID, scene json.RawMessage) error {
	if !ch.Joined(boardID) {
		return fmt.Errorf("boardsdk.Channel.SendWhiteboard: not joined to board %s", boardID)
	}

	payload, err := json.Marshal(whiteboardPayload{CanvasState: scene})
	if err != nil {
		return fmt.Errorf("boardsdk.Channel.SendWhiteboard: %w", err)
	}
	if err := ch.send(ctx, Event{Type: EventWhiteboardUpdate, BoardID: boardID, Payload: payload}); err != nil {
		return fmt.Errorf("boardsdk.Channel.SendWhiteboard: %w", err)
	}
	return nil
}

// Close tears the channel down unconditionally: every joined room is left and
// the transport is closed. Safe to call more than once.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	if ch.state == ChannelClosed {
		ch.mu.Unlock()
		return nil
	}
	ch.state = ChannelClosed
	ch.joined = make(map[uuid.UUID]bool)
	ch.mu.Unlock()

	ch.cancel()
	if err := ch.conn.Close(websocket.StatusNormalClosure, "client closed"); err != nil {
		return fmt.Errorf("boardsdk.Channel.Close: %w", err)
	}
	return nil
}

func (ch *Channel) send(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	// coder/websocket allows one concurrent writer.
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	return ch.conn.Write(ctx, websocket.MessageText, data)
}

// dispatch reads frames and invokes handlers in arrival order until the
// connection or the channel dies.
func (ch *Channel) dispatch(ctx context.Context) {
	defer func() {
		ch.mu.Lock()
		ch.state = ChannelClosed
		ch.joined = make(map[uuid.UUID]bool)
		ch.mu.Unlock()
	}()

	for {
		_, data, err := ch.conn.Read(ctx)
		if err != nil {
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn().Err(err).Msg("boardsdk: malformed event frame")
			continue
		}

		ch.handle(ev)
	}
}

func (ch *Channel) handle(ev Event) {
	switch ev.Type {
	case EventChatMessage:
		if ch.handlers.OnChat == nil {
			return
		}
		var msg ChatMessage
		if err := json.Unmarshal(ev.Payload, &msg); err != nil {
			return
		}
		ch.handlers.OnChat(ev.BoardID, msg)

	case EventWhiteboardUpdate:
		if ch.handlers.OnWhiteboard == nil {
			return
		}
		var p whiteboardPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		ch.handlers.OnWhiteboard(ev.BoardID, p.CanvasState)

	case EventTaskUpdate:
		if ch.handlers.OnTaskUpdate == nil {
			return
		}
		var p taskUpdatePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		ch.handlers.OnTaskUpdate(ev.BoardID, p.Task)

	case EventTaskDeleted:
		if ch.handlers.OnTaskDeleted == nil {
			return
		}
		var p taskDeletedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		ch.handlers.OnTaskDeleted(ev.BoardID, p.TaskID)

	case EventStatus:
		if ch.handlers.OnStatus == nil {
			return
		}
		var p statusPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		ch.handlers.OnStatus(ev.BoardID, p.Message)

	case EventError:
		var p statusPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		if ch.handlers.OnError != nil {
			ch.handlers.OnError(ev.BoardID, p.Message)
			return
		}
		log.Warn().Str("board_id", ev.BoardID.String()).Str("message", p.Message).Msg("boardsdk: server error event")
	}
}
