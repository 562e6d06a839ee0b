package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/collabhq/collabboard/internal/domain"
	"github.com/collabhq/collabboard/internal/server/middleware"
	redisstore "github.com/collabhq/collabboard/internal/store/redis"
)

// DataStore is the slice of the persistence layer the hub needs: membership
// checks on join and the chat archive. *postgres.Store satisfies it.
type DataStore interface {
	Members() domain.BoardMemberRepository
	Chat() domain.ChatMessageRepository
}

// Hub terminates websocket session channels and routes room-scoped events.
// Fan-out runs through Redis pub/sub so multiple hub instances share rooms:
// every event is published to the board's channel, and each instance relays
// its local subscription into its own registry.
type Hub struct {
	registry *Registry
	pubsub   *redisstore.PubSub
	store    DataStore

	// baseCtx bounds relay goroutine lifetimes to the server lifetime
	// rather than to the request that happened to create the room.
	baseCtx context.Context

	mu     sync.Mutex
	relays map[uuid.UUID]context.CancelFunc
}

// NewHub creates a hub. ctx should be the server's run context; cancelling it
// stops every room relay.
func NewHub(ctx context.Context, pubsub *redisstore.PubSub, store DataStore) *Hub {
	return &Hub{
		registry: NewRegistry(),
		pubsub:   pubsub,
		store:    store,
		baseCtx:  ctx,
		relays:   make(map[uuid.UUID]context.CancelFunc),
	}
}

// Registry exposes the room routing table (used by tests and diagnostics).
func (h *Hub) Registry() *Registry { return h.registry }

// Serve handles one websocket session channel. Auth middleware has already
// validated the bearer token; a request without identity never upgrades.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	username, _ := middleware.UsernameFromContext(r.Context())

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Whiteboard snapshots are full-scene JSON blobs and can be large.
	conn.SetReadLimit(1 << 20)

	s := newSession(userID, username)
	defer h.teardown(s)

	ctx := r.Context()
	go s.writeLoop(ctx, conn)

	log.Debug().
		Str("conn_id", s.ConnID.String()).
		Str("username", username).
		Msg("session channel open")

	for {
		_, data, readErr := conn.Read(ctx)
		if readErr != nil {
			log.Debug().Err(readErr).Str("conn_id", s.ConnID.String()).Msg("session channel closed")
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			h.sendError(s, uuid.Nil, "malformed event")
			continue
		}

		h.dispatch(ctx, s, ev)
	}
}

// dispatch routes one inbound client event.
func (h *Hub) dispatch(ctx context.Context, s *Session, ev Event) {
	switch ev.Type {
	case EventJoin:
		h.handleJoin(ctx, s, ev.BoardID)
	case EventLeave:
		h.handleLeave(s, ev.BoardID)
	case EventChatMessage:
		h.handleChat(ctx, s, ev)
	case EventWhiteboardUpdate:
		h.handleWhiteboard(ctx, s, ev)
	default:
		h.sendError(s, ev.BoardID, "unknown event type: "+string(ev.Type))
	}
}

func (h *Hub) handleJoin(ctx context.Context, s *Session, boardID uuid.UUID) {
	if boardID == uuid.Nil {
		h.sendError(s, boardID, "join requires a board id")
		return
	}

	isMember, err := h.store.Members().IsActiveMember(ctx, boardID, s.UserID)
	if err != nil {
		log.Error().Err(err).Str("board_id", boardID.String()).Msg("membership lookup")
		h.sendError(s, boardID, "membership check failed")
		return
	}
	if !isMember {
		h.sendError(s, boardID, "not a member of this board")
		return
	}

	if h.registry.Member(boardID, s) {
		// join is idempotent: already in the room, nothing to do.
		return
	}

	created := h.registry.Join(boardID, s)
	if created {
		h.startRelay(boardID)
	}

	status, err := NewEvent(EventStatus, boardID, StatusPayload{Message: s.Username + " joined the board"})
	if err == nil {
		h.publish(ctx, boardID, s.ConnID, false, status)
	}
}

func (h *Hub) handleLeave(s *Session, boardID uuid.UUID) {
	if h.registry.Leave(boardID, s) {
		h.stopRelay(boardID)
	}
}

func (h *Hub) handleChat(ctx context.Context, s *Session, ev Event) {
	if !h.registry.Member(ev.BoardID, s) {
		h.sendError(s, ev.BoardID, "chat requires room membership")
		return
	}

	var in ChatPayload
	if err := json.Unmarshal(ev.Payload, &in); err != nil || in.Message == "" {
		h.sendError(s, ev.BoardID, "malformed chat payload")
		return
	}

	msg := &domain.ChatMessage{
		ID:        uuid.New(),
		BoardID:   ev.BoardID,
		UserID:    s.UserID,
		Username:  s.Username,
		Message:   in.Message,
		Timestamp: time.Now(),
	}

	// Archive is best-effort: relay does not depend on the write.
	if err := h.store.Chat().Create(ctx, msg); err != nil {
		log.Warn().Err(err).Str("board_id", ev.BoardID.String()).Msg("chat archive write")
	}

	out, err := NewEvent(EventChatMessage, ev.BoardID, ChatPayload{
		UserID:    msg.UserID,
		Username:  msg.Username,
		Message:   msg.Message,
		Timestamp: msg.Timestamp,
	})
	if err != nil {
		h.sendError(s, ev.BoardID, "failed to relay chat message")
		return
	}

	// Chat fan-out includes the sender: clients render their own message
	// from the room echo rather than applying it locally.
	h.publish(ctx, ev.BoardID, s.ConnID, false, out)
}

func (h *Hub) handleWhiteboard(ctx context.Context, s *Session, ev Event) {
	if !h.registry.Member(ev.BoardID, s) {
		h.sendError(s, ev.BoardID, "whiteboard update requires room membership")
		return
	}

	var in WhiteboardPayload
	if err := json.Unmarshal(ev.Payload, &in); err != nil || len(in.CanvasState) == 0 {
		h.sendError(s, ev.BoardID, "malformed whiteboard payload")
		return
	}

	out, err := NewEvent(EventWhiteboardUpdate, ev.BoardID, in)
	if err != nil {
		h.sendError(s, ev.BoardID, "failed to relay whiteboard update")
		return
	}

	// The sender already applied their own edit; exclude them from fan-out.
	h.publish(ctx, ev.BoardID, s.ConnID, true, out)
}

// PublishTaskUpdate broadcasts a confirmed task mutation to the board's room.
// Called by the REST layer after a successful write.
func (h *Hub) PublishTaskUpdate(ctx context.Context, task *domain.Task) error {
	ev, err := NewEvent(EventTaskUpdate, task.BoardID, TaskUpdatePayload{Task: task})
	if err != nil {
		return fmt.Errorf("ws.Hub.PublishTaskUpdate: %w", err)
	}

	h.publish(ctx, task.BoardID, uuid.Nil, false, ev)
	return nil
}

// PublishTaskDeleted broadcasts a confirmed task deletion to the board's room.
func (h *Hub) PublishTaskDeleted(ctx context.Context, boardID, taskID uuid.UUID) error {
	ev, err := NewEvent(EventTaskDeleted, boardID, TaskDeletedPayload{TaskID: taskID})
	if err != nil {
		return fmt.Errorf("ws.Hub.PublishTaskDeleted: %w", err)
	}

	h.publish(ctx, boardID, uuid.Nil, false, ev)
	return nil
}

// publish sends an event through the pub/sub backbone. Delivery to local
// members happens in the board relay, which applies origin exclusion.
func (h *Hub) publish(ctx context.Context, boardID, origin uuid.UUID, excludeOrigin bool, ev Event) {
	env := envelope{Origin: origin, ExcludeOrigin: excludeOrigin, Event: ev}

	payload, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("marshal event envelope")
		return
	}

	if err := h.pubsub.Publish(ctx, redisstore.BoardChannel(boardID), payload); err != nil {
		log.Error().Err(err).Str("board_id", boardID.String()).Msg("publish board event")
	}
}

// startRelay subscribes to a board's pub/sub channel and pipes events into
// the local registry. One relay per locally-populated room. The subscription
// is established before startRelay returns, so an event published right
// after a join cannot slip past the relay.
func (h *Hub) startRelay(boardID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.relays[boardID]; ok {
		return
	}

	ctx, cancel := context.WithCancel(h.baseCtx)

	messages, cleanup, err := h.pubsub.Subscribe(ctx, redisstore.BoardChannel(boardID))
	if err != nil {
		cancel()
		log.Error().Err(err).Str("board_id", boardID.String()).Msg("board relay subscribe")
		return
	}

	h.relays[boardID] = cancel
	go h.relay(ctx, boardID, messages, cleanup)
}

// stopRelay cancels boardID's relay once its room is empty. The membership
// re-check runs under the relay lock: a leave can empty the room and a join
// re-create it before the leaver's shutdown runs, and in that interleaving
// the joiner's startRelay no-ops against the still-registered relay. Without
// the re-check the leaver would then cancel the relay out from under a
// populated room.
func (h *Hub) stopRelay(boardID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.registry.MemberCount(boardID) > 0 {
		return
	}
	if cancel, ok := h.relays[boardID]; ok {
		cancel()
		delete(h.relays, boardID)
	}
}

func (h *Hub) relay(ctx context.Context, boardID uuid.UUID, messages <-chan []byte, cleanup func()) {
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-messages:
			if !ok {
				return
			}

			var env envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				log.Warn().Err(err).Str("board_id", boardID.String()).Msg("malformed relay envelope")
				continue
			}

			data, err := json.Marshal(env.Event)
			if err != nil {
				continue
			}

			h.registry.Deliver(boardID, env.Origin, env.ExcludeOrigin, data)
		}
	}
}

// teardown runs on session exit: the session leaves every room it joined and
// relays for emptied rooms are stopped. Unconditional, so a dropped
// connection can never keep receiving fan-out.
func (h *Hub) teardown(s *Session) {
	s.close()
	for _, boardID := range h.registry.RemoveSession(s) {
		h.stopRelay(boardID)
	}
}

func (h *Hub) sendError(s *Session, boardID uuid.UUID, msg string) {
	ev, err := NewEvent(EventError, boardID, ErrorPayload{Message: msg})
	if err != nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	s.trySend(data)
}
