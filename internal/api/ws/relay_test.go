package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabhq/collabboard/internal/domain"
	redisstore "github.com/collabhq/collabboard/internal/store/redis"
)

type relayTestMemberRepo struct {
	domain.BoardMemberRepository
}

func (relayTestMemberRepo) IsActiveMember(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

type relayTestChatRepo struct {
	domain.ChatMessageRepository
}

func (relayTestChatRepo) Create(context.Context, *domain.ChatMessage) error { return nil }

type relayTestStore struct{}

func (relayTestStore) Members() domain.BoardMemberRepository { return relayTestMemberRepo{} }
func (relayTestStore) Chat() domain.ChatMessageRepository    { return relayTestChatRepo{} }

func newRelayTestHub(t *testing.T) *Hub {
	t.Helper()

	mr := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pubsub, err := redisstore.New(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pubsub.Close() })

	return NewHub(ctx, pubsub, relayTestStore{})
}

func (h *Hub) relayAlive(boardID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.relays[boardID]
	return ok
}

func expectDelivery(t *testing.T, s *Session, want EventType) {
	t.Helper()

	select {
	case data := <-s.send:
		var got Event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, want, got.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("event never delivered")
	}
}

// A leave can empty a room and a join re-create it before the leaver's relay
// shutdown runs. The room must keep its relay through that interleaving or
// the remaining member is cut off from fan-out until the room fully empties.
func TestHub_RelaySurvivesLeaveJoinInterleaving(t *testing.T) {
	t.Parallel()

	h := newRelayTestHub(t)
	boardID := uuid.New()
	a := newSession(uuid.New(), "a")
	b := newSession(uuid.New(), "b")

	// A creates the room and its relay.
	require.True(t, h.registry.Join(boardID, a))
	h.startRelay(boardID)
	require.True(t, h.relayAlive(boardID))

	// A's leave empties the room; B re-creates it before A's shutdown runs,
	// and B's relay start no-ops against the still-registered relay.
	require.True(t, h.registry.Leave(boardID, a))
	require.True(t, h.registry.Join(boardID, b))
	h.startRelay(boardID)
	h.stopRelay(boardID)

	require.Equal(t, 1, h.registry.MemberCount(boardID))
	require.True(t, h.relayAlive(boardID), "relay must survive while the room is populated")

	ev, err := NewEvent(EventStatus, boardID, StatusPayload{Message: "ping"})
	require.NoError(t, err)
	h.publish(context.Background(), boardID, uuid.Nil, false, ev)

	expectDelivery(t, b, EventStatus)
}

// The mirror interleaving: the leaver's shutdown runs first, then the join
// re-creates the room and must bring a fresh relay up with it.
func TestHub_RelayRestartsAfterFullShutdown(t *testing.T) {
	t.Parallel()

	h := newRelayTestHub(t)
	boardID := uuid.New()
	a := newSession(uuid.New(), "a")
	b := newSession(uuid.New(), "b")

	require.True(t, h.registry.Join(boardID, a))
	h.startRelay(boardID)

	require.True(t, h.registry.Leave(boardID, a))
	h.stopRelay(boardID)
	require.False(t, h.relayAlive(boardID))

	require.True(t, h.registry.Join(boardID, b))
	h.startRelay(boardID)
	require.True(t, h.relayAlive(boardID))

	ev, err := NewEvent(EventStatus, boardID, StatusPayload{Message: "ping"})
	require.NoError(t, err)
	h.publish(context.Background(), boardID, uuid.Nil, false, ev)

	expectDelivery(t, b, EventStatus)
}

func TestHub_StopRelayTearsDownEmptyRoom(t *testing.T) {
	t.Parallel()

	h := newRelayTestHub(t)
	boardID := uuid.New()
	a := newSession(uuid.New(), "a")

	require.True(t, h.registry.Join(boardID, a))
	h.startRelay(boardID)

	require.True(t, h.registry.Leave(boardID, a))
	h.stopRelay(boardID)
	assert.False(t, h.relayAlive(boardID))
}
