package ws

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain empties a session's send queue, returning the queued messages.
func drain(s *Session) [][]byte {
	var msgs [][]byte
	for {
		select {
		case msg := <-s.send:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func TestRegistry_JoinIdempotent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	boardID := uuid.New()
	s := newSession(uuid.New(), "alice")

	created := r.Join(boardID, s)
	assert.True(t, created, "first join creates the room")
	assert.Equal(t, 1, r.MemberCount(boardID))

	// Re-joining the same room never grows membership.
	for range 3 {
		created = r.Join(boardID, s)
		assert.False(t, created)
		assert.Equal(t, 1, r.MemberCount(boardID))
	}
}

func TestRegistry_DeliverExcludesOrigin(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	boardID := uuid.New()

	sender := newSession(uuid.New(), "alice")
	receiverA := newSession(uuid.New(), "bob")
	receiverB := newSession(uuid.New(), "carol")

	r.Join(boardID, sender)
	r.Join(boardID, receiverA)
	r.Join(boardID, receiverB)

	delivered := r.Deliver(boardID, sender.ConnID, true, []byte("snapshot"))
	assert.Equal(t, 2, delivered)

	assert.Empty(t, drain(sender), "originator must not receive its own event")
	require.Len(t, drain(receiverA), 1)
	require.Len(t, drain(receiverB), 1)
}

func TestRegistry_DeliverIncludesOriginWhenNotExcluded(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	boardID := uuid.New()

	sender := newSession(uuid.New(), "alice")
	receiver := newSession(uuid.New(), "bob")

	r.Join(boardID, sender)
	r.Join(boardID, receiver)

	delivered := r.Deliver(boardID, sender.ConnID, false, []byte("chat"))
	assert.Equal(t, 2, delivered)
	assert.Len(t, drain(sender), 1, "chat echo includes the sender")
	assert.Len(t, drain(receiver), 1)
}

func TestRegistry_DeliverExactlyOncePerMember(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	boardID := uuid.New()

	sender := newSession(uuid.New(), "alice")
	receiver := newSession(uuid.New(), "bob")

	r.Join(boardID, sender)
	r.Join(boardID, receiver)
	r.Join(boardID, receiver) // idempotent re-join must not double-deliver

	r.Deliver(boardID, sender.ConnID, true, []byte("evt"))
	assert.Len(t, drain(receiver), 1)
}

func TestRegistry_MemberWhoLeftReceivesNothing(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	boardID := uuid.New()

	sender := newSession(uuid.New(), "alice")
	leaver := newSession(uuid.New(), "bob")
	stayer := newSession(uuid.New(), "carol")

	r.Join(boardID, sender)
	r.Join(boardID, leaver)
	r.Join(boardID, stayer)

	emptied := r.Leave(boardID, leaver)
	assert.False(t, emptied)

	r.Deliver(boardID, sender.ConnID, true, []byte("evt"))
	assert.Empty(t, drain(leaver))
	assert.Len(t, drain(stayer), 1)
}

func TestRegistry_CrossRoomIsolation(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	board7 := uuid.New()
	board8 := uuid.New()

	a := newSession(uuid.New(), "A")
	b := newSession(uuid.New(), "B")
	c := newSession(uuid.New(), "C")

	r.Join(board7, a)
	r.Join(board7, b)
	r.Join(board8, c)

	delivered := r.Deliver(board7, a.ConnID, false, []byte(`{"username":"A","message":"hi"}`))
	assert.Equal(t, 2, delivered)
	assert.Len(t, drain(b), 1, "B on board 7 receives the chat exactly once")
	assert.Empty(t, drain(c), "C on board 8 receives nothing")
}

func TestRegistry_RemoveSessionCleansEveryRoom(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	board1 := uuid.New()
	board2 := uuid.New()

	s := newSession(uuid.New(), "alice")
	other := newSession(uuid.New(), "bob")

	r.Join(board1, s)
	r.Join(board2, s)
	r.Join(board2, other)

	emptied := r.RemoveSession(s)

	// board1 had only this session; board2 keeps the other member.
	assert.Equal(t, []uuid.UUID{board1}, emptied)
	assert.Equal(t, 0, r.MemberCount(board1))
	assert.Equal(t, 1, r.MemberCount(board2))
	assert.False(t, r.Member(board1, s))
	assert.False(t, r.Member(board2, s))
}

func TestRegistry_RoomGarbageCollectedAtZero(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	boardID := uuid.New()
	s := newSession(uuid.New(), "alice")

	r.Join(boardID, s)
	emptied := r.Leave(boardID, s)
	assert.True(t, emptied)
	assert.Equal(t, 0, r.MemberCount(boardID))

	// Leaving a room that no longer exists is harmless.
	assert.False(t, r.Leave(boardID, s))
}

func TestSession_TrySendDropsWhenClosed(t *testing.T) {
	t.Parallel()

	s := newSession(uuid.New(), "alice")
	assert.True(t, s.trySend([]byte("a")))

	s.close()
	s.close() // idempotent
	assert.False(t, s.trySend([]byte("b")))
}

func TestSession_TrySendDropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	s := newSession(uuid.New(), "alice")
	for range sendQueueSize {
		require.True(t, s.trySend([]byte("x")))
	}

	// Queue is full; best-effort delivery drops instead of blocking.
	assert.False(t, s.trySend([]byte("overflow")))
}
