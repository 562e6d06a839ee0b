package ws

import (
	"sync"

	"github.com/google/uuid"
)

// Registry maps board IDs to the set of sessions currently viewing them.
// It is a pure routing table: no event is recorded, so nothing can be
// replayed. Rooms are created lazily on first join and removed when the last
// member leaves. All methods are safe for concurrent use; the single mutex
// guarantees join/leave/deliver never observe a torn membership set.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[uuid.UUID]*Session // boardID -> connID -> session
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[uuid.UUID]map[uuid.UUID]*Session)}
}

// Join adds s to boardID's room. Re-joining a room the session already
// belongs to is a no-op. Returns true when this join created the room.
func (r *Registry) Join(boardID uuid.UUID, s *Session) (created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[boardID]
	if !ok {
		room = make(map[uuid.UUID]*Session)
		r.rooms[boardID] = room
		created = true
	}
	room[s.ConnID] = s

	return created
}

// Leave removes s from boardID's room. Returns true when the room became
// empty and was garbage-collected.
func (r *Registry) Leave(boardID uuid.UUID, s *Session) (emptied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.leaveLocked(boardID, s)
}

func (r *Registry) leaveLocked(boardID uuid.UUID, s *Session) bool {
	room, ok := r.rooms[boardID]
	if !ok {
		return false
	}

	delete(room, s.ConnID)
	if len(room) == 0 {
		delete(r.rooms, boardID)
		return true
	}

	return false
}

// RemoveSession removes s from every room it is a member of. Cleanup is
// unconditional so a dead connection can never linger in a membership set.
// Returns the boards whose rooms became empty.
func (r *Registry) RemoveSession(s *Session) (emptied []uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for boardID, room := range r.rooms {
		if _, ok := room[s.ConnID]; !ok {
			continue
		}
		if r.leaveLocked(boardID, s) {
			emptied = append(emptied, boardID)
		}
	}

	return emptied
}

// Member reports whether s is currently in boardID's room.
func (r *Registry) Member(boardID uuid.UUID, s *Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[boardID][s.ConnID]
	return ok
}

// MemberCount returns the current size of boardID's room.
func (r *Registry) MemberCount(boardID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[boardID])
}

// Deliver queues msg for every member of boardID's room. When excludeOrigin
// is set, the session whose connection ID equals origin is skipped: senders
// apply their own mutation locally and do not wait for an echo. Returns the
// number of sessions the message was queued for.
func (r *Registry) Deliver(boardID, origin uuid.UUID, excludeOrigin bool, msg []byte) int {
	r.mu.RLock()
	members := make([]*Session, 0, len(r.rooms[boardID]))
	for _, s := range r.rooms[boardID] {
		if excludeOrigin && s.ConnID == origin {
			continue
		}
		members = append(members, s)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, s := range members {
		if s.trySend(msg) {
			delivered++
		}
	}

	return delivered
}
