package boardsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// WhiteboardState is the whiteboard sync lifecycle.
type WhiteboardState int

const (
	WhiteboardUnloaded WhiteboardState = iota
	WhiteboardLoading
	WhiteboardSynced
)

// snapshotAPI is the slice of the REST client the whiteboard needs.
// *Client satisfies it.
type snapshotAPI interface {
	Board(ctx context.Context, boardID uuid.UUID) (*BoardDetail, error)
	SaveWhiteboard(ctx context.Context, boardID uuid.UUID, snapshot json.RawMessage) error
}

// sceneSender broadcasts live snapshots to the room. *Channel satisfies it.
type sceneSender interface {
	SendWhiteboard(ctx context.Context, boardID uuid.UUID, scene json.RawMessage) error
}

// WhiteboardSync keeps one board's canvas in step with the room. The scene
// is opaque: every update, local or remote, replaces it wholesale, and the
// last snapshot applied wins. Broadcast and persistence are independent
// paths: SendWhiteboard is live-only, Save writes to storage.
type WhiteboardSync struct {
	api     snapshotAPI
	sender  sceneSender
	boardID uuid.UUID

	mu    sync.Mutex
	state WhiteboardState
	scene json.RawMessage
}

func NewWhiteboardSync(api snapshotAPI, sender sceneSender, boardID uuid.UUID) *WhiteboardSync {
	return &WhiteboardSync{
		api:     api,
		sender:  sender,
		boardID: boardID,
		state:   WhiteboardUnloaded,
	}
}

// State returns the sync lifecycle state.
func (w *WhiteboardSync) State() WhiteboardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Scene returns the current local scene.
func (w *WhiteboardSync) Scene() json.RawMessage {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(json.RawMessage, len(w.scene))
	copy(out, w.scene)
	return out
}

// Load fetches the last-persisted snapshot and applies it. Entering Synced
// is gated on the fetch: a failed load leaves the sync Unloaded.
func (w *WhiteboardSync) Load(ctx context.Context) error {
	w.mu.Lock()
	w.state = WhiteboardLoading
	w.mu.Unlock()

	detail, err := w.api.Board(ctx, w.boardID)
	if err != nil {
		w.mu.Lock()
		w.state = WhiteboardUnloaded
		w.mu.Unlock()
		return fmt.Errorf("boardsdk.WhiteboardSync.Load: %w", err)
	}

	w.mu.Lock()
	w.scene = detail.Board.WhiteboardData
	w.state = WhiteboardSynced
	w.mu.Unlock()
	return nil
}

// LocalEdit applies the user's own full-scene snapshot and broadcasts it to
// the room. The local apply always sticks; a failed broadcast is returned
// but does not roll the scene back, since the user already sees their edit.
func (w *WhiteboardSync) LocalEdit(ctx context.Context, scene json.RawMessage) error {
	// Copy on the way in, mirroring Scene's copy on the way out, so the
	// caller reusing its buffer cannot mutate the stored scene.
	snapshot := make(json.RawMessage, len(scene))
	copy(snapshot, scene)

	w.mu.Lock()
	if w.state != WhiteboardSynced {
		w.mu.Unlock()
		return fmt.Errorf("boardsdk.WhiteboardSync.LocalEdit: whiteboard is not synced")
	}
	w.scene = snapshot
	w.mu.Unlock()

	if err := w.sender.SendWhiteboard(ctx, w.boardID, snapshot); err != nil {
		return fmt.Errorf("boardsdk.WhiteboardSync.LocalEdit: %w", err)
	}
	return nil
}

// HandleRemote replaces the local scene wholesale with a snapshot received
// from the room. Applied in arrival order; no merge.
func (w *WhiteboardSync) HandleRemote(scene json.RawMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != WhiteboardSynced {
		return
	}
	w.scene = scene
}

// Save persists the current local scene. A failed save keeps the
// last-known-good local scene in place; the caller retries by saving again.
func (w *WhiteboardSync) Save(ctx context.Context) error {
	w.mu.Lock()
	if w.state != WhiteboardSynced {
		w.mu.Unlock()
		return fmt.Errorf("boardsdk.WhiteboardSync.Save: whiteboard is not synced")
	}
	scene := w.scene
	w.mu.Unlock()

	if err := w.api.SaveWhiteboard(ctx, w.boardID, scene); err != nil {
		return fmt.Errorf("boardsdk.WhiteboardSync.Save: %w", err)
	}
	return nil
}
