package wizard

import (
	"context"
	"errors"
	"strings"
	"time"
)

// HandoffKey is the fixed slot name. Each session owns exactly one slot.
const HandoffKey = "resume-form-data"

// DefaultHandoffTTL bounds how long a suspended wizard waits for sign-in.
const DefaultHandoffTTL = 30 * time.Minute

// KV is the single-slot store behind the handoff. Take must read and remove
// the value in one step.
type KV interface {
	Put(ctx context.Context, key string, value []byte) error
	Take(ctx context.Context, key string) (value []byte, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Handoff carries one snapshot across an identity-provider redirect: Save
// before leaving, LoadOnce on the next mount.
type Handoff struct {
	kv  KV
	ttl time.Duration
	now func() time.Time
}

// NewHandoff wraps kv. A non-positive ttl uses DefaultHandoffTTL.
func NewHandoff(kv KV, ttl time.Duration) *Handoff {
	if ttl <= 0 {
		ttl = DefaultHandoffTTL
	}
	return &Handoff{kv: kv, ttl: ttl, now: time.Now}
}

// Save writes snap into the session's slot, replacing any previous snapshot.
func (h *Handoff) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	key, err := slotKey(sessionID)
	if err != nil {
		return err
	}
	snap.Version = SnapshotVersion
	snap.SavedAt = h.now().UTC()
	data, err := encodeSnapshot(snap)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := h.kv.Put(ctx, key, data); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// LoadOnce takes the session's snapshot out of its slot. A second call
// returns ok=false. Expired snapshots are dropped and reported as absent.
func (h *Handoff) LoadOnce(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	key, err := slotKey(sessionID)
	if err != nil {
		return Snapshot{}, false, err
	}
	data, ok, err := h.kv.Take(ctx, key)
	if err != nil {
		return Snapshot{}, false, &StorageError{Op: "load", Key: key, Err: err}
	}
	if !ok {
		return Snapshot{}, false, nil
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return Snapshot{}, false, &StorageError{Op: "decode", Key: key, Err: err}
	}
	if !snap.SavedAt.IsZero() && h.now().Sub(snap.SavedAt) > h.ttl {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Clear empties the session's slot.
func (h *Handoff) Clear(ctx context.Context, sessionID string) error {
	key, err := slotKey(sessionID)
	if err != nil {
		return err
	}
	if err := h.kv.Delete(ctx, key); err != nil {
		return &StorageError{Op: "clear", Key: key, Err: err}
	}
	return nil
}

func slotKey(sessionID string) (string, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	return HandoffKey + ":" + sessionID, nil
}

// ValidateSessionID rejects ids that are empty, too long or not printable ASCII.
func ValidateSessionID(sessionID string) error {
	if sessionID == "" || len(sessionID) > 128 {
		return ErrInvalidSession
	}
	if strings.IndexFunc(sessionID, func(r rune) bool { return r <= ' ' || r > '~' }) >= 0 {
		return ErrInvalidSession
	}
	return nil
}

// IsStorageError reports whether err came from the handoff store.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
