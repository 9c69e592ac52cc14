package wizard

import (
	"encoding/json"
	"fmt"
	"time"

	"resume-builder/internal/form"
)

// SnapshotVersion is the handoff payload format written by this build.
const SnapshotVersion = 1

// Snapshot is a serializable copy of the form state taken before an
// identity-provider redirect.
type Snapshot struct {
	Version int        `json:"version"`
	SavedAt time.Time  `json:"savedAt"`
	State   form.State `json:"state"`
}

func encodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	return s, nil
}
