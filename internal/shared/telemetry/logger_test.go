package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })

	Warn("handoff load failed", map[string]any{
		"session": "s1",
		"err":     errors.New("boom"),
		"level":   "spoofed",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "handoff load failed", entry["msg"])
	require.Equal(t, "s1", entry["session"])
	require.Equal(t, "boom", entry["err"])
	require.NotEmpty(t, entry["ts"])
}
