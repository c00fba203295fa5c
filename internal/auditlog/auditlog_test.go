package auditlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitAppendsJSONLines(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.json")
	w := New(target)

	w.Emit(Entry{Event: EventAcquired, Target: target, PID: 1, Host: "h"})
	w.Emit(Entry{Event: EventReleased, Target: target, PID: 1, Host: "h"})

	f, err := os.Open(target + ".audit.log")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var events []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e.Event)
	}
	assert.Equal(t, []string{EventAcquired, EventReleased}, events)
}

func TestEmitOnNilWriterIsNoop(t *testing.T) {
	var w *Writer
	assert.NotPanics(t, func() { w.Emit(Entry{Event: EventAcquired}) })
}
