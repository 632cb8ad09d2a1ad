package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := New(path)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Record(Event{RequestID: "req-1", Type: EventPIIDeflected, Rule: "digit_run"}))
	require.NoError(t, l.Record(Event{RequestID: "req-2", Type: EventComplianceRewrite, Notes: []string{"removed_unproven_lock_claim"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "req-1", first.RequestID)
	assert.Equal(t, EventPIIDeflected, first.Type)
	assert.NotEmpty(t, first.Timestamp)
}

// Free-text detail is masked before it reaches disk.
func TestRecordMasksDetail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := New(path)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Record(Event{
		RequestID: "req-3",
		Type:      EventProviderFailure,
		Detail:    "query mentioned account 1234567890",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "1234567890")
}

func TestNilLoggerIsNoOp(t *testing.T) {
	var l *Logger
	assert.NoError(t, l.Record(Event{RequestID: "req-4", Type: EventPIIDeflected}))
	assert.NoError(t, l.Close())
}
