// Package audit writes compliance-relevant pipeline events as JSON lines for
// downstream tooling. Events are masked before they touch disk, so the audit
// trail itself can never become a PII store.
package audit

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/fingate/bankassist/pkg/pii"
)

// Event types observable at the boundary.
const (
	EventPIIDeflected      = "pii_deflected"
	EventComplianceRewrite = "compliance_rewrite"
	EventProviderFailure   = "provider_failure"
)

// Event is one audit record. Detail carries free text and is masked on write.
type Event struct {
	Timestamp string   `json:"timestamp"`
	RequestID string   `json:"request_id"`
	SessionID string   `json:"session_id,omitempty"`
	Type      string   `json:"type"`
	Intent    string   `json:"intent,omitempty"`
	Rule      string   `json:"rule,omitempty"`
	Notes     []string `json:"notes,omitempty"`
	Detail    string   `json:"detail,omitempty"`
}

// Logger appends events to a JSONL file. A nil *Logger is a valid no-op sink.
type Logger struct {
	file *os.File
	mu   sync.Mutex
}

func New(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &Logger{file: file}, nil
}

func (l *Logger) Record(event Event) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if event.Detail != "" {
		event.Detail = pii.Mask(event.Detail)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = l.file.Write(data)
	return err
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
