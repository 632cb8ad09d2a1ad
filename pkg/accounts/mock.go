package accounts

import (
	"context"
	"errors"
	"time"
)

// MockCBS simulates the core banking system for local runs and tests. The
// zero value reports an active, unlocked account.
type MockCBS struct {
	Locked bool          // report the account as locked
	Fail   bool          // simulate collaborator unavailability
	Delay  time.Duration // simulate collaborator latency
}

var errCBSUnavailable = errors.New("cbs unavailable")

func (m *MockCBS) GetStatus(ctx context.Context, customerID string) (StatusRecord, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return StatusRecord{}, ctx.Err()
		}
	}
	if m.Fail {
		return StatusRecord{}, errCBSUnavailable
	}
	if m.Locked {
		return StatusRecord{
			MaskedAccount:   "XXXXXX1234",
			Status:          StatusLocked,
			ReasonCode:      "FAILED_OTP_3",
			LastFailedLogin: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}
	return StatusRecord{
		MaskedAccount: "XXXXXX1234",
		Status:        StatusActive,
	}, nil
}
