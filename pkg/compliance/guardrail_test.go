package compliance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fingate/bankassist/pkg/accounts"
	"github.com/fingate/bankassist/pkg/intent"
)

func TestEnforceFeatureStripsLockClaimsUnconditionally(t *testing.T) {
	raw := "It seems your account is blocked. Please visit a branch."
	final, notes := Enforce(raw, intent.Feature, &accounts.FeatureContext{Feature: "balance_enquiry"})

	assert.NotContains(t, final, "blocked")
	assert.Contains(t, final, "can't confirm your account status")
	require.Len(t, notes, 1)
	assert.Equal(t, NoteUnprovenLock, notes[0])
}

func TestEnforceLoginKeepsConfirmedLockClaim(t *testing.T) {
	account := &accounts.LoginContext{Status: accounts.StatusLocked, ReasonCode: "FAILED_OTP_3"}
	raw := "Your account is locked after repeated OTP failures. Here is how to unlock it."
	final, notes := Enforce(raw, intent.Login, account)

	assert.Equal(t, raw, final)
	assert.Empty(t, notes)
}

func TestEnforceLoginRewritesUnprovenLockClaim(t *testing.T) {
	for _, status := range []accounts.Status{accounts.StatusActive, accounts.StatusUnknown} {
		account := &accounts.LoginContext{Status: status}
		final, notes := Enforce("Your account is locked.", intent.Login, account)

		assert.NotContains(t, final, "locked", "status=%s", status)
		assert.Contains(t, notes, NoteUnprovenLock, "status=%s", status)
	}
}

func TestEnforceRewritesCredentialClaims(t *testing.T) {
	account := &accounts.LoginContext{Status: accounts.StatusActive}
	final, notes := Enforce("You entered an invalid password three times.", intent.Login, account)

	assert.NotContains(t, final, "invalid password")
	assert.Contains(t, final, "can't confirm a credential issue")
	assert.Contains(t, notes, NoteUnprovenCredential)
}

func TestEnforceNoClaimsNoChange(t *testing.T) {
	raw := "To check your balance, open the accounts tab and select the account."
	final, notes := Enforce(raw, intent.Feature, &accounts.FeatureContext{})
	assert.Equal(t, raw, final)
	assert.Empty(t, notes)
}

func TestEnforceEmptyInput(t *testing.T) {
	final, notes := Enforce("", intent.Knowledge, nil)
	assert.Equal(t, "", final)
	assert.Empty(t, notes)
}

// Knowledge and generic flows have no evidence channel, so claims are always
// rewritten there.
func TestEnforceWithoutLoginContextAlwaysBlocks(t *testing.T) {
	final, notes := Enforce("Your account is suspended.", intent.Knowledge, nil)
	assert.NotContains(t, final, "suspended")
	assert.NotEmpty(t, notes)

	final, notes = Enforce("Your account is disabled.", intent.Transactional, &accounts.GenericContext{})
	assert.NotContains(t, final, "disabled")
	assert.NotEmpty(t, notes)
}

func TestEnforceAppendsClarificationOnce(t *testing.T) {
	final, _ := Enforce("Account is locked. Also your account is blocked.", intent.Feature, nil)
	assert.Equal(t, 1, strings.Count(final, "we avoid asserting lock/credential issues"))
}

// Identical input produces identical output and notes on repeated runs.
func TestEnforceIdempotentAcrossRuns(t *testing.T) {
	account := &accounts.LoginContext{Status: accounts.StatusUnknown}
	first, firstNotes := Enforce("Your account is locked.", intent.Login, account)
	for i := 0; i < 5; i++ {
		out, notes := Enforce("Your account is locked.", intent.Login, account)
		assert.Equal(t, first, out)
		assert.Equal(t, firstNotes, notes)
	}
}
