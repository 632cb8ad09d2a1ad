// Package compliance is the last gate of the pipeline: it scans raw model
// output for lock/blocked/invalid-credential assertions and rewrites any claim
// the account-of-record did not explicitly confirm. It runs unconditionally on
// every response.
package compliance

import (
	"regexp"
	"strings"

	"github.com/fingate/bankassist/pkg/accounts"
	"github.com/fingate/bankassist/pkg/intent"
)

// Audit note identifiers recorded for every rewrite.
const (
	NoteUnprovenLock       = "removed_unproven_lock_claim"
	NoteUnprovenCredential = "removed_unproven_credential_claim"
)

var (
	lockPhrases = regexp.MustCompile(`(?i)\b(account\s+is\s+)?(locked|blocked|suspended|disabled)\b`)
	credPhrases = regexp.MustCompile(`(?i)\b(wrong|invalid|incorrect)\s+(password|credentials|otp)\b`)
)

const (
	lockRewrite = "we can't confirm your account status from the available information"
	credRewrite = "we can't confirm a credential issue based on current information"

	clarificationTail = "\n\nNote: Based on the current context, we avoid asserting lock/credential issues without " +
		"explicit confirmation. If you can share the exact on-screen error message (no PII), " +
		"I can guide you with precise next steps."
)

// Enforce applies the rewrite policy and returns the final text plus the audit
// notes for every rewrite performed. Feature-intent claims are rewritten
// unconditionally; login-intent claims survive only when the account context
// explicitly confirms the state; every other intent has no evidence channel,
// so claims are always rewritten.
func Enforce(raw string, it intent.Intent, account accounts.Context) (string, []string) {
	if strings.TrimSpace(raw) == "" {
		return raw, nil
	}
	if !mustBlock(it, account) {
		return raw, nil
	}

	var notes []string
	rewritten := raw

	if lockPhrases.MatchString(rewritten) {
		rewritten = lockPhrases.ReplaceAllString(rewritten, lockRewrite)
		notes = append(notes, NoteUnprovenLock)
	}
	if credPhrases.MatchString(rewritten) {
		rewritten = credPhrases.ReplaceAllString(rewritten, credRewrite)
		notes = append(notes, NoteUnprovenCredential)
	}

	if len(notes) > 0 && !strings.Contains(rewritten, strings.TrimSpace(clarificationTail)) {
		rewritten = strings.TrimRight(rewritten, " \n\t") + clarificationTail
	}
	return rewritten, notes
}

// mustBlock decides whether unproven claims have to be rewritten. Only a login
// context can carry evidence; the feature and generic context types exclude
// lock fields by construction, so for them this is always true.
func mustBlock(it intent.Intent, account accounts.Context) bool {
	if it == intent.Feature {
		return true
	}
	if login, ok := account.(*accounts.LoginContext); ok {
		return !login.ConfirmsLock()
	}
	return true
}
