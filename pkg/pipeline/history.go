package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fingate/bankassist/pkg/intent"
	"github.com/fingate/bankassist/pkg/llm"
	"github.com/fingate/bankassist/pkg/pii"
)

// Turn is one prior conversation turn supplied by the caller. History is
// request-scoped: nothing is persisted between requests.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	maxHistoryTurns = 8
	maxTurnChars    = 800
)

var (
	lockClaims = regexp.MustCompile(`(?i)\b(locked|blocked|suspended|disabled)\b`)
	credClaims = regexp.MustCompile(`(?i)\b(wrong|invalid|incorrect)\s+(password|credentials|otp)\b`)
)

// sanitizeHistory filters prior turns before they can reach a prompt:
//
//   - turns containing PII are dropped outright, whatever their role;
//   - for the feature intent only, turns asserting lock/blocked/credential
//     failure are dropped too, including the assistant's own earlier output,
//     so the model cannot be primed by a prior hallucination;
//   - retained turns keep their relative order, are masked defensively, and
//     only the most recent ones are carried.
func sanitizeHistory(history []Turn, it intent.Intent) []llm.Message {
	var out []llm.Message
	for _, t := range history {
		role := strings.ToLower(strings.TrimSpace(t.Role))
		if role != llm.RoleAssistant {
			role = llm.RoleUser
		}
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		if pii.Detect(content) {
			continue
		}
		if it == intent.Feature && (lockClaims.MatchString(content) || credClaims.MatchString(content)) {
			continue
		}
		if len(content) > maxTurnChars {
			content = truncateTurn(content, maxTurnChars) + " ..."
		}
		out = append(out, llm.Message{Role: role, Content: pii.Mask(content)})
	}
	if len(out) > maxHistoryTurns {
		out = out[len(out)-maxHistoryTurns:]
	}
	return out
}

// truncateTurn cuts content to at most limit bytes on a rune boundary so a
// multi-byte character is never split.
func truncateTurn(content string, limit int) string {
	if len(content) <= limit {
		return content
	}
	for limit > 0 && !utf8.RuneStart(content[limit]) {
		limit--
	}
	return content[:limit]
}
