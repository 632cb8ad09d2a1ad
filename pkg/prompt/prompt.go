// Package prompt composes the instruction set sent to the model: static
// system policy, intent-specific rules, context blocks, sanitized history and
// the current query. Prompts are built fresh per request and never cached.
package prompt

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/fingate/bankassist/pkg/accounts"
	"github.com/fingate/bankassist/pkg/intent"
	"github.com/fingate/bankassist/pkg/kb"
	"github.com/fingate/bankassist/pkg/llm"
)

// SystemInstruction is the static policy prepended to every prompt.
const SystemInstruction = `You are a secure internal banking assistant.
You must ALWAYS:
- Protect customer privacy. NEVER reveal, request, or infer PII (account numbers, card numbers, CVV, OTP, PAN, IFSC, UPI, Aadhaar, phone, email).
- Follow least-privilege: use only the masked context provided; do not assume hidden data.
- Be formal, precise, concise, and action-oriented. Prefer stepwise troubleshooting checklists.
- If the user shares possible PII, warn once and refuse to process it.

Critical anti-hallucination rules:
- Do NOT invent balances, fees, rates, limits, or policy details.
- Do NOT claim the customer account is locked/blocked or credentials are wrong UNLESS:
  (a) the user explicitly said so in this conversation, OR
  (b) the provided masked context explicitly confirms it (e.g., netbanking_status='LOCKED').
- If information is missing from the provided context, say you don't know and propose the safest next step.

Domain scope:
- Banking troubleshooting (NetBanking/Mobile), generic product/FAQ guidance.
- Compliance with bank security policy at all times.`

// DeclineSentence is what the model must reply when the knowledge context
// cannot answer a knowledge query.
const DeclineSentence = `I don't have enough information from the bank's knowledge base to answer that.`

// Size caps keep the prompt bounded regardless of corpus or history growth.
const (
	maxContextJSON   = 1200
	maxSnippetChars  = 800
	maxKnowledgeChar = 1800
)

// Intent-specific rule blocks appended to the system instruction.
var intentRules = map[intent.Intent]string{
	intent.Knowledge: "For this request, you MUST answer ONLY using the 'Knowledge Context' provided below. " +
		"If the Knowledge Context does not contain the answer, reply exactly once: " +
		`"` + DeclineSentence + `" ` +
		"Then suggest a safe next step. Do NOT use outside knowledge; do NOT guess.",
	intent.Feature: "This is a post-login feature issue. Blend the following sources in order:\n" +
		"1) Masked account context -> treat as ground truth facts.\n" +
		"2) Knowledge Context (if present) -> use for troubleshooting steps and safe procedures.\n" +
		"Rules: Do NOT assert lock/blocked/credential errors under any circumstances. " +
		"If facts are insufficient, ask for non-PII clarifications and propose safe next steps.",
	intent.Login: "This is an authentication/access issue. If the masked account context indicates LOCKED or a FAILED reason code, " +
		"explain unblocking steps safely; otherwise do not assert any lock or credential problem and ask for non-PII clarifications.",
}

// Build assembles the full message sequence for one request. Absent context
// sources are omitted, never replaced with fabricated placeholders; the one
// exception is the explicit [NONE] knowledge block that forces a grounded
// decline on empty retrieval.
func Build(it intent.Intent, snippets []kb.Snippet, account accounts.Context, history []llm.Message, query string) []llm.Message {
	var messages []llm.Message

	system := SystemInstruction
	if rules, ok := intentRules[it]; ok {
		system += "\n\nContext-specific rules:\n- " + rules
	}
	messages = append(messages, llm.System(system))

	if account != nil {
		messages = append(messages, llm.User("Masked account context (non-PII JSON): "+contextJSON(account)))
	}

	if block := knowledgeBlock(snippets); block != "" {
		switch it {
		case intent.Knowledge:
			messages = append(messages, llm.User("Knowledge Context (use ONLY this context to answer):\n"+block))
		case intent.Feature:
			messages = append(messages, llm.User("Knowledge Context (troubleshooting procedures):\n"+block))
		default:
			messages = append(messages, llm.User("Knowledge Context (reference if relevant):\n"+block))
		}
	} else if it == intent.Knowledge {
		messages = append(messages, llm.User(
			"Knowledge Context: [NONE]\n"+
				"You must state that you don't have enough information from the bank's knowledge base to answer."))
	}

	messages = append(messages, history...)
	messages = append(messages, llm.User(strings.TrimSpace(query)))

	return messages
}

// contextJSON renders the account context fields as compact JSON. Keys are
// sorted by encoding/json, which keeps prompts deterministic for identical
// input.
func contextJSON(account accounts.Context) string {
	data, err := json.Marshal(account.Fields())
	if err != nil {
		return "{}"
	}
	return truncate(string(data), maxContextJSON)
}

// knowledgeBlock formats snippets as "- [source] text" lines, capped per
// snippet and overall.
func knowledgeBlock(snippets []kb.Snippet) string {
	if len(snippets) == 0 {
		return ""
	}
	var lines []string
	for _, sn := range snippets {
		text := strings.TrimSpace(strings.ReplaceAll(sn.Text, "\r\n", "\n"))
		if text == "" {
			continue
		}
		if len(text) > maxSnippetChars {
			text = truncate(text, maxSnippetChars) + " ..."
		}
		lines = append(lines, "- ["+sn.Source+"] "+text)
	}
	return truncate(strings.Join(lines, "\n"), maxKnowledgeChar)
}

// truncate cuts s to at most limit bytes, backing off to a rune boundary so
// the result stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
