// Package pipeline sequences the request lifecycle of the assistant:
//
//	received -> pii_checked -> (deflected | intent_classified) ->
//	context_fetched -> prompted -> generated -> compliance_checked -> responded
//
// Each stage is a function consuming the previous stage's result type, so a
// later gate cannot be reached without passing every earlier one. The
// orchestrator holds no per-request state beyond the stage values; concurrent
// requests share only read-only configuration and collaborators.
package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fingate/bankassist/pkg/accounts"
	"github.com/fingate/bankassist/pkg/audit"
	"github.com/fingate/bankassist/pkg/compliance"
	"github.com/fingate/bankassist/pkg/intent"
	"github.com/fingate/bankassist/pkg/kb"
	"github.com/fingate/bankassist/pkg/llm"
	"github.com/fingate/bankassist/pkg/pii"
	"github.com/fingate/bankassist/pkg/prompt"
)

// DeflectionMessage is the fixed response for PII-bearing input. The request
// never reaches retrieval, the account system, or the model.
const DeflectionMessage = "For your security, please don't share account/card numbers, CVV, OTP, UPI IDs, PAN, IFSC or phone numbers here. " +
	"I can guide you with general troubleshooting or connect you to secure support channels."

// Request is the envelope consumed by the pipeline. Identity is assumed to be
// verified by the caller; session and customer identifiers are opaque here.
type Request struct {
	SessionID  string `json:"session_id"`
	CustomerID string `json:"customer_id"`
	Query      string `json:"query"`
	History    []Turn `json:"history,omitempty"`
}

// Response is the only artifact returned to the caller. It is constructed
// fresh per request and never mutated afterwards.
type Response struct {
	RequestID string        `json:"request_id"`
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	Intent    intent.Intent `json:"intent"`
	RAGUsed   bool          `json:"rag_used"`
	Sources   []string      `json:"sources"`
}

// Orchestrator wires the gates together. All collaborator calls carry bounded
// timeouts owned by the collaborator wrappers.
type Orchestrator struct {
	retriever      *kb.Retriever
	fetcher        *accounts.Fetcher
	gateway        *llm.Gateway
	auditor        *audit.Logger
	logger         *zap.Logger
	loginRetrieval bool
}

// NewOrchestrator builds the pipeline. auditor may be nil to disable the JSONL
// audit trail (events still reach the structured log).
func NewOrchestrator(retriever *kb.Retriever, fetcher *accounts.Fetcher, gateway *llm.Gateway,
	auditor *audit.Logger, logger *zap.Logger, loginRetrieval bool) *Orchestrator {
	return &Orchestrator{
		retriever:      retriever,
		fetcher:        fetcher,
		gateway:        gateway,
		auditor:        auditor,
		logger:         logger,
		loginRetrieval: loginRetrieval,
	}
}

// Stage values. Each embeds its predecessor; stage functions are the only
// constructors, which makes skipping a gate a compile-time impossibility.
type received struct {
	id  string
	req *Request
}

type piiChecked struct{ received }

type classified struct {
	piiChecked
	intent  intent.Intent
	history []llm.Message
}

type contextFetched struct {
	classified
	snippets []kb.Snippet
	account  accounts.Context
}

type prompted struct {
	contextFetched
	messages []llm.Message
}

type generated struct {
	prompted
	raw      string
	degraded bool
}

// Handle runs one request through every gate and assembles the envelope.
func (o *Orchestrator) Handle(ctx context.Context, req *Request) Response {
	rcv := received{id: newRequestID(), req: req}

	checked, deflected := o.gatePII(rcv)
	if deflected != nil {
		return *deflected
	}

	cls := o.classify(*checked)
	fetched := o.fetchContext(ctx, cls)
	p := o.buildPrompt(fetched)
	gen := o.generate(ctx, p)
	return o.enforceAndRespond(gen)
}

// gatePII is gate 1. On detection the request short-circuits: the deflection
// response is terminal and nothing downstream runs.
func (o *Orchestrator) gatePII(rcv received) (*piiChecked, *Response) {
	rule := pii.Match(rcv.req.Query)
	if rule == "" {
		return &piiChecked{rcv}, nil
	}

	o.logger.Info("pii detected in input, request deflected",
		zap.String("request_id", rcv.id),
		zap.String("rule", rule),
	)
	if err := o.auditor.Record(audit.Event{
		RequestID: rcv.id,
		SessionID: rcv.req.SessionID,
		Type:      audit.EventPIIDeflected,
		Rule:      rule,
	}); err != nil {
		o.logger.Warn("failed to record audit event", zap.Error(err))
	}

	return nil, &Response{
		RequestID: rcv.id,
		Status:    "ok",
		Message:   DeflectionMessage,
		Intent:    intent.Deflected,
		Sources:   []string{},
	}
}

func (o *Orchestrator) classify(checked piiChecked) classified {
	it := intent.Classify(checked.req.Query)
	o.logger.Debug("intent classified",
		zap.String("request_id", checked.id),
		zap.String("intent", string(it)),
	)
	return classified{
		piiChecked: checked,
		intent:     it,
		history:    sanitizeHistory(checked.req.History, it),
	}
}

// fetchContext issues the intent-dependent collaborator calls. Retrieval and
// the account lookup are independent, so when both apply they run
// concurrently and join here. Both fail open.
func (o *Orchestrator) fetchContext(ctx context.Context, cls classified) contextFetched {
	wantRetrieval := cls.intent == intent.Knowledge || cls.intent == intent.Feature ||
		(cls.intent == intent.Login && o.loginRetrieval)
	wantAccount := cls.intent != intent.Knowledge

	var (
		wg       sync.WaitGroup
		snippets []kb.Snippet
		account  accounts.Context
	)

	if wantRetrieval {
		query := cls.req.Query
		if cls.intent == intent.Feature {
			query = kb.FeatureHint(query)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			snippets = o.retriever.Retrieve(ctx, query)
		}()
	}
	if wantAccount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			account = o.fetcher.Fetch(ctx, cls.req.CustomerID, cls.req.Query, cls.intent)
		}()
	}
	wg.Wait()

	o.logger.Debug("context assembled",
		zap.String("request_id", cls.id),
		zap.Int("snippets", len(snippets)),
		zap.Bool("account_context", account != nil),
		zap.Int("history_turns", len(cls.history)),
	)
	return contextFetched{classified: cls, snippets: snippets, account: account}
}

func (o *Orchestrator) buildPrompt(fetched contextFetched) prompted {
	messages := prompt.Build(fetched.intent, fetched.snippets, fetched.account, fetched.history, fetched.req.Query)
	return prompted{contextFetched: fetched, messages: messages}
}

// generate calls the model gateway. A provider failure degrades to the
// gateway's safe fallback text; the response is marked degraded, not failed.
func (o *Orchestrator) generate(ctx context.Context, p prompted) generated {
	raw, err := o.gateway.Generate(ctx, p.messages)
	if err != nil {
		if aerr := o.auditor.Record(audit.Event{
			RequestID: p.id,
			SessionID: p.req.SessionID,
			Type:      audit.EventProviderFailure,
			Intent:    string(p.intent),
		}); aerr != nil {
			o.logger.Warn("failed to record audit event", zap.Error(aerr))
		}
	}
	return generated{prompted: p, raw: raw, degraded: err != nil}
}

// enforceAndRespond is the last gate: the compliance guardrail runs on every
// response regardless of earlier outcomes, then the envelope is assembled.
func (o *Orchestrator) enforceAndRespond(gen generated) Response {
	final, notes := compliance.Enforce(gen.raw, gen.intent, gen.account)
	if len(notes) > 0 {
		o.logger.Warn("guardrail rewrote model output",
			zap.String("request_id", gen.id),
			zap.String("intent", string(gen.intent)),
			zap.Strings("notes", notes),
		)
		if err := o.auditor.Record(audit.Event{
			RequestID: gen.id,
			SessionID: gen.req.SessionID,
			Type:      audit.EventComplianceRewrite,
			Intent:    string(gen.intent),
			Notes:     notes,
		}); err != nil {
			o.logger.Warn("failed to record audit event", zap.Error(err))
		}
	}

	sources := make([]string, 0, len(gen.snippets))
	for _, sn := range gen.snippets {
		if sn.Source != "" {
			sources = append(sources, sn.Source)
		}
	}

	status := "ok"
	if gen.degraded {
		status = "error"
	}
	return Response{
		RequestID: gen.id,
		Status:    status,
		Message:   final,
		Intent:    gen.intent,
		RAGUsed:   len(gen.snippets) > 0,
		Sources:   sources,
	}
}

func newRequestID() string {
	return "req-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
