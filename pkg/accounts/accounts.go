// Package accounts is the boundary to the account-of-record system. It turns
// raw status records into intent-scoped context objects: only the login flow
// ever sees lock-related fields, and the feature/generic context types cannot
// carry them at all.
package accounts

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fingate/bankassist/pkg/intent"
)

// Status is the netbanking state reported by the account system.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusLocked  Status = "LOCKED"
	StatusBlocked Status = "BLOCKED"
	// StatusUnknown means the backing system was silent or unavailable.
	// Absence of confirmation must never be rendered as "not locked".
	StatusUnknown Status = "UNKNOWN"
)

// StatusRecord is the raw, already-masked view returned by the account-of-record
// collaborator. Fields may be partial.
type StatusRecord struct {
	MaskedAccount   string
	Status          Status
	ReasonCode      string
	LastFailedLogin string
}

// StatusClient is the external collaborator holding authoritative account state.
type StatusClient interface {
	GetStatus(ctx context.Context, customerID string) (StatusRecord, error)
}

// Context is the intent-scoped, non-PII view handed to prompt building and the
// compliance guardrail. Implementations are the three types below; the
// interface is sealed so no other shape can flow through the pipeline.
type Context interface {
	// Fields returns the key/value view serialized into the prompt context block.
	Fields() map[string]string

	sealed()
}

// LoginContext is the only context shape allowed to carry lock state.
type LoginContext struct {
	MaskedAccount   string
	Status          Status
	ReasonCode      string
	LastFailedLogin string
}

func (c *LoginContext) sealed() {}

func (c *LoginContext) Fields() map[string]string {
	f := map[string]string{
		"masked_account":    c.MaskedAccount,
		"netbanking_status": string(c.Status),
	}
	if c.ReasonCode != "" {
		f["reason_code"] = c.ReasonCode
	}
	if c.LastFailedLogin != "" {
		f["last_failed_login"] = c.LastFailedLogin
	}
	return f
}

// ConfirmsLock reports whether the account system explicitly confirmed a lock
// or a credential failure. UNKNOWN and ACTIVE both return false.
func (c *LoginContext) ConfirmsLock() bool {
	return c.Status == StatusLocked || c.Status == StatusBlocked ||
		strings.HasPrefix(c.ReasonCode, "FAILED_")
}

// FeatureContext describes a post-login feature issue. It has no lock or
// credential fields by construction, so downstream stages cannot surface them.
type FeatureContext struct {
	Feature string
}

func (c *FeatureContext) sealed() {}

func (c *FeatureContext) Fields() map[string]string {
	return map[string]string{"feature": c.Feature}
}

// GenericContext is the minimal benign view for fallback transactional queries.
type GenericContext struct {
	MaskedAccount string
}

func (c *GenericContext) sealed() {}

func (c *GenericContext) Fields() map[string]string {
	f := map[string]string{}
	if c.MaskedAccount != "" {
		f["masked_account"] = c.MaskedAccount
	}
	return f
}

// Fetcher wraps the StatusClient with a bounded timeout and intent scoping.
type Fetcher struct {
	client  StatusClient
	timeout time.Duration
	logger  *zap.Logger
}

func NewFetcher(client StatusClient, timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{client: client, timeout: timeout, logger: logger}
}

// Fetch returns the context view for the given intent. Knowledge queries get
// nil: the account system is never consulted for them. Collaborator failure is
// recovered locally, it surfaces as UNKNOWN status, never as an error.
func (f *Fetcher) Fetch(ctx context.Context, customerID, query string, it intent.Intent) Context {
	switch it {
	case intent.Login:
		rec, err := f.lookup(ctx, customerID)
		if err != nil {
			f.logger.Warn("account lookup failed, status unknown",
				zap.String("customer_id", customerID), zap.Error(err))
			return &LoginContext{Status: StatusUnknown}
		}
		status := rec.Status
		if status == "" {
			status = StatusUnknown
		}
		return &LoginContext{
			MaskedAccount:   rec.MaskedAccount,
			Status:          status,
			ReasonCode:      rec.ReasonCode,
			LastFailedLogin: rec.LastFailedLogin,
		}

	case intent.Feature:
		// No backend call: feature flows must not observe account lock state.
		return &FeatureContext{Feature: featureName(query)}

	case intent.Transactional:
		rec, err := f.lookup(ctx, customerID)
		if err != nil {
			f.logger.Warn("account lookup failed for generic flow",
				zap.String("customer_id", customerID), zap.Error(err))
			return &GenericContext{}
		}
		return &GenericContext{MaskedAccount: rec.MaskedAccount}

	default:
		return nil
	}
}

func (f *Fetcher) lookup(ctx context.Context, customerID string) (StatusRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.client.GetStatus(ctx, customerID)
}

// featureName buckets the query into the coarse feature label included in the
// prompt context.
func featureName(query string) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "balance"):
		return "balance_enquiry"
	case strings.Contains(q, "transfer"), strings.Contains(q, "imps"), strings.Contains(q, "neft"):
		return "fund_transfer"
	case strings.Contains(q, "statement"):
		return "statement"
	default:
		return "feature_issue"
	}
}
