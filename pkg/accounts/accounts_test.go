package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fingate/bankassist/pkg/intent"
)

func testFetcher(client StatusClient) *Fetcher {
	return NewFetcher(client, 100*time.Millisecond, zap.NewNop())
}

func TestFetchLoginLocked(t *testing.T) {
	f := testFetcher(&MockCBS{Locked: true})
	ctx := f.Fetch(context.Background(), "CUST-0001", "can't login", intent.Login)

	login, ok := ctx.(*LoginContext)
	require.True(t, ok)
	assert.Equal(t, StatusLocked, login.Status)
	assert.Equal(t, "FAILED_OTP_3", login.ReasonCode)
	assert.True(t, login.ConfirmsLock())
}

func TestFetchLoginActive(t *testing.T) {
	f := testFetcher(&MockCBS{})
	ctx := f.Fetch(context.Background(), "CUST-0001", "can't login", intent.Login)

	login := ctx.(*LoginContext)
	assert.Equal(t, StatusActive, login.Status)
	assert.False(t, login.ConfirmsLock())
}

// Collaborator failure must surface as UNKNOWN, never as "not locked" nor
// "locked".
func TestFetchLoginUnavailableIsUnknown(t *testing.T) {
	f := testFetcher(&MockCBS{Fail: true})
	ctx := f.Fetch(context.Background(), "CUST-0001", "can't login", intent.Login)

	login := ctx.(*LoginContext)
	assert.Equal(t, StatusUnknown, login.Status)
	assert.False(t, login.ConfirmsLock())
}

func TestFetchLoginTimeoutIsUnknown(t *testing.T) {
	f := NewFetcher(&MockCBS{Delay: time.Second}, 10*time.Millisecond, zap.NewNop())
	ctx := f.Fetch(context.Background(), "CUST-0001", "can't login", intent.Login)

	login := ctx.(*LoginContext)
	assert.Equal(t, StatusUnknown, login.Status)
}

// Feature context structurally cannot carry lock fields, even when the
// account is actually locked.
func TestFetchFeatureExcludesLockFieldsByConstruction(t *testing.T) {
	f := testFetcher(&MockCBS{Locked: true})
	ctx := f.Fetch(context.Background(), "CUST-0001", "balance page is blank", intent.Feature)

	feature, ok := ctx.(*FeatureContext)
	require.True(t, ok)
	assert.Equal(t, "balance_enquiry", feature.Feature)

	fields := feature.Fields()
	assert.NotContains(t, fields, "netbanking_status")
	assert.NotContains(t, fields, "reason_code")
}

func TestFetchGeneric(t *testing.T) {
	f := testFetcher(&MockCBS{})
	ctx := f.Fetch(context.Background(), "CUST-0001", "statement for march", intent.Transactional)

	generic, ok := ctx.(*GenericContext)
	require.True(t, ok)
	assert.Equal(t, "XXXXXX1234", generic.MaskedAccount)
	assert.NotContains(t, generic.Fields(), "netbanking_status")
}

func TestFetchGenericUnavailable(t *testing.T) {
	f := testFetcher(&MockCBS{Fail: true})
	ctx := f.Fetch(context.Background(), "CUST-0001", "statement", intent.Transactional)

	generic := ctx.(*GenericContext)
	assert.Empty(t, generic.Fields())
}

func TestFetchKnowledgeNeverConsultsAccounts(t *testing.T) {
	f := testFetcher(&recordingClient{})
	ctx := f.Fetch(context.Background(), "CUST-0001", "how do I open a fixed deposit", intent.Knowledge)

	assert.Nil(t, ctx)
}

type recordingClient struct{ calls int }

func (r *recordingClient) GetStatus(ctx context.Context, customerID string) (StatusRecord, error) {
	r.calls++
	return StatusRecord{}, nil
}

func TestFetchKnowledgeMakesNoCalls(t *testing.T) {
	client := &recordingClient{}
	f := testFetcher(client)
	f.Fetch(context.Background(), "CUST-0001", "what is kyc", intent.Knowledge)
	assert.Zero(t, client.calls)
}

func TestFeatureName(t *testing.T) {
	tests := map[string]string{
		"balance page is blank":  "balance_enquiry",
		"neft transfer stuck":    "fund_transfer",
		"statement not loading":  "statement",
		"card controls grey out": "feature_issue",
	}
	for query, want := range tests {
		assert.Equal(t, want, featureName(query), query)
	}
}

// Empty status from a partial record must normalize to UNKNOWN.
func TestFetchLoginEmptyStatusNormalizesToUnknown(t *testing.T) {
	client := &staticClient{rec: StatusRecord{MaskedAccount: "XXXXXX9876"}}
	f := testFetcher(client)
	login := f.Fetch(context.Background(), "CUST-0002", "login", intent.Login).(*LoginContext)
	assert.Equal(t, StatusUnknown, login.Status)
	assert.Equal(t, "XXXXXX9876", login.MaskedAccount)
}

type staticClient struct{ rec StatusRecord }

func (s *staticClient) GetStatus(ctx context.Context, customerID string) (StatusRecord, error) {
	return s.rec, nil
}
