// Package transaction simulates authorizations and clearings against the
// issuing platform's transaction simulator.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/nkarimian/cardlab/internal/model"
	"github.com/nkarimian/cardlab/internal/money"
	"github.com/nkarimian/cardlab/internal/platform"
	"github.com/nkarimian/cardlab/internal/registry"
)

// ErrCardNotFound means PAN lookup had no match in the registry.
var ErrCardNotFound = errors.New("no card matches that number, run setup first")

// Merchant ID the platform simulator requires on authorization requests.
const demoMID = "cardlab-demo-merchant"

type Orchestrator struct {
	client          *platform.Client
	reg             *registry.Registry
	webhookUser     string
	webhookPassword string
	log             *zap.Logger
}

// Result pairs a transaction with a non-fatal warning, set when clearing
// failed after a successful authorization. The authorized-but-uncleared
// transaction is still a valid, inspectable outcome.
type Result struct {
	Transaction *model.Transaction
	Warning     string
}

func New(client *platform.Client, reg *registry.Registry, webhookUser, webhookPassword string, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		client:          client,
		reg:             reg,
		webhookUser:     webhookUser,
		webhookPassword: webhookPassword,
		log:             log,
	}
}

// Simulate issues an authorization for the given amount against a card. The
// simulator expects the amount as an integer-cents string. When a webhook
// endpoint is supplied, delivery credentials from config are attached.
func (o *Orchestrator) Simulate(ctx context.Context, cardToken string, amount money.Dollars, webhookEndpoint string) (*model.Transaction, error) {
	cents, err := amount.Cents()
	if err != nil {
		return nil, fmt.Errorf("authorization amount: %w", err)
	}

	body := map[string]any{
		"amount":     cents.String(),
		"card_token": cardToken,
		"mid":        demoMID,
	}
	if webhookEndpoint != "" {
		body["webhook"] = map[string]any{
			"endpoint": webhookEndpoint,
			"username": o.webhookUser,
			"password": o.webhookPassword,
		}
	}

	resp, err := o.client.Do(ctx, http.MethodPost, "/simulate/authorization", body)
	if err != nil {
		return nil, err
	}

	return parseTransaction(resp.Data, cents), nil
}

// Clear finalizes a previously authorized transaction. The clearing simulator
// expects decimal dollars while authorization took integer cents — the
// conversion happens here, once, to keep the 100x asymmetry out of callers.
func (o *Orchestrator) Clear(ctx context.Context, transactionToken string, amount money.Cents) (*model.Transaction, error) {
	resp, err := o.client.Do(ctx, http.MethodPost, "/simulate/clearing", map[string]any{
		"token":  transactionToken,
		"amount": float64(amount.Dollars()),
	})
	if err != nil {
		return nil, err
	}

	return parseTransaction(resp.Data, amount), nil
}

// AuthorizeAndMaybeClear simulates an authorization and, when requested,
// immediately clears it. A clearing failure is not fatal: the original
// authorized transaction is returned with a warning.
func (o *Orchestrator) AuthorizeAndMaybeClear(ctx context.Context, cardToken string, amount money.Dollars, autoClear bool) (*Result, error) {
	authorized, err := o.Simulate(ctx, cardToken, amount, "")
	if err != nil {
		return nil, err
	}

	if !autoClear || authorized.Token == "" {
		return &Result{Transaction: authorized}, nil
	}

	cleared, err := o.Clear(ctx, authorized.Token, authorized.Amount)
	if err != nil {
		o.log.Warn("clearing failed after authorization",
			zap.String("transaction_token", authorized.Token), zap.Error(err))
		return &Result{
			Transaction: authorized,
			Warning:     fmt.Sprintf("authorized but not cleared: %v", err),
		}, nil
	}

	return &Result{Transaction: cleared}, nil
}

// CardByPAN resolves a card by exact PAN match in the registry.
func (o *Orchestrator) CardByPAN(pan string) (*model.Card, error) {
	card, ok := o.reg.CardByPAN(pan)
	if !ok {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// Balance looks up the cardholder's GPA balance. Failures are non-fatal for
// the demo: a nil balance plus a warning is returned instead of an error.
func (o *Orchestrator) Balance(ctx context.Context, userToken string) (*model.GPABalance, string) {
	resp, err := o.client.Do(ctx, http.MethodGet, "/balances/"+userToken, nil)
	if err != nil {
		o.log.Warn("balance lookup failed", zap.String("user_token", userToken), zap.Error(err))
		return nil, fmt.Sprintf("balance unavailable: %v", err)
	}

	gpa, ok := resp.Data["gpa"].(map[string]any)
	if !ok {
		o.log.Warn("balance lookup returned unexpected shape", zap.String("user_token", userToken))
		return nil, "balance unavailable: unexpected response shape"
	}

	return &model.GPABalance{
		LedgerBalance:    floatField(gpa, "ledger_balance"),
		AvailableBalance: floatField(gpa, "available_balance"),
	}, ""
}

func parseTransaction(data map[string]any, amount money.Cents) *model.Transaction {
	txn := &model.Transaction{Amount: amount, Raw: data}

	tr, ok := data["transaction"].(map[string]any)
	if !ok {
		return txn
	}

	if s, ok := tr["token"].(string); ok {
		txn.Token = s
	}
	if s, ok := tr["state"].(string); ok {
		txn.State = s
	}
	if resp, ok := tr["response"].(map[string]any); ok {
		if code, ok := resp["code"].(string); ok {
			txn.ResponseCode = code
		}
	}
	// gpa_order is the JIT funding movement the platform attached, evidence
	// that just-in-time funding fired for this authorization.
	if order, ok := tr["gpa_order"].(map[string]any); ok {
		txn.FundingOrder = order
	}

	return txn
}

func floatField(data map[string]any, key string) float64 {
	if f, ok := data[key].(float64); ok {
		return f
	}
	return 0
}
