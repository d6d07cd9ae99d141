package command

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/nkarimian/cardlab/internal/config"
	"github.com/nkarimian/cardlab/internal/metrics"
	"github.com/nkarimian/cardlab/internal/model"
	"github.com/nkarimian/cardlab/internal/money"
	"github.com/nkarimian/cardlab/internal/platform"
	"github.com/nkarimian/cardlab/internal/setup"
	"github.com/nkarimian/cardlab/internal/transaction"
)

type Dispatcher struct {
	setup *setup.Orchestrator
	txns  *transaction.Orchestrator
	pins  config.PINConfig
}

func NewDispatcher(s *setup.Orchestrator, t *transaction.Orchestrator, pins config.PINConfig) *Dispatcher {
	return &Dispatcher{setup: s, txns: t, pins: pins}
}

// Dispatch validates the envelope and routes to the matching orchestrator.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	resp := d.dispatch(ctx, req)

	outcome := "ok"
	if !resp.Success {
		outcome = "error"
	}
	metrics.Commands.WithLabelValues(req.Action, outcome).Inc()

	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) Response {
	switch req.Action {
	case ActionSetup:
		return d.runSetup(ctx)
	case ActionSimulate:
		return d.simulate(ctx, req)
	case ActionClear:
		return d.clear(ctx, req)
	case ActionBalance:
		return d.balance(ctx, req)
	default:
		return invalid("action", "must be one of setup, simulate, clear, balance")
	}
}

func (d *Dispatcher) runSetup(ctx context.Context) Response {
	snap, err := d.setup.Run(ctx)
	if err != nil {
		return failure(err)
	}

	user := snap.User
	card := snap.Card

	return Response{Success: true, Data: map[string]any{
		"fundingSource": snap.FundingSource,
		"cardProduct":   snap.CardProduct,
		"user": map[string]any{
			"token":        user.Token,
			"name":         user.Name(),
			"balanceLimit": user.BalanceLimit,
		},
		"card": map[string]any{
			"token":      card.Token,
			"pan":        card.PAN,
			"cvv":        card.CVV,
			"expiration": card.Expiration,
			"state":      card.State,
		},
		"velocityControl": snap.VelocityControl,
	}}
}

func (d *Dispatcher) simulate(ctx context.Context, req Request) Response {
	if req.CardToken == "" {
		return invalid("cardToken", "required")
	}
	if req.Amount <= 0 {
		return invalid("amount", "must be a positive dollar amount")
	}

	txn, err := d.txns.Simulate(ctx, req.CardToken, money.Dollars(req.Amount), req.WebhookEndpoint)
	if err != nil {
		return failure(err)
	}

	return Response{Success: true, Data: txn}
}

func (d *Dispatcher) clear(ctx context.Context, req Request) Response {
	if req.TransactionToken == "" {
		return invalid("transactionToken", "required")
	}
	if req.Amount <= 0 || req.Amount != math.Trunc(req.Amount) {
		return invalid("amount", "must be a positive integer amount in cents")
	}

	txn, err := d.txns.Clear(ctx, req.TransactionToken, money.Cents(req.Amount))
	if err != nil {
		return failure(err)
	}

	return Response{Success: true, Data: txn}
}

func (d *Dispatcher) balance(ctx context.Context, req Request) Response {
	if req.UserToken == "" {
		return invalid("userToken", "required")
	}

	// A balance-lookup failure is non-fatal: null balance plus a warning.
	bal, warning := d.txns.Balance(ctx, req.UserToken)
	var data any
	if bal != nil {
		data = bal
	}

	return Response{
		Success: true,
		Data:    map[string]any{"gpa": data},
		Warning: warning,
	}
}

// Pay is the PAN-based payment path: resolve the card, authorize, and
// optionally clear immediately.
func (d *Dispatcher) Pay(ctx context.Context, req PayRequest) Response {
	resp := d.pay(ctx, req, false)

	outcome := "ok"
	if !resp.Success {
		outcome = "error"
	}
	metrics.Commands.WithLabelValues("pay", outcome).Inc()

	return resp
}

// PayWithPIN gates Pay behind a PIN check: the card's entry in the static
// PAN→PIN table when present, the demo PIN otherwise. Validation happens
// before any upstream call.
func (d *Dispatcher) PayWithPIN(ctx context.Context, req PayRequest) Response {
	resp := d.pay(ctx, req, true)

	outcome := "ok"
	if !resp.Success {
		outcome = "error"
	}
	metrics.Commands.WithLabelValues("pay", outcome).Inc()

	return resp
}

func (d *Dispatcher) pay(ctx context.Context, req PayRequest, requirePIN bool) Response {
	if req.Amount <= 0 {
		return invalid("amount", "must be a positive dollar amount")
	}
	if requirePIN && !validPINFormat(req.PIN) {
		return invalid("pin", "must be 6 digits")
	}

	card, resp := d.resolveCard(req)
	if card == nil {
		return resp
	}

	if requirePIN {
		expected := d.pins.Demo
		if p, ok := d.pins.Cards[card.PAN]; ok {
			expected = p
		}
		if req.PIN != expected {
			return Response{Success: false, Error: "incorrect PIN", status: http.StatusForbidden}
		}
	}

	result, err := d.txns.AuthorizeAndMaybeClear(ctx, card.Token, money.Dollars(req.Amount), req.AutoClear)
	if err != nil {
		return failure(err)
	}

	return Response{Success: true, Data: result.Transaction, Warning: result.Warning}
}

func (d *Dispatcher) resolveCard(req PayRequest) (*model.Card, Response) {
	if req.CardToken != "" {
		return &model.Card{Token: req.CardToken, PAN: req.PAN}, Response{}
	}
	if req.PAN == "" {
		return nil, invalid("pan", "either pan or cardToken is required")
	}

	card, err := d.txns.CardByPAN(req.PAN)
	if err != nil {
		return nil, failure(err)
	}
	return card, Response{}
}

func validPINFormat(pin string) bool {
	if len(pin) != 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// failure maps orchestrator errors onto the response envelope.
func failure(err error) Response {
	var upErr *platform.UpstreamError
	switch {
	case errors.As(err, &upErr):
		return Response{
			Success: false,
			Error:   err.Error(),
			Details: upErr.Payload,
			status:  http.StatusBadGateway,
		}
	case errors.Is(err, setup.ErrUnreachable):
		return Response{Success: false, Error: err.Error(), status: http.StatusBadGateway}
	case errors.Is(err, transaction.ErrCardNotFound):
		return Response{Success: false, Error: err.Error(), status: http.StatusNotFound}
	default:
		return Response{Success: false, Error: err.Error(), status: http.StatusInternalServerError}
	}
}
