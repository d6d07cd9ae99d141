// Package setup runs the fixed provisioning chain against the issuing
// platform: funding source → card product → user → card → velocity control.
// Later steps depend on tokens returned by earlier ones, so the chain is
// strictly sequential.
package setup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nkarimian/cardlab/internal/model"
	"github.com/nkarimian/cardlab/internal/money"
	"github.com/nkarimian/cardlab/internal/platform"
	"github.com/nkarimian/cardlab/internal/registry"
	"github.com/nkarimian/cardlab/internal/token"
)

// ErrUnreachable means the pre-flight connectivity probe failed. Fatal, no retry.
var ErrUnreachable = errors.New("cannot reach upstream platform")

type Config struct {
	BalanceLimit   money.Cents
	Currency       string
	VelocityWindow string
}

type Orchestrator struct {
	client *platform.Client
	reg    *registry.Registry
	cfg    Config
	log    *zap.Logger
}

func New(client *platform.Client, reg *registry.Registry, cfg Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{client: client, reg: reg, cfg: cfg, log: log}
}

// policy describes what happens when a step's upstream call fails: abort the
// run, or substitute a fallback value and continue. Only the funding-source
// step carries a fallback — sandbox environments frequently disallow
// funding-source creation, and the flow should still complete.
type policy[T any] struct {
	fallback *T
}

func abort[T any]() policy[T] { return policy[T]{} }

func fallbackTo[T any](v T) policy[T] { return policy[T]{fallback: &v} }

func runStep[T any](name string, p policy[T], log *zap.Logger, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err == nil {
		return v, nil
	}

	if p.fallback != nil {
		log.Warn("setup step failed, using fallback",
			zap.String("step", name), zap.Error(err))
		return *p.fallback, nil
	}

	var zero T
	return zero, fmt.Errorf("%s: %w", name, err)
}

// Run executes the five-step chain and commits all entities to the registry on
// full success. A mid-chain failure aborts without compensating already-created
// upstream resources; nothing partial is committed locally.
func (o *Orchestrator) Run(ctx context.Context) (registry.Snapshot, error) {
	if err := o.client.Ping(ctx); err != nil {
		return registry.Snapshot{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	fs, err := runStep("create funding source",
		fallbackTo(model.FundingSource{
			Token: model.DefaultFundingSourceToken,
			Name:  "Sandbox Program Funding",
		}),
		o.log,
		func() (model.FundingSource, error) { return o.createFundingSource(ctx) })
	if err != nil {
		return registry.Snapshot{}, err
	}

	cp, err := runStep("create card product", abort[model.CardProduct](), o.log,
		func() (model.CardProduct, error) { return o.createCardProduct(ctx, fs.Token) })
	if err != nil {
		return registry.Snapshot{}, err
	}

	user, err := runStep("create cardholder user", abort[model.CardholderUser](), o.log,
		func() (model.CardholderUser, error) { return o.createUser(ctx) })
	if err != nil {
		return registry.Snapshot{}, err
	}

	card, err := runStep("create virtual card", abort[model.Card](), o.log,
		func() (model.Card, error) { return o.createCard(ctx, user.Token, cp.Token) })
	if err != nil {
		return registry.Snapshot{}, err
	}

	vc, err := runStep("create velocity control", abort[model.VelocityControl](), o.log,
		func() (model.VelocityControl, error) { return o.createVelocityControl(ctx, user.Token) })
	if err != nil {
		return registry.Snapshot{}, err
	}

	o.reg.SetAll(&fs, &cp, &user, &card, &vc)

	o.log.Info("setup complete",
		zap.String("card_token", card.Token),
		zap.String("user_token", user.Token))

	return o.reg.Snapshot(), nil
}

func (o *Orchestrator) createFundingSource(ctx context.Context) (model.FundingSource, error) {
	tok := token.New(token.FundingSource)
	name := "Cardlab Demo Funding"

	resp, err := o.client.Do(ctx, http.MethodPost, "/fundingsources/program", map[string]any{
		"token":  tok,
		"name":   name,
		"active": true,
	})
	if err != nil {
		return model.FundingSource{}, err
	}

	return model.FundingSource{
		Token: stringField(resp.Data, "token", tok),
		Name:  stringField(resp.Data, "name", name),
	}, nil
}

func (o *Orchestrator) createCardProduct(ctx context.Context, fundingSourceToken string) (model.CardProduct, error) {
	tok := token.New(token.CardProduct)
	name := "Cardlab Virtual Card"

	resp, err := o.client.Do(ctx, http.MethodPost, "/cardproducts", map[string]any{
		"token":      tok,
		"name":       name,
		"start_date": time.Now().Format("2006-01-02"),
		"config": map[string]any{
			"fulfillment": map[string]any{
				"payment_instrument": "VIRTUAL_PAN",
			},
			"poi": map[string]any{
				"ecommerce": true,
				"atm":       false,
			},
			"card_life_cycle": map[string]any{
				"activate_upon_issue": true,
			},
			"jit_funding": map[string]any{
				"program_funding_source": map[string]any{
					"funding_source_token": fundingSourceToken,
					"enabled":              true,
					"refunds_destination":  "PROGRAM_FUNDING_SOURCE",
				},
			},
		},
	})
	if err != nil {
		return model.CardProduct{}, err
	}

	return model.CardProduct{
		Token:              stringField(resp.Data, "token", tok),
		Name:               stringField(resp.Data, "name", name),
		FundingSourceToken: fundingSourceToken,
	}, nil
}

func (o *Orchestrator) createUser(ctx context.Context) (model.CardholderUser, error) {
	tok := token.New(token.CardholderUser)
	first, last := "Jane", "Cardholder"
	email := tok + "@cardlab.example"

	resp, err := o.client.Do(ctx, http.MethodPost, "/users", map[string]any{
		"token":      tok,
		"first_name": first,
		"last_name":  last,
		"email":      email,
		"metadata": map[string]any{
			"balance_limit": o.cfg.BalanceLimit.String(),
		},
	})
	if err != nil {
		return model.CardholderUser{}, err
	}

	return model.CardholderUser{
		Token:        stringField(resp.Data, "token", tok),
		FirstName:    first,
		LastName:     last,
		Email:        email,
		BalanceLimit: o.cfg.BalanceLimit,
	}, nil
}

func (o *Orchestrator) createCard(ctx context.Context, userToken, cardProductToken string) (model.Card, error) {
	tok := token.New(token.Card)

	// show_pan/show_cvv_number: the demo renders the raw card data in the UI.
	resp, err := o.client.Do(ctx, http.MethodPost, "/cards?show_pan=true&show_cvv_number=true", map[string]any{
		"token":              tok,
		"user_token":         userToken,
		"card_product_token": cardProductToken,
	})
	if err != nil {
		return model.Card{}, err
	}

	return model.Card{
		Token:            stringField(resp.Data, "token", tok),
		UserToken:        userToken,
		CardProductToken: cardProductToken,
		PAN:              stringField(resp.Data, "pan", ""),
		CVV:              stringField(resp.Data, "cvv_number", ""),
		Expiration:       stringField(resp.Data, "expiration", ""),
		State:            stringField(resp.Data, "state", ""),
	}, nil
}

func (o *Orchestrator) createVelocityControl(ctx context.Context, userToken string) (model.VelocityControl, error) {
	tok := token.New(token.VelocityControl)

	// amount_limit is decimal dollars on the wire; the limit is configured in cents.
	resp, err := o.client.Do(ctx, http.MethodPost, "/velocitycontrols", map[string]any{
		"token": tok,
		"name":  "cardlab daily spend ceiling",
		"association": map[string]any{
			"user_token": userToken,
		},
		"amount_limit":    float64(o.cfg.BalanceLimit.Dollars()),
		"currency_code":   o.cfg.Currency,
		"velocity_window": o.cfg.VelocityWindow,
		"active":          true,
	})
	if err != nil {
		return model.VelocityControl{}, err
	}

	return model.VelocityControl{
		Token:       stringField(resp.Data, "token", tok),
		UserToken:   userToken,
		AmountLimit: o.cfg.BalanceLimit,
		Currency:    o.cfg.Currency,
		Window:      o.cfg.VelocityWindow,
	}, nil
}

func stringField(data map[string]any, key, fallback string) string {
	if s, ok := data[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
