package model

import "github.com/nkarimian/cardlab/internal/money"

// FundingSource is the pool of funds card products draw from during JIT funding.
// May be the sandbox default when the platform rejects creation.
type FundingSource struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// DefaultFundingSourceToken is the platform-provided program funding source that
// setup falls back to when funding-source creation is not permitted.
const DefaultFundingSourceToken = "sandbox_program_funding"

type CardProduct struct {
	Token              string `json:"token"`
	Name               string `json:"name"`
	FundingSourceToken string `json:"fundingSourceToken"`
}

type CardholderUser struct {
	Token        string      `json:"token"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Email        string      `json:"email"`
	BalanceLimit money.Cents `json:"balanceLimit"`
}

func (u CardholderUser) Name() string {
	return u.FirstName + " " + u.LastName
}

// Card is the terminal artifact of a setup run, handed to the UI.
type Card struct {
	Token            string `json:"token"`
	UserToken        string `json:"userToken"`
	CardProductToken string `json:"cardProductToken"`
	PAN              string `json:"pan"`
	CVV              string `json:"cvv"`
	Expiration       string `json:"expiration"`
	State            string `json:"state"`
}

type VelocityControl struct {
	Token       string      `json:"token"`
	UserToken   string      `json:"userToken"`
	AmountLimit money.Cents `json:"amountLimitCents"`
	Currency    string      `json:"currency"`
	Window      string      `json:"window"`
}
