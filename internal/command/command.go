// Package command is the JSON command boundary: it validates an action-keyed
// request, routes it to the right orchestrator, and relays the result.
package command

import (
	"fmt"
	"net/http"
)

// Actions accepted by Dispatch.
const (
	ActionSetup    = "setup"
	ActionSimulate = "simulate"
	ActionClear    = "clear"
	ActionBalance  = "balance"
)

// Request is the action-keyed command envelope. Amount is dollars for
// simulate and integer cents for clear, matching the platform simulator's
// asymmetric contract.
type Request struct {
	Action           string  `json:"action"`
	CardToken        string  `json:"cardToken,omitempty"`
	UserToken        string  `json:"userToken,omitempty"`
	TransactionToken string  `json:"transactionToken,omitempty"`
	Amount           float64 `json:"amount,omitempty"`
	WebhookEndpoint  string  `json:"webhookEndpoint,omitempty"`
}

// PayRequest drives the PAN-based payment paths. Cards resolve by exact PAN
// match in the registry, or directly by token.
type PayRequest struct {
	PAN       string  `json:"pan,omitempty"`
	CardToken string  `json:"cardToken,omitempty"`
	PIN       string  `json:"pin,omitempty"`
	Amount    float64 `json:"amount"`
	AutoClear bool    `json:"autoClear,omitempty"`
}

// Response is the uniform command result envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`

	status int
}

// HTTPStatus returns the status code the HTTP layer should relay.
func (r Response) HTTPStatus() int {
	if r.status != 0 {
		return r.status
	}
	return http.StatusOK
}

// ValidationError is a missing or invalid input field, surfaced before any
// upstream call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

func invalid(field, reason string) Response {
	err := &ValidationError{Field: field, Reason: reason}
	return Response{Success: false, Error: err.Error(), status: http.StatusBadRequest}
}
