// Package registry holds the process-wide demo resources: the most recently
// created funding source, card product, user, card, and velocity control. One
// slot per kind; a new setup run overwrites the previous one.
package registry

import (
	"sync"

	"github.com/nkarimian/cardlab/internal/model"
)

type Registry struct {
	mu              sync.Mutex
	fundingSource   *model.FundingSource
	cardProduct     *model.CardProduct
	user            *model.CardholderUser
	card            *model.Card
	velocityControl *model.VelocityControl
}

// Snapshot is a point-in-time copy of all five slots. Nil fields mean no setup
// run has completed yet.
type Snapshot struct {
	FundingSource   *model.FundingSource   `json:"fundingSource,omitempty"`
	CardProduct     *model.CardProduct     `json:"cardProduct,omitempty"`
	User            *model.CardholderUser  `json:"user,omitempty"`
	Card            *model.Card            `json:"card,omitempty"`
	VelocityControl *model.VelocityControl `json:"velocityControl,omitempty"`
}

func New() *Registry {
	return &Registry{}
}

// SetAll commits one complete setup run atomically. Partial runs are never
// committed: a failed setup leaves the previous contents untouched.
func (r *Registry) SetAll(fs *model.FundingSource, cp *model.CardProduct, u *model.CardholderUser, c *model.Card, vc *model.VelocityControl) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fundingSource = fs
	r.cardProduct = cp
	r.user = u
	r.card = c
	r.velocityControl = vc
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		FundingSource:   r.fundingSource,
		CardProduct:     r.cardProduct,
		User:            r.user,
		Card:            r.card,
		VelocityControl: r.velocityControl,
	}
}

// Card returns the card from the latest setup run, or nil.
func (r *Registry) Card() *model.Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.card
}

// User returns the cardholder from the latest setup run, or nil.
func (r *Registry) User() *model.CardholderUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.user
}

// CardByPAN resolves a card by exact PAN match against the single card held in
// the registry. Multi-card lookup is out of scope for the demo.
func (r *Registry) CardByPAN(pan string) (*model.Card, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.card == nil || pan == "" || r.card.PAN != pan {
		return nil, false
	}
	return r.card, true
}
