package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkarimian/cardlab/internal/model"
	"github.com/nkarimian/cardlab/internal/registry"
)

func TestRegistry(t *testing.T) {
	reg := registry.New()

	snap := reg.Snapshot()
	require.Nil(t, snap.Card)
	require.Nil(t, snap.FundingSource)

	fs := &model.FundingSource{Token: "fs_1", Name: "demo"}
	cp := &model.CardProduct{Token: "cp_1", FundingSourceToken: "fs_1"}
	user := &model.CardholderUser{Token: "user_1"}
	card := &model.Card{Token: "card_1", UserToken: "user_1", PAN: "5112345123451234"}
	vc := &model.VelocityControl{Token: "vc_1", UserToken: "user_1"}

	reg.SetAll(fs, cp, user, card, vc)

	snap = reg.Snapshot()
	require.Equal(t, fs, snap.FundingSource)
	require.Equal(t, card, snap.Card)
	require.Equal(t, card, reg.Card())
	require.Equal(t, user, reg.User())
}

func TestRegistryOverwrite(t *testing.T) {
	reg := registry.New()

	reg.SetAll(
		&model.FundingSource{Token: "fs_1"},
		&model.CardProduct{Token: "cp_1"},
		&model.CardholderUser{Token: "user_1"},
		&model.Card{Token: "card_1"},
		&model.VelocityControl{Token: "vc_1"},
	)
	reg.SetAll(
		&model.FundingSource{Token: "fs_2"},
		&model.CardProduct{Token: "cp_2"},
		&model.CardholderUser{Token: "user_2"},
		&model.Card{Token: "card_2"},
		&model.VelocityControl{Token: "vc_2"},
	)

	// at most one of each kind: the later run wins
	snap := reg.Snapshot()
	require.Equal(t, "card_2", snap.Card.Token)
	require.Equal(t, "fs_2", snap.FundingSource.Token)
}

func TestCardByPAN(t *testing.T) {
	reg := registry.New()

	_, ok := reg.CardByPAN("5112345123451234")
	require.False(t, ok)

	reg.SetAll(nil, nil, nil, &model.Card{Token: "card_1", PAN: "5112345123451234"}, nil)

	card, ok := reg.CardByPAN("5112345123451234")
	require.True(t, ok)
	require.Equal(t, "card_1", card.Token)

	_, ok = reg.CardByPAN("4111111111111111")
	require.False(t, ok)

	_, ok = reg.CardByPAN("")
	require.False(t, ok)
}
