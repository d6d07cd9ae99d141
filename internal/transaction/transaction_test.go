package transaction_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nkarimian/cardlab/internal/model"
	"github.com/nkarimian/cardlab/internal/platform"
	"github.com/nkarimian/cardlab/internal/registry"
	"github.com/nkarimian/cardlab/internal/transaction"
)

type fakeSimulator struct {
	srv *httptest.Server

	authBodies  []map[string]any
	clearBodies []map[string]any

	clearStatus int // 0 means success
}

func newFakeSimulator(t *testing.T) *fakeSimulator {
	t.Helper()

	f := &fakeSimulator{}

	mux := http.NewServeMux()
	mux.HandleFunc("/simulate/authorization", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.authBodies = append(f.authBodies, body)

		json.NewEncoder(w).Encode(map[string]any{
			"transaction": map[string]any{
				"token":    "txn_1",
				"state":    "PENDING",
				"response": map[string]any{"code": "0000"},
				"gpa_order": map[string]any{
					"token":  "gpa_1",
					"amount": 10.0,
				},
			},
		})
	})
	mux.HandleFunc("/simulate/clearing", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.clearBodies = append(f.clearBodies, body)

		if f.clearStatus != 0 {
			w.WriteHeader(f.clearStatus)
			w.Write([]byte(`{"error_message":"clearing rejected"}`))
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"transaction": map[string]any{
				"token": "txn_1",
				"state": "CLEARED",
			},
		})
	})
	mux.HandleFunc("/balances/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"gpa": map[string]any{
				"ledger_balance":    100.0,
				"available_balance": 90.0,
			},
		})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	return f
}

func newOrchestrator(f *fakeSimulator, reg *registry.Registry) *transaction.Orchestrator {
	client := platform.New(f.srv.URL, "app", "admin", f.srv.Client(), nil)
	return transaction.New(client, reg, "hook-user", "hook-pass", nil)
}

func TestSimulateSendsCentsString(t *testing.T) {
	f := newFakeSimulator(t)
	o := newOrchestrator(f, registry.New())

	txn, err := o.Simulate(context.Background(), "card_1", 10.00, "")
	require.NoError(t, err)

	require.Len(t, f.authBodies, 1)
	// authorization takes an integer-cents string
	require.Equal(t, "1000", f.authBodies[0]["amount"])
	require.Equal(t, "card_1", f.authBodies[0]["card_token"])
	require.NotContains(t, f.authBodies[0], "webhook")

	require.Equal(t, "txn_1", txn.Token)
	require.Equal(t, model.TransactionPending, txn.State)
	require.EqualValues(t, 1000, txn.Amount)
	require.Equal(t, "0000", txn.ResponseCode)
	require.NotNil(t, txn.FundingOrder)
	require.Equal(t, "gpa_1", txn.FundingOrder["token"])
}

func TestSimulateAttachesWebhook(t *testing.T) {
	f := newFakeSimulator(t)
	o := newOrchestrator(f, registry.New())

	_, err := o.Simulate(context.Background(), "card_1", 1.50, "https://hooks.example/txn")
	require.NoError(t, err)

	hook, ok := f.authBodies[0]["webhook"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "https://hooks.example/txn", hook["endpoint"])
	require.Equal(t, "hook-user", hook["username"])
	require.Equal(t, "hook-pass", hook["password"])
}

func TestClearSendsDollars(t *testing.T) {
	f := newFakeSimulator(t)
	o := newOrchestrator(f, registry.New())

	txn, err := o.Clear(context.Background(), "txn_1", 1000)
	require.NoError(t, err)

	require.Len(t, f.clearBodies, 1)
	// clearing takes decimal dollars: 1000 cents goes out as 10
	require.Equal(t, 10.0, f.clearBodies[0]["amount"])
	require.Equal(t, "txn_1", f.clearBodies[0]["token"])

	require.Equal(t, model.TransactionCleared, txn.State)
}

func TestAuthorizeAndMaybeClear(t *testing.T) {
	t.Run("auto clear", func(t *testing.T) {
		f := newFakeSimulator(t)
		o := newOrchestrator(f, registry.New())

		res, err := o.AuthorizeAndMaybeClear(context.Background(), "card_1", 10.00, true)
		require.NoError(t, err)
		require.Empty(t, res.Warning)
		require.Equal(t, model.TransactionCleared, res.Transaction.State)
	})

	t.Run("no auto clear", func(t *testing.T) {
		f := newFakeSimulator(t)
		o := newOrchestrator(f, registry.New())

		res, err := o.AuthorizeAndMaybeClear(context.Background(), "card_1", 10.00, false)
		require.NoError(t, err)
		require.Equal(t, model.TransactionPending, res.Transaction.State)
		require.Empty(t, f.clearBodies)
	})

	t.Run("clearing failure is partial success", func(t *testing.T) {
		f := newFakeSimulator(t)
		f.clearStatus = http.StatusInternalServerError
		o := newOrchestrator(f, registry.New())

		res, err := o.AuthorizeAndMaybeClear(context.Background(), "card_1", 10.00, true)
		require.NoError(t, err)
		require.NotEmpty(t, res.Warning)
		require.Equal(t, model.TransactionPending, res.Transaction.State)
		require.Equal(t, "txn_1", res.Transaction.Token)
	})
}

func TestCardByPAN(t *testing.T) {
	f := newFakeSimulator(t)
	reg := registry.New()
	reg.SetAll(nil, nil, nil, &model.Card{Token: "card_1", PAN: "5112345123451234"}, nil)
	o := newOrchestrator(f, reg)

	card, err := o.CardByPAN("5112345123451234")
	require.NoError(t, err)
	require.Equal(t, "card_1", card.Token)

	_, err = o.CardByPAN("4111111111111111")
	require.ErrorIs(t, err, transaction.ErrCardNotFound)
}

func TestBalance(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newFakeSimulator(t)
		o := newOrchestrator(f, registry.New())

		bal, warning := o.Balance(context.Background(), "user_1")
		require.Empty(t, warning)
		require.Equal(t, 100.0, bal.LedgerBalance)
		require.Equal(t, 90.0, bal.AvailableBalance)
	})

	t.Run("failure is non-fatal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := platform.New(srv.URL, "app", "admin", srv.Client(), nil)
		o := transaction.New(client, registry.New(), "", "", nil)

		bal, warning := o.Balance(context.Background(), "user_1")
		require.Nil(t, bal)
		require.NotEmpty(t, warning)
	})

	t.Run("unexpected shape is non-fatal and logged", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"gpa":"not-an-object"}`))
		}))
		defer srv.Close()

		core, logs := observer.New(zap.WarnLevel)
		client := platform.New(srv.URL, "app", "admin", srv.Client(), nil)
		o := transaction.New(client, registry.New(), "", "", zap.New(core))

		bal, warning := o.Balance(context.Background(), "user_1")
		require.Nil(t, bal)
		require.Contains(t, warning, "unexpected response shape")
		require.Equal(t, 1, logs.FilterMessage("balance lookup returned unexpected shape").Len())
	})
}
