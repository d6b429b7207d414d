package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeClient_CreateIntent(t *testing.T) {
	var gotPath, gotAuth string
	var gotForm map[string][]string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"id": "pi_123", "client_secret": "pi_123_secret_abc"}`))
	}))
	defer ts.Close()

	client := NewStripeClient("sk_test_key").WithAPIBase(ts.URL)
	intent, err := client.CreateIntent(context.Background(), 2200, "usd", map[string]string{
		"bag":       `{"42": 2}`,
		"save_info": "true",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, "/payment_intents", gotPath)
	assert.Equal(t, "Bearer sk_test_key", gotAuth)
	assert.Equal(t, []string{"2200"}, gotForm["amount"])
	assert.Equal(t, []string{"usd"}, gotForm["currency"])
	assert.Equal(t, []string{`{"42": 2}`}, gotForm["metadata[bag]"])
	assert.Equal(t, []string{"true"}, gotForm["metadata[save_info]"])
}

func TestStripeClient_ModifyIntentMetadata(t *testing.T) {
	var gotPath, gotMethod string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{"id": "pi_123"}`))
	}))
	defer ts.Close()

	client := NewStripeClient("sk_test_key").WithAPIBase(ts.URL)
	err := client.ModifyIntentMetadata(context.Background(), "pi_123", map[string]string{"username": "ada"})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/payment_intents/pi_123", gotPath)
}

func TestStripeClient_RetrieveCharge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/charges/ch_1", r.URL.Path)
		w.Write([]byte(`{"id": "ch_1", "amount": 2200, "billing_details": {"email": "ada@example.com"}}`))
	}))
	defer ts.Close()

	client := NewStripeClient("sk_test_key").WithAPIBase(ts.URL)
	charge, err := client.RetrieveCharge(context.Background(), "ch_1")

	require.NoError(t, err)
	assert.Equal(t, "ch_1", charge.ID)
	assert.Equal(t, int64(2200), charge.Amount)
	assert.Equal(t, "ada@example.com", charge.BillingDetails.Email)
}

func TestStripeClient_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"message": "Your card was declined."}}`))
	}))
	defer ts.Close()

	client := NewStripeClient("sk_test_key").WithAPIBase(ts.URL)
	_, err := client.RetrieveCharge(context.Background(), "ch_1")

	require.ErrorIs(t, err, ErrGatewayRequest)
	assert.Contains(t, err.Error(), "402")
}

func TestStripeClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewStripeClient("sk_test_key").WithAPIBase(ts.URL)
	for i := 0; i < 5; i++ {
		_, err := client.RetrieveCharge(context.Background(), "ch_1")
		require.ErrorIs(t, err, ErrGatewayRequest)
	}

	_, err := client.RetrieveCharge(context.Background(), "ch_1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGatewayRequest, "the open breaker rejects without calling out")
}
