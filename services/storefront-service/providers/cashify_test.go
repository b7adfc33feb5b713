package providers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/providers"
)

func TestCashify_CreateQR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/qris/generate", r.URL.Path)
		assert.Equal(t, "lic-1", r.Header.Get("x-license-key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ORD-1", body["order_id"])
		assert.EqualValues(t, 100000, body["amount"])
		assert.Equal(t, "dana", body["ewalletType"])

		w.Write([]byte(`{"status":200,"message":"ok","data":{"transactionId":"CF-1","qr_string":"00020101021226...","totalAmount":100123}}`))
	}))
	defer srv.Close()

	p := providers.NewCashifyProvider("lic-1", srv.URL)
	res, err := p.CreateQR(context.Background(), providers.QRRequest{OrderID: "ORD-1", Amount: 100000, EwalletType: "dana"})
	require.NoError(t, err)
	assert.Equal(t, "CF-1", res.TransactionID)
	assert.Equal(t, int64(100123), res.TotalAmount)
	assert.NotEmpty(t, res.QRString)
}

func TestCashify_CreateQR_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":400,"message":"Invalid license key"}`))
	}))
	defer srv.Close()

	_, err := providers.NewCashifyProvider("x", srv.URL).CreateQR(context.Background(), providers.QRRequest{OrderID: "o", Amount: 1})
	var bizErr *providers.BusinessError
	require.True(t, errors.As(err, &bizErr))
	assert.Equal(t, "Invalid license key", bizErr.Message)
}

func TestCashify_CheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CF-1", body["transactionId"])
		w.Write([]byte(`{"status":200,"data":{"transactionId":"CF-1","status":"paid"}}`))
	}))
	defer srv.Close()

	st, err := providers.NewCashifyProvider("x", srv.URL).CheckStatus(context.Background(), "CF-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, st.Status)
	assert.Equal(t, "paid", st.RawStatus)
}

func TestMapCashifyStatus(t *testing.T) {
	for _, s := range []string{"paid", "SUCCESS", "settlement"} {
		assert.Equal(t, models.PaymentStatusSucceeded, providers.MapCashifyStatus(s), s)
	}
	for _, s := range []string{"failed", "expired", "cancelled"} {
		assert.Equal(t, models.PaymentStatusFailed, providers.MapCashifyStatus(s), s)
	}
	for _, s := range []string{"pending", "unpaid", ""} {
		assert.Equal(t, models.PaymentStatusPending, providers.MapCashifyStatus(s), s)
	}
}
