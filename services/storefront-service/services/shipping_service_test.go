package services_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/providers"
	"github.com/tobaccostore/backend/services/storefront-service/services"
)

const warehouseDistrict = 1391

func jneQuotes() []models.ShippingQuote {
	return []models.ShippingQuote{
		{Courier: "jne", CourierName: "JNE", Service: "REG", Cost: 18000, ETD: "2-3"},
		{Courier: "jne", CourierName: "JNE", Service: "YES", Cost: 32000, ETD: "1"},
	}
}

func TestShippingCost_DefaultOrigin(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	reg := prometheus.NewRegistry()
	rates := &fakeRates{quotes: jneQuotes()}
	svc := services.NewShippingService(rates, warehouseDistrict, services.NewMetrics(reg, nil), logger)

	res, serr := svc.Cost(context.Background(), &models.ShippingCostRequest{Destination: 2087, Weight: 500, Courier: "JNE"})
	require.Nil(t, serr)
	assert.Len(t, res.Results, 2)
	assert.Empty(t, res.Message)
	assert.Equal(t, int64(warehouseDistrict), rates.lastReq.origin)
	assert.Equal(t, "jne", rates.lastReq.courier)

	n, err := testutil.GatherAndCount(reg, "storefront_shipping_quotes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestShippingCost_EmptyIsNotAnError(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	svc := services.NewShippingService(&fakeRates{}, warehouseDistrict, nil, logger)

	res, serr := svc.Cost(context.Background(), &models.ShippingCostRequest{Destination: 2087, Weight: 500, Courier: "pos"})
	require.Nil(t, serr)
	assert.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
	assert.Equal(t, services.MsgNoShippingServices, res.Message)
}

func TestShippingCost_Validation(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	svc := services.NewShippingService(&fakeRates{}, 0, nil, logger)

	cases := []*models.ShippingCostRequest{
		{Destination: 2087, Weight: 500, Courier: "jne"},
		{Origin: 1, Weight: 500, Courier: "jne"},
		{Origin: 1, Destination: 2087, Courier: "jne"},
		{Origin: 1, Destination: 2087, Weight: 500, Courier: "jne:"},
	}
	for _, req := range cases {
		_, serr := svc.Cost(context.Background(), req)
		require.NotNil(t, serr)
		assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	}
}

func TestShippingService_ProviderErrors(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	unconfigured := services.NewShippingService(nil, warehouseDistrict, nil, logger)
	_, serr := unconfigured.Provinces(context.Background())
	require.NotNil(t, serr)
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)

	rejected := services.NewShippingService(&fakeRates{err: &providers.BusinessError{Provider: "rajaongkir", Code: 400, Message: "Invalid key"}}, warehouseDistrict, nil, logger)
	_, serr = rejected.Cities(context.Background(), "11")
	require.NotNil(t, serr)
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.Equal(t, "Invalid key", serr.Message)

	down := services.NewShippingService(&fakeRates{err: &providers.TransportError{Provider: "rajaongkir", StatusCode: 503}}, warehouseDistrict, nil, logger)
	_, serr = down.Districts(context.Background(), "444")
	require.NotNil(t, serr)
	assert.Equal(t, http.StatusBadGateway, serr.StatusCode)
	assert.True(t, serr.Retryable)

	_, serr = down.Cities(context.Background(), "abc")
	require.NotNil(t, serr)
	assert.Equal(t, "province_id is required", serr.Message)
}

func TestShippingQuote(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	svc := services.NewShippingService(&fakeRates{quotes: jneQuotes()}, warehouseDistrict, nil, logger)

	q, serr := svc.Quote(context.Background(), 2087, 500, "jne", "yes")
	require.Nil(t, serr)
	assert.Equal(t, int64(32000), q.Cost)

	_, serr = svc.Quote(context.Background(), 2087, 500, "jne", "OKE")
	require.NotNil(t, serr)
	assert.Equal(t, http.StatusUnprocessableEntity, serr.StatusCode)

	empty := services.NewShippingService(&fakeRates{}, warehouseDistrict, nil, logger)
	_, serr = empty.Quote(context.Background(), 2087, 500, "jne", "REG")
	require.NotNil(t, serr)
	assert.Equal(t, services.MsgNoShippingServices, serr.Message)
}
