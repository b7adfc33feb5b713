package services

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	aws_pkg "github.com/tobaccostore/backend/pkg/aws"
)

// Metrics counts business events in Prometheus and, when enabled, CloudWatch.
// A nil *Metrics records nothing.
type Metrics struct {
	orders    *prometheus.CounterVec
	payments  *prometheus.CounterVec
	promos    *prometheus.CounterVec
	quotes    *prometheus.CounterVec
	checkouts *prometheus.CounterVec
	cw        *aws_pkg.MetricsClient
}

func NewMetrics(reg prometheus.Registerer, cw *aws_pkg.MetricsClient) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		orders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_created_total",
			Help:      "Orders created, by payment method and whether items were persisted.",
		}, []string{"payment_method", "items_persisted"}),
		payments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "payment_transitions_total",
			Help:      "Payment transaction status transitions.",
		}, []string{"provider", "status"}),
		promos: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "promo_redemptions_total",
			Help:      "Promo redemption attempts by result.",
		}, []string{"result"}),
		quotes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "shipping_quotes_total",
			Help:      "Shipping cost lookups by courier and result.",
		}, []string{"courier", "result"}),
		checkouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkouts_total",
			Help:      "Server-side checkouts by payment method and outcome.",
		}, []string{"payment_method", "outcome"}),
		cw: cw,
	}
}

func (m *Metrics) OrderCreated(method string, itemsPersisted bool) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(method, strconv.FormatBool(itemsPersisted)).Inc()
	m.pushAsync(aws_pkg.MetricOrdersCreated, map[string]string{"PaymentMethod": method})
	if !itemsPersisted {
		m.pushAsync(aws_pkg.MetricOrderItemsFailed, nil)
	}
}

func (m *Metrics) PaymentTransition(provider, status string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(provider, status).Inc()
	dims := map[string]string{"Provider": provider}
	switch status {
	case "awaiting_provider":
		m.pushAsync(aws_pkg.MetricPaymentInitiated, dims)
	case "succeeded":
		m.pushAsync(aws_pkg.MetricPaymentSucceeded, dims)
	case "failed", "cancelled":
		m.pushAsync(aws_pkg.MetricPaymentFailed, dims)
	}
}

func (m *Metrics) PromoRedemption(result string) {
	if m == nil {
		return
	}
	m.promos.WithLabelValues(result).Inc()
	if result == "counted" {
		m.pushAsync(aws_pkg.MetricPromoRedeemed, nil)
	}
}

func (m *Metrics) ShippingQuote(courier string, empty bool) {
	if m == nil {
		return
	}
	result := "ok"
	if empty {
		result = "empty"
		m.pushAsync(aws_pkg.MetricShippingQuoteMiss, map[string]string{"Courier": courier})
	}
	m.quotes.WithLabelValues(courier, result).Inc()
}

func (m *Metrics) Checkout(method, outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) pushAsync(name string, dims map[string]string) {
	if !m.cw.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.cw.RecordCount(ctx, name, dims)
	}()
}
