package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonmw "github.com/tobaccostore/backend/services/common/middleware"
	"github.com/tobaccostore/backend/services/storefront-service/controllers"
	"github.com/tobaccostore/backend/services/storefront-service/middleware"
)

// Controllers bundles the handlers mounted by RegisterRoutes.
type Controllers struct {
	Auth     *controllers.AuthController
	Product  *controllers.ProductController
	Customer *controllers.CustomerController
	Order    *controllers.OrderController
	Promo    *controllers.PromoController
	Shipping *controllers.ShippingController
	Payment  *controllers.PaymentController
	Checkout *controllers.CheckoutController
}

// Limits are per client IP and minute.
type Limits struct {
	AuthPerMinute, AuthBurst       int
	PromoPerMinute, PromoBurst     int
	PaymentPerMinute, PaymentBurst int
}

func DefaultLimits() Limits {
	return Limits{
		AuthPerMinute: 10, AuthBurst: 5,
		PromoPerMinute: 30, PromoBurst: 10,
		PaymentPerMinute: 30, PaymentBurst: 10,
	}
}

// RegisterRoutes mounts the storefront API. Mobile aliases share the rate
// limiter of their primary route.
func RegisterRoutes(r *gin.Engine, c Controllers, sessions middleware.SessionResolver, gatherer prometheus.Gatherer, limits Limits) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "OK", "service": "storefront-service"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	authLimit := commonmw.RateLimitMiddleware(limits.AuthPerMinute, limits.AuthBurst)
	promoLimit := commonmw.RateLimitMiddleware(limits.PromoPerMinute, limits.PromoBurst)
	paymentLimit := commonmw.RateLimitMiddleware(limits.PaymentPerMinute, limits.PaymentBurst)
	optionalSession := middleware.OptionalSession(sessions)

	authRoutes := r.Group("/auth")
	authRoutes.POST("/register", authLimit, c.Auth.Register)
	authRoutes.POST("/login", authLimit, c.Auth.Login)
	authRoutes.GET("/me", middleware.RequireSession(sessions), c.Auth.Me)
	authRoutes.POST("/logout", c.Auth.Logout)

	r.GET("/products", c.Product.ListProducts)
	r.GET("/products/:id", c.Product.GetProduct)

	for _, prefix := range []string{"", "/mobile"} {
		g := r.Group(prefix)
		g.POST("/customers", c.Customer.FindOrCreate)
		g.POST("/orders", optionalSession, c.Order.CreateOrder)
		g.GET("/orders", c.Order.ListOrders)
		g.POST("/promo/validate", promoLimit, c.Promo.Validate)
		g.POST("/promo/increment", promoLimit, c.Promo.Increment)
		g.GET("/shipping/city", c.Shipping.Cities)
		g.POST("/shipping/cost", c.Shipping.Cost)
	}
	r.GET("/orders/:id", c.Order.GetOrder)

	shippingRoutes := r.Group("/shipping")
	shippingRoutes.GET("/province", c.Shipping.Provinces)
	shippingRoutes.GET("/district/:city_id", c.Shipping.Districts)

	paymentRoutes := r.Group("/payment")
	paymentRoutes.POST("/snap", paymentLimit, c.Payment.CreateSnap)
	paymentRoutes.POST("/cashify", paymentLimit, c.Payment.CreateCashify)
	paymentRoutes.POST("/status", c.Payment.Status)
	paymentRoutes.POST("/cashify/status", c.Payment.Status)
	paymentRoutes.GET("/cashify/:transaction_id/qr.png", c.Payment.QRImage)
	paymentRoutes.POST("/callback", c.Payment.Callback)
	paymentRoutes.POST("/midtrans/notification", c.Payment.MidtransNotification)

	checkoutRoutes := r.Group("/checkout")
	checkoutRoutes.POST("", optionalSession, paymentLimit, c.Checkout.Checkout)
	checkoutRoutes.POST("/:order_id/payment", paymentLimit, c.Checkout.RetryPayment)
}
