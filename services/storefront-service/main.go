package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	aws_pkg "github.com/tobaccostore/backend/pkg/aws"
	"github.com/tobaccostore/backend/services/common/auth"
	apperrors "github.com/tobaccostore/backend/services/common/errors"
	"github.com/tobaccostore/backend/services/common/logger"
	commonmw "github.com/tobaccostore/backend/services/common/middleware"
	"github.com/tobaccostore/backend/services/storefront-service/checkout"
	"github.com/tobaccostore/backend/services/storefront-service/controllers"
	"github.com/tobaccostore/backend/services/storefront-service/database"
	"github.com/tobaccostore/backend/services/storefront-service/middleware"
	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/repository"
	"github.com/tobaccostore/backend/services/storefront-service/routes"
	"github.com/tobaccostore/backend/services/storefront-service/sender"
	"github.com/tobaccostore/backend/services/storefront-service/services"
	"github.com/tobaccostore/backend/services/storefront-service/workers"
)

const serviceName = "storefront-service"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// --- AWS setup ---
	awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}

	var logSink io.Writer
	if cw, err := aws_pkg.NewCloudWatchLogsClient(context.Background(), awsCfg, serviceName); err != nil {
		log.Printf("CloudWatch logs unavailable (non-fatal): %v", err)
	} else if cw != nil {
		logSink = cw
	}
	zapLogger := logger.InitializeWithWriter(cfg.Env, logSink)
	defer zapLogger.Sync()

	if err := controllers.RegisterValidators(); err != nil {
		zapLogger.Fatal("Validator registration failed", zap.Error(err))
	}

	// --- Database ---
	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSLMode,
		TimeZone: cfg.PostgresTimeZone,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("DB connection failed", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		zapLogger.Fatal("Migration failed", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(context.Background(), cfg.RedisURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Redis connection failed", zap.Error(err))
	}

	snsClient := aws_pkg.NewSNSClient(awsCfg)
	var objects aws_pkg.ObjectStore
	if cfg.QRBucket != "" {
		objects = aws_pkg.NewS3Store(awsCfg, cfg.QRBucket)
	}

	// --- Metrics ---
	metricsClient := aws_pkg.NewMetricsClient(awsCfg)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry, metricsClient)

	// --- Providers ---
	gw := newGateways(cfg, redisClient)
	if gw.regions == nil {
		zapLogger.Warn("RAJAONGKIR_API_KEY not set, shipping and checkout disabled")
	}
	if gw.snap == nil {
		zapLogger.Warn("MIDTRANS_SERVER_KEY not set, Snap payments disabled")
	}
	if gw.qr == nil {
		zapLogger.Warn("CASHIFY_LICENSE_KEY not set, QR payments disabled")
	}

	// --- Dependency injection ---
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		zapLogger.Fatal("Token manager init failed", zap.Error(err))
	}

	var notifier services.Notifier
	smtpCfg := sender.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
	if smtpCfg.Enabled() {
		smtpSender, err := sender.NewSMTPSender(smtpCfg)
		if err != nil {
			zapLogger.Fatal("SMTP sender init failed", zap.Error(err))
		}
		notifier, err = services.NewNotificationService(smtpSender, zapLogger)
		if err != nil {
			zapLogger.Fatal("Notification service init failed", zap.Error(err))
		}
	} else {
		zapLogger.Warn("SMTP not configured, order emails disabled")
	}

	orderRepo := repository.NewGormOrderRepository(db)
	productRepo := repository.NewGormProductRepository(db)

	authService := services.NewAuthService(repository.NewGormUserRepository(db), tokens, zapLogger)
	productService := services.NewProductService(productRepo, zapLogger)
	customerService := services.NewCustomerService(repository.NewGormCustomerRepository(db), zapLogger)
	promoService := services.NewPromoService(repository.NewGormPromoRepository(db), metrics, zapLogger)
	orderService := services.NewOrderService(orderRepo, productRepo, promoService, notifier, snsClient, cfg.OrderTopicARN, metrics, cfg.StrictTotals, zapLogger)
	paymentService := services.NewPaymentService(services.PaymentServiceConfig{
		Repo:        repository.NewGormPaymentRepository(db),
		OrderRepo:   orderRepo,
		Orders:      orderService,
		Snap:        gw.snap,
		QR:          gw.qr,
		Idempotency: repository.NewIdempotencyStore(redisClient, 24*time.Hour),
		Objects:     objects,
		SNS:         snsClient,
		TopicArn:    cfg.PaymentTopicARN,
		Metrics:     metrics,
		Logger:      zapLogger,
	})
	shippingService := services.NewShippingService(gw.regions, cfg.OriginDistrictID, metrics, zapLogger)
	checkoutService := checkout.NewService(checkout.Config{
		Orders:   orderService,
		Promos:   promoService,
		Payments: paymentService,
		Regions:  gw.regions,
		Origin:   cfg.OriginDistrictID,
		Metrics:  metrics,
		Logger:   zapLogger,
	})

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(zapLogger, "/health", "/metrics"))
	r.Use(apperrors.ErrorMiddleware(zapLogger))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORS(cfg.AllowedOrigins))
	r.Use(commonmw.NewHTTPMetrics(registry, metricsClient, serviceName).Handler())
	r.Use(middleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(r, routes.Controllers{
		Auth:     controllers.NewAuthController(authService),
		Product:  controllers.NewProductController(productService),
		Customer: controllers.NewCustomerController(customerService),
		Order:    controllers.NewOrderController(orderService),
		Promo:    controllers.NewPromoController(promoService),
		Shipping: controllers.NewShippingController(shippingService),
		Payment:  controllers.NewPaymentController(paymentService, zapLogger),
		Checkout: controllers.NewCheckoutController(checkoutService),
	}, authService, registry, routes.DefaultLimits())

	// --- Promo redemption worker ---
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	queueURL := cfg.PromoRedemptionQueueURL
	if queueURL == "" && cfg.PromoRedemptionQueue != "" {
		queueURL, err = aws_pkg.GetQueueURL(context.Background(), awsCfg, cfg.PromoRedemptionQueue)
		if err != nil {
			zapLogger.Fatal("Failed to resolve promo redemption queue", zap.Error(err))
		}
	}
	if queueURL != "" {
		consumer := aws_pkg.NewSQSConsumer(awsCfg, queueURL, zapLogger)
		worker := workers.NewPromoRedemptionWorker(consumer, orderService, promoService, zapLogger)
		go worker.Start(workerCtx)
	}

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		zapLogger.Info("Storefront Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Initiating graceful shutdown...")
	stopWorker()
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zapLogger.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		zapLogger.Error("Database close error", zap.Error(err))
	}

	zapLogger.Info("Storefront Service stopped gracefully")
}
