package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/sender"
)

//go:embed templates/*.html
var templateFS embed.FS

// Notifier sends customer e-mail about an order.
type Notifier interface {
	OrderConfirmation(ctx context.Context, order *models.Order) error
	PaymentReceipt(ctx context.Context, order *models.Order) error
}

type mailTemplate struct {
	file    string
	subject string
}

var (
	tmplOrderCreated = mailTemplate{file: "templates/order_created.html", subject: "Pesanan %s diterima"}
	tmplOrderPaid    = mailTemplate{file: "templates/order_paid.html", subject: "Pembayaran pesanan %s berhasil"}
)

type notificationService struct {
	emailSender sender.EmailSender
	templates   map[string]*template.Template
	backoff     time.Duration
	logger      *zap.Logger
}

func NewNotificationService(emailSender sender.EmailSender, logger *zap.Logger) (Notifier, error) {
	funcs := template.FuncMap{"rupiah": FormatRupiah}
	tmpls := make(map[string]*template.Template)
	for _, mt := range []mailTemplate{tmplOrderCreated, tmplOrderPaid} {
		tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, mt.file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", mt.file, err)
		}
		tmpls[mt.file] = tmpl.Lookup(path.Base(mt.file))
	}
	return &notificationService{
		emailSender: emailSender,
		templates:   tmpls,
		backoff:     time.Second,
		logger:      logger,
	}, nil
}

func (s *notificationService) OrderConfirmation(ctx context.Context, order *models.Order) error {
	return s.send(ctx, tmplOrderCreated, order)
}

func (s *notificationService) PaymentReceipt(ctx context.Context, order *models.Order) error {
	return s.send(ctx, tmplOrderPaid, order)
}

func (s *notificationService) send(ctx context.Context, mt mailTemplate, order *models.Order) error {
	if order.CustomerEmail == "" {
		s.logger.Warn("missing recipient, skipping e-mail", zap.String("order_id", order.ID.String()))
		return nil
	}

	var buf bytes.Buffer
	if err := s.templates[mt.file].Execute(&buf, order); err != nil {
		return fmt.Errorf("template render failed: %w", err)
	}
	subject := fmt.Sprintf(mt.subject, order.OrderNumber)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}

		result, err := s.emailSender.SendEmail(ctx, order.CustomerEmail, subject, buf.String())
		if err == nil {
			s.logger.Info("e-mail sent",
				zap.String("order_number", order.OrderNumber),
				zap.String("template", mt.file),
				zap.String("message_id", result.MessageID),
			)
			return nil
		}
		lastErr = err
		s.logger.Warn("send attempt failed",
			zap.String("order_number", order.OrderNumber),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return lastErr
}
