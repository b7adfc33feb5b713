package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	aws_pkg "github.com/tobaccostore/backend/pkg/aws"
)

// eventPublisher sends best-effort JSON events to one SNS topic.
type eventPublisher struct {
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

func (p eventPublisher) enabled() bool {
	return p.snsClient != nil && p.snsTopicArn != ""
}

// publishEvent logs and returns any failure. Without a topic it does nothing.
func (p eventPublisher) publishEvent(ctx context.Context, eventType string, event interface{}) error {
	if !p.enabled() {
		return nil
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("event_type", eventType), zap.Error(err))
		return err
	}

	if err := p.snsClient.Publish(ctx, p.snsTopicArn, eventBytes); err != nil {
		p.logger.Error("Failed to publish event", zap.String("event_type", eventType), zap.Error(err))
		return err
	}

	p.logger.Info("Published event", zap.String("event_type", eventType))
	return nil
}
