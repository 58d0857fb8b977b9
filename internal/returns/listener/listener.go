package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/returns"
	"github.com/fekuna/omnipos-sales-service/internal/returns/dto"
)

const (
	EventReturnRecorded      = "return.recorded"
	EventReturnStatusChanged = "return.status_changed"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// ReturnsListener feeds return records published by the return-processing
// service into the local returns store.
type ReturnsListener struct {
	consumer MessageReader
	uc       returns.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewReturnsListener(consumer MessageReader, uc returns.UseCase, logger logger.ZapLogger) *ReturnsListener {
	return &ReturnsListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *ReturnsListener) Start(ctx context.Context) {
	l.logger.Info("Starting Returns Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Returns Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type ReturnEvent struct {
	EventID   string                `json:"event_id"`
	EventType string                `json:"event_type"`
	Payload   dto.RecordReturnInput `json:"payload"`
	Timestamp time.Time             `json:"timestamp"`
}

func (l *ReturnsListener) processMessage(ctx context.Context, value []byte) {
	var event ReturnEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	switch event.EventType {
	case EventReturnRecorded, EventReturnStatusChanged:
	default:
		return
	}

	ret, err := l.uc.RecordReturn(ctx, &event.Payload)
	if err != nil {
		l.logger.Error("Failed to record return",
			zap.String("event_id", event.EventID),
			zap.String("return_id", event.Payload.ID),
			zap.Int64("order_id", event.Payload.OrderID),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("Return recorded",
		zap.String("event_type", event.EventType),
		zap.String("return_id", ret.ID),
		zap.String("status", string(ret.Status)),
	)
}
