// internal/service/monitor/infrastructure/adapter/alert_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"storefront/internal/pkg/mq"
	"storefront/internal/service/monitor/domain"
)

// AlertKafkaAdapter 将低库存告警发布到告警主题, 下游由推送网关广播.
type AlertKafkaAdapter struct {
	writer *kafka.Writer
}

func NewAlertKafkaAdapter(brokers []string, topic string) *AlertKafkaAdapter {
	return &AlertKafkaAdapter{writer: mq.NewKafkaWriter(brokers, topic)}
}

func (a *AlertKafkaAdapter) SendLowStock(ctx context.Context, alert *domain.LowStockAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return errors.Wrap(err, "marshal low stock alert")
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(alert.Product), payload)
}

func (a *AlertKafkaAdapter) Close() error {
	return a.writer.Close()
}
