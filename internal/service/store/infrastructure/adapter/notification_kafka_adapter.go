// internal/service/store/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"storefront/internal/pkg/mq"
	"storefront/internal/service/store/domain"
)

// NotificationKafkaAdapter 实现了 port.NotificationProducer 接口。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

// NewNotificationKafkaAdapter 创建一个新的通知生产者适配器。
func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

// SendStockCheck 把"检查这个商品"的消息发到通知主题。
// 以商品名作为消息 Key，同一商品的通知有序到达同一分区
func (a *NotificationKafkaAdapter) SendStockCheck(ctx context.Context, notification *domain.StockNotification) error {
	eventBytes, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal stock notification: %w", err)
	}

	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	return mq.ProduceMessage(ctx, a.writer, []byte(notification.Product), eventBytes)
}

// Close 关闭底层的Kafka writer。
func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
