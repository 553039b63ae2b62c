// internal/service/store/domain/port/notification.go
package port

import (
	"context"

	"storefront/internal/service/store/domain"
)

// NotificationProducer 是通知通道的出站端口。
// 投递语义是 at-least-once，消费方必须幂等
type NotificationProducer interface {
	// SendStockCheck 发布一条"检查这个商品"的通知。
	SendStockCheck(ctx context.Context, notification *domain.StockNotification) error
}
