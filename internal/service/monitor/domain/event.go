// internal/service/monitor/domain/event.go
package domain

// StockNotification 是从通知主题消费的消息
// 只携带商品名：监控方自己读当前库存，重复投递自然幂等
type StockNotification struct {
	Product string `json:"product"`
	OrderID string `json:"orderId,omitempty"`
}

// LowStockAlert 是发往告警通道的消息
type LowStockAlert struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	Message  string `json:"message"`
}
