// internal/service/monitor/application/service.go
package application

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/monitor/domain"
	"storefront/internal/service/monitor/domain/port"
)

// MonitorApplicationService 是低库存监控的业务核心。
// 投递语义是 at-least-once，这里的处理必须幂等：
// 每条通知都重新读取当前库存再判断，不依赖消息本身携带的任何数量
type MonitorApplicationService struct {
	ledger port.StockReader
	rule   port.AlertRule
	alerts port.AlertProducer
	tracer trace.Tracer
}

func NewMonitorApplicationService(ledger port.StockReader, rule port.AlertRule, alerts port.AlertProducer, tracer trace.Tracer) *MonitorApplicationService {
	return &MonitorApplicationService{ledger: ledger, rule: rule, alerts: alerts, tracer: tracer}
}

// CheckStock 处理一条库存检查通知。
// 读库存或发告警的失败只记日志不上抛——消费端无论如何都会提交这条消息，
// 接受可能的告警丢失，换取队列不被单条消息卡死
func (s *MonitorApplicationService) CheckStock(ctx context.Context, event *domain.StockNotification) {
	ctx, span := s.tracer.Start(ctx, "monitor.CheckStock")
	defer span.End()

	span.SetAttributes(attribute.String("product", event.Product))
	notificationsProcessedTotal.Inc()

	quantity, found, err := s.ledger.Get(ctx, event.Product)
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).
			Str("product", event.Product).
			Msg("Error fetching stock record, notification dropped")
		return
	}
	if !found {
		logger.Ctx(ctx).Warn().
			Str("product", event.Product).
			Msg("No stock record found for product, skipping")
		return
	}

	span.SetAttributes(attribute.Int("quantity", quantity))

	fire, err := s.rule.ShouldAlert(event.Product, quantity)
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).
			Str("product", event.Product).
			Msg("Alert rule evaluation failed, notification dropped")
		return
	}
	if !fire {
		return
	}

	alert := &domain.LowStockAlert{
		Product:  event.Product,
		Quantity: quantity,
		Message:  fmt.Sprintf("%s has low quantity (%d left)", event.Product, quantity),
	}
	if err := s.alerts.SendLowStock(ctx, alert); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).
			Str("product", event.Product).
			Msg("Failed to publish low stock alert")
		return
	}

	alertsFiredTotal.Inc()
	span.AddEvent("Low stock alert published.")
	logger.Ctx(ctx).Info().
		Str("product", event.Product).
		Int("quantity", quantity).
		Msg("Low stock alert sent")
}
