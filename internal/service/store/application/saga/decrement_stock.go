// internal/service/store/application/saga/decrement_stock.go
package saga

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/store/domain"
	"storefront/internal/service/store/domain/port"
)

// DecrementStockHandler 负责库存的原子条件扣减。
// 这里不做读后写：并发订单各自读到同一个余量再回写，
// 后写会覆盖先写，直接超卖，所以扣减必须在账本侧一步完成
type DecrementStockHandler struct {
	NextHandler
}

func (h *DecrementStockHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.DecrementStock")
	defer span.End()

	order := orderCtx.Order
	span.SetAttributes(
		attribute.String("product", order.Product),
		attribute.Int("quantity", order.Quantity),
	)

	result, err := orderCtx.Ledger.ConditionalDecrement(ctx, order.Product, order.Quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Stock decrement failed")
		return errors.Wrapf(err, "failed to decrement stock for %s", order.Product)
	}

	switch result {
	case port.DecrementNotFound:
		span.AddEvent("Product not found in stock ledger.")
		return errors.Wrap(domain.ErrProductNotFound, order.Product)
	case port.DecrementInsufficient:
		span.AddEvent("Insufficient stock, ledger untouched.")
		return errors.Wrapf(domain.ErrInsufficientStock, "product %s, requested %d", order.Product, order.Quantity)
	}

	// 扣减成功，注册补偿：把扣掉的数量原子地加回去
	orderCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.RestoreStock")
		defer compSpan.End()

		compSpan.SetAttributes(attribute.String("product", order.Product))
		if err := orderCtx.Ledger.Restore(compCtx, order.Product, order.Quantity); err != nil {
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).
				Str("order", order.ID).
				Str("product", order.Product).
				Msg("CRITICAL: failed to restore stock during compensation")
		}
	})

	span.AddEvent("Stock decremented successfully.")
	return h.executeNext(orderCtx)
}
