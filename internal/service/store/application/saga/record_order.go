// internal/service/store/application/saga/record_order.go
package saga

import (
	"context"

	"github.com/pkg/errors"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/store/domain"
)

// RecordOrderHandler 负责把订单以 PENDING 状态写入订单日志。
// 写入失败时直接中断，后续不会有任何库存变更或通知
type RecordOrderHandler struct {
	NextHandler
}

func (h *RecordOrderHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.RecordOrder")
	defer span.End()

	if err := orderCtx.Repo.Save(ctx, orderCtx.Order); err != nil {
		span.RecordError(err)
		return errors.Wrapf(err, "failed to record order %s", orderCtx.Order.ID)
	}
	span.AddEvent("Order saved with PENDING state.")

	// 写入成功后注册补偿：后续任何一步失败，订单都会被标记为 FAILED，
	// 不会留下看起来已被接受的孤儿订单
	orderCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.FailOrder")
		defer compSpan.End()

		orderCtx.Order.MarkAsFailed()
		if err := orderCtx.Repo.UpdateState(compCtx, orderCtx.Order.ID, domain.StateFailed); err != nil {
			// 补偿失败需要人工介入，只能靠日志和告警暴露
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).
				Str("order", orderCtx.Order.ID).
				Msg("CRITICAL: failed to mark order as FAILED during compensation")
		}
	})

	return h.executeNext(orderCtx)
}
