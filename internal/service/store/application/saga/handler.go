// internal/service/store/application/saga/handler.go
package saga

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/store/domain"
	"storefront/internal/service/store/domain/port"
)

// OrderContext 在下单 Saga 流程中传递上下文数据。
// 所有外部依赖都是抽象端口，便于在测试里替换
type OrderContext struct {
	Ctx    context.Context
	Order  *domain.Order // <-- 传递核心领域对象
	Tracer trace.Tracer

	// 依赖出站端口 (Interfaces)
	Repo   domain.OrderRepository
	Ledger port.StockLedger

	// 补偿函数栈
	compensations []func(ctx context.Context)
	// 保护补偿栈并发安全的锁
	compLock sync.Mutex
}

// AddCompensation 将一个补偿函数推入栈中
// 使用 LIFO (后进先出) 方式，后注册的补偿先执行
func (c *OrderContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

// TriggerCompensation 负责执行所有已注册的补偿函数
func (c *OrderContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().
		Str("order", c.Order.ID).
		Int("count", len(c.compensations)).
		Msg("Executing compensation functions")
	for _, comp := range c.compensations {
		comp(ctx)
	}
	c.compensations = nil
}

// Handler 定义了责任链中每个节点的接口
type Handler interface {
	// SetNext 设置链中的下一个处理器
	SetNext(handler Handler) Handler
	// Handle 执行当前节点的处理逻辑
	Handle(orderCtx *OrderContext) error
}

// NextHandler 是一个辅助结构，嵌入到具体的处理器中，以减少重复代码
type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

// executeNext 封装了调用下一个处理器的通用逻辑
func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
