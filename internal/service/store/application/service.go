// internal/service/store/application/service.go
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/store/application/saga"
	"storefront/internal/service/store/domain"
	"storefront/internal/service/store/domain/port"
)

// StoreApplicationService 编排订单工作流和库存相关的各项操作。
// 所有外部依赖通过构造函数注入，进程内不持有任何全局可变状态
type StoreApplicationService struct {
	orderRepo         domain.OrderRepository
	productRepo       domain.ProductRepository
	ledger            port.StockLedger
	notifier          port.NotificationProducer
	reportStore       port.ReportStore
	reportLocker      port.ReportLocker
	processingTimeout time.Duration
	tracer            trace.Tracer
}

func NewStoreApplicationService(
	orderRepo domain.OrderRepository,
	productRepo domain.ProductRepository,
	ledger port.StockLedger,
	notifier port.NotificationProducer,
	reportStore port.ReportStore,
	reportLocker port.ReportLocker,
	processingTimeout time.Duration,
	tracer trace.Tracer,
) *StoreApplicationService {
	return &StoreApplicationService{
		orderRepo: orderRepo, productRepo: productRepo,
		ledger: ledger, notifier: notifier,
		reportStore: reportStore, reportLocker: reportLocker,
		processingTimeout: processingTimeout, tracer: tracer,
	}
}

// PlaceOrder 是下单工作流的入口。
// 流程: 校验 -> 记录订单(PENDING) -> 原子条件扣减 -> 订单生效(CONFIRMED) -> 发通知。
// 扣减被拒绝或任何依赖失败都会触发补偿，把订单标记为 FAILED 并归还已扣库存；
// 唯一不回滚的失败是最后一步的通知发送（见 domain.ErrNotificationNotSent）
func (s *StoreApplicationService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.PlaceOrder")
	defer span.End()

	// 1. 校验，失败时没有任何副作用
	if err := req.Validate(); err != nil {
		ordersPlacedTotal.WithLabelValues("rejected_invalid").Inc()
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("product", req.Product),
		attribute.Int("quantity", req.Quantity),
	)

	// 2. 为每个订单的处理流程设置独立的超时时间
	processingCtx, cancel := context.WithTimeout(ctx, s.processingTimeout)
	defer cancel()

	orderEntity, err := domain.NewOrder(uuid.New().String(), req.Product, req.Quantity)
	if err != nil {
		ordersPlacedTotal.WithLabelValues("rejected_invalid").Inc()
		return nil, errors.Wrap(domain.ErrInvalidInput, err.Error())
	}

	// 3. 构造责任链所需的上下文
	orderContext := &saga.OrderContext{
		Ctx:    processingCtx,
		Order:  orderEntity,
		Tracer: s.tracer,
		Repo:   s.orderRepo,
		Ledger: s.ledger,
	}

	logger.Ctx(ctx).Info().
		Str("order", orderEntity.ID).
		Str("product", orderEntity.Product).
		Int("quantity", orderEntity.Quantity).
		Msg("Starting order placement workflow")

	// 4. 执行责任链
	if err := s.buildChain().Handle(orderContext); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("order", orderEntity.ID).
			Msg("Order workflow failed, compensation triggered")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Order workflow failed")

		orderContext.TriggerCompensation(processingCtx)
		ordersPlacedTotal.WithLabelValues(placeOrderResult(err)).Inc()
		return nil, err
	}

	// 5. 流程成功，订单生效
	if err := orderEntity.MarkAsConfirmed(); err != nil {
		// 状态机被破坏属于编程错误，补偿后原样上抛
		orderContext.TriggerCompensation(processingCtx)
		ordersPlacedTotal.WithLabelValues("dependency_error").Inc()
		return nil, err
	}
	if err := s.orderRepo.Save(processingCtx, orderEntity); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("order", orderEntity.ID).
			Msg("CRITICAL: failed to save order as CONFIRMED")
		span.RecordError(err)
		orderContext.TriggerCompensation(processingCtx)
		ordersPlacedTotal.WithLabelValues("dependency_error").Inc()
		return nil, errors.Wrapf(err, "failed to confirm order %s", orderEntity.ID)
	}

	resp := &PlaceOrderResponse{Success: true, OrderID: orderEntity.ID}

	// 6. 发布库存检查通知。失败不回滚：订单已生效、库存已扣减，
	// 调用方拿到订单号和一个区分于其他失败的错误
	notification := &domain.StockNotification{Product: orderEntity.Product, OrderID: orderEntity.ID}
	if err := s.notifier.SendStockCheck(processingCtx, notification); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("order", orderEntity.ID).
			Msg("Order confirmed but stock notification was not published")
		span.RecordError(err)
		ordersPlacedTotal.WithLabelValues("notification_failed").Inc()
		return resp, errors.Wrap(domain.ErrNotificationNotSent, err.Error())
	}

	logger.Ctx(ctx).Info().Str("order", orderEntity.ID).Msg("✅ Order placed successfully")
	span.AddEvent("Order confirmed and notification sent.")
	ordersPlacedTotal.WithLabelValues("success").Inc()
	return resp, nil
}

func (s *StoreApplicationService) buildChain() saga.Handler {
	orderChain := new(saga.RecordOrderHandler)
	orderChain.SetNext(new(saga.DecrementStockHandler))
	return orderChain
}

// placeOrderResult 把工作流错误映射成指标标签
func placeOrderResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "rejected_not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "rejected_insufficient"
	default:
		return "dependency_error"
	}
}

// AddInventory 新增或覆盖一条商品记录：目录元数据进数据库，数量进库存账本
func (s *StoreApplicationService) AddInventory(ctx context.Context, req *AddInventoryRequest) error {
	ctx, span := s.tracer.Start(ctx, "app.AddInventory")
	defer span.End()

	if err := req.Validate(); err != nil {
		return err
	}

	span.SetAttributes(attribute.String("product", req.Product))

	product := &domain.Product{
		Name:        req.Product,
		Category:    req.Category,
		Description: req.Description,
		Cost:        req.Cost,
	}
	if err := s.productRepo.Upsert(ctx, product); err != nil {
		span.RecordError(err)
		return errors.Wrapf(err, "failed to upsert catalog record for %s", req.Product)
	}

	record := &domain.StockRecord{Product: req.Product, Quantity: req.Quantity}
	if err := s.ledger.Put(ctx, record); err != nil {
		span.RecordError(err)
		return errors.Wrapf(err, "failed to write stock record for %s", req.Product)
	}

	logger.Ctx(ctx).Info().
		Str("product", req.Product).
		Int("quantity", req.Quantity).
		Msg("Inventory record written")
	return nil
}

// ListCatalog 返回当前有货的商品名。
// 目录名单来自数据库，余量逐个查账本，查询并发执行
func (s *StoreApplicationService) ListCatalog(ctx context.Context) (*CatalogResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListCatalog")
	defer span.End()

	names, err := s.productRepo.ListNames(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to scan catalog")
	}

	quantities := make([]int, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			record, err := s.ledger.Get(gctx, name)
			if err != nil {
				// 目录里有、账本里没有的商品视为无货
				if errors.Is(err, domain.ErrProductNotFound) {
					return nil
				}
				return err
			}
			quantities[i] = record.Quantity
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to read stock ledger")
	}

	available := make([]string, 0, len(names))
	for i, name := range names {
		if quantities[i] > 0 {
			available = append(available, name)
		}
	}

	span.SetAttributes(attribute.Int("catalog.available", len(available)))
	return &CatalogResponse{Available: available}, nil
}
