// internal/service/monitor/interfaces/consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/service/monitor/application"
	"storefront/internal/service/monitor/domain"
)

// NotificationConsumerAdapter 是一个驱动适配器，它监听库存通知主题并驱动监控应用服务。
type NotificationConsumerAdapter struct {
	reader    *kafka.Reader
	appSvc    *application.MonitorApplicationService
	dltWriter *kafka.Writer
	wg        sync.WaitGroup
	stopped   atomic.Bool
}

// NewNotificationConsumerAdapter 创建一个新的库存通知消费者适配器。
func NewNotificationConsumerAdapter(reader *kafka.Reader, appSvc *application.MonitorApplicationService, dltWriter *kafka.Writer) *NotificationConsumerAdapter {
	return &NotificationConsumerAdapter{
		reader:    reader,
		appSvc:    appSvc,
		dltWriter: dltWriter,
	}
}

// Start 开始监听库存通知主题。这是一个长期运行的方法。
func (a *NotificationConsumerAdapter) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Ctx(ctx).Info().Str("topic", a.reader.Config().Topic).Msg("✅ Notification Consumer Adapter started.")
		for {
			if a.stopped.Load() {
				return
			}
			// 使用FetchMessage而不是ReadMessage，以便手动控制提交时机
			msg, err := a.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Ctx(ctx).Info().Msg("🛑 Notification Consumer Adapter shutting down.")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("could not read message, retrying...")
				time.Sleep(1 * time.Second) // 避免快速失败循环
				continue
			}

			a.processMessage(ctx, msg)

			// 消息处理完成后提交Offset. 不可解析的消息已转入死信主题, 同样提交.
			if err := a.reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to commit messages")
			}
		}
	}()
}

// Stop 优雅地停止消费者。
func (a *NotificationConsumerAdapter) Stop(ctx context.Context) {
	a.stopped.Store(true)
	a.reader.Close()
	a.wg.Wait()
	logger.Ctx(ctx).Info().Msg("✅ Notification Consumer Adapter stopped.")
}

// processMessage 重建追踪上下文并调用应用服务。
func (a *NotificationConsumerAdapter) processMessage(parentCtx context.Context, msg kafka.Message) {
	propagator := otel.GetTextMapPropagator()
	headerCarrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := propagator.Extract(parentCtx, &headerCarrier)

	var event domain.StockNotification
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("value", string(msg.Value)).
			Msg("failed to unmarshal stock notification, moving to DLT")
		a.sendToDLT(ctx, msg, err)
		return
	}
	if event.Product == "" {
		err := fmt.Errorf("stock notification has empty product")
		logger.Ctx(ctx).Error().Str("value", string(msg.Value)).
			Msg("stock notification missing product, moving to DLT")
		a.sendToDLT(ctx, msg, err)
		return
	}

	// CheckStock 内部吞掉业务错误, 这里无需再判断是否重试
	a.appSvc.CheckStock(ctx, &event)
}

// sendToDLT 携带原始坐标和异常信息, 将坏消息转入死信主题.
func (a *NotificationConsumerAdapter) sendToDLT(ctx context.Context, msg kafka.Message, cause error) {
	if a.dltWriter == nil {
		return
	}
	dltMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: []kafka.Header{
			{Key: mq.HeaderOriginalTopic, Value: []byte(msg.Topic)},
			{Key: mq.HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
			{Key: mq.HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
			{Key: mq.HeaderExceptionFqcn, Value: []byte(fmt.Sprintf("%T", cause))},
			{Key: mq.HeaderExceptionMessage, Value: []byte(cause.Error())},
		},
	}
	if err := a.dltWriter.WriteMessages(ctx, dltMsg); err != nil {
		// 死信写入失败只能记日志, 原消息仍会被提交以避免阻塞整个分区
		logger.Ctx(ctx).Error().Err(err).Msg("🚨 CRITICAL: failed to write message to DLT")
		return
	}
	deadLettersTotal.Inc()
}
