// cmd/store-service/main.go
package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redis"
	"storefront/internal/pkg/zookeeper"
	"storefront/internal/service/store/application"
	"storefront/internal/service/store/infrastructure"
	"storefront/internal/service/store/infrastructure/adapter"
	"storefront/internal/service/store/interfaces"
)

const (
	serviceName = "store-service"

	// 单次下单工作流的超时上限
	orderProcessingTimeout = 30 * time.Second
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	// 1. 基础设施连接
	db, err := infrastructure.NewDB(
		cfg.Infra.Mysql.User, cfg.Infra.Mysql.Password,
		cfg.Infra.Mysql.Host, cfg.Infra.Mysql.Port, cfg.Infra.Mysql.Database,
	)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect mysql")
	}

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize redis client")
	}

	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect zookeeper")
	}

	notificationWriter := mq.NewKafkaWriter(cfg.KafkaBrokerList(), cfg.Infra.Kafka.NotificationTopic)

	// 2. 出站适配器
	stockLedger, err := adapter.NewStockRedisAdapter(redisClient)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to load stock ledger scripts")
	}
	notifier := adapter.NewNotificationKafkaAdapter(notificationWriter)
	reportStore, err := adapter.NewReportMinioAdapter(
		cfg.Infra.Minio.Endpoint, cfg.Infra.Minio.AccessKey, cfg.Infra.Minio.SecretKey,
		cfg.Infra.Minio.Bucket, cfg.Infra.Minio.UseSSL,
	)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize report store")
	}
	reportLocker := adapter.NewReportZkLocker(zkConn)

	// 3. 应用服务与入站适配器
	appSvc := application.NewStoreApplicationService(
		infrastructure.NewGormOrderRepository(db),
		infrastructure.NewGormProductRepository(db),
		stockLedger,
		notifier,
		reportStore,
		reportLocker,
		orderProcessingTimeout,
		otel.Tracer(serviceName),
	)
	handler := interfaces.NewStoreHandler(appSvc)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8080,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if err := notifier.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close notification writer")
			}
			redisClient.Close()
			zkConn.Close()
		},
	})
}
