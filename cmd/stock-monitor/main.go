// cmd/stock-monitor/main.go
package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redis"
	"storefront/internal/service/monitor/application"
	"storefront/internal/service/monitor/infrastructure/adapter"
	"storefront/internal/service/monitor/infrastructure/rule"
	"storefront/internal/service/monitor/interfaces"
)

const (
	serviceName          = "stock-monitor"
	notificationGroupID  = "stock-monitor-group"
	deadLetterGroupID    = "stock-monitor-dlt-group"
	healthAndMetricsPort = 8082
)

// main 函数是应用的"组装根" (Composition Root)
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize redis client")
	}

	alertRule, err := rule.NewCelAlertRule(cfg.App.Alert.Rule, cfg.App.Alert.Threshold)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("invalid alert rule")
	}

	alertProducer := adapter.NewAlertKafkaAdapter(cfg.KafkaBrokerList(), cfg.Infra.Kafka.AlertTopic)

	appSvc := application.NewMonitorApplicationService(
		adapter.NewStockRedisReader(redisClient),
		alertRule,
		alertProducer,
		otel.Tracer(serviceName),
	)

	notificationReader := mq.NewKafkaReader(cfg.KafkaBrokerList(), cfg.Infra.Kafka.NotificationTopic, notificationGroupID)
	dltWriter := mq.NewKafkaWriter(cfg.KafkaBrokerList(), cfg.Infra.Kafka.DltTopic)
	consumer := interfaces.NewNotificationConsumerAdapter(notificationReader, appSvc, dltWriter)

	dltReader := mq.NewKafkaReader(cfg.KafkaBrokerList(), cfg.Infra.Kafka.DltTopic, deadLetterGroupID)
	dltConsumer := interfaces.NewDltConsumerAdapter(dltReader)

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	consumer.Start(consumerCtx)
	dltConsumer.Start(consumerCtx)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        healthAndMetricsPort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", healthzHandler)
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
		},
		OnShutdown: func(ctx context.Context) {
			cancelConsumers()
			consumer.Stop(ctx)
			dltConsumer.Stop(ctx)
			if err := alertProducer.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close alert writer")
			}
			dltWriter.Close()
			redisClient.Close()
		},
	})
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
