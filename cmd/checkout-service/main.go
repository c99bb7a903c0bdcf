// cmd/checkout-service/main.go
package main

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"lumina/internal/pkg/bootstrap"
	"lumina/internal/pkg/httpclient"
	"lumina/internal/pkg/logger"
	"lumina/internal/pkg/mq"
	"lumina/internal/service/checkout/application"
	"lumina/internal/service/checkout/infrastructure"
	"lumina/internal/service/checkout/infrastructure/adapter"
	"lumina/internal/service/checkout/interfaces"
)

const serviceName = "checkout-service"

// main 是结算确认服务的组装根: 创建并组装所有依赖项，然后启动应用
func main() {
	cfg := bootstrap.GetCurrentConfig()

	db, err := gorm.Open(mysql.Open(cfg.Infra.Mysql.DSN), &gorm.Config{})
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect to mysql")
	}

	tracer := otel.Tracer(serviceName)
	orderReader := infrastructure.NewGormOrderReader(db)
	gateway := adapter.NewGatewayHTTPAdapter(httpclient.NewClient(tracer), cfg.Infra.Gateway.BaseURL)

	brokers := strings.Split(cfg.Infra.Kafka.Brokers, ",")
	writer := mq.NewKafkaWriter(brokers, cfg.Infra.Kafka.AccessEmailTopic)
	mailer := adapter.NewMailerKafkaAdapter(writer)

	service := application.NewCheckoutService(orderReader, gateway, mailer, tracer)
	handler := interfaces.NewCheckoutHandler(service, cfg.RequestTimeout())

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        9091,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if err := mailer.Close(); err != nil {
				logger.Logger().Error().Err(err).Msg("error closing kafka writer")
			}
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		},
	})
}
