// cmd/content-service/main.go
package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"lumina/internal/pkg/bootstrap"
	"lumina/internal/pkg/logger"
	"lumina/internal/pkg/redis"
	"lumina/internal/service/content/application"
	"lumina/internal/service/content/domain"
	"lumina/internal/service/content/infrastructure"
	"lumina/internal/service/content/infrastructure/adapter"
	"lumina/internal/service/content/interfaces"
)

const serviceName = "content-service"

// main 是内容服务的组装根: 创建并组装所有依赖项，然后启动应用
func main() {
	cfg := bootstrap.GetCurrentConfig()

	db, err := gorm.Open(mysql.Open(cfg.Infra.Mysql.DSN), &gorm.Config{})
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect to mysql")
	}

	var redisClient *redis.Client
	counter := buildViewCounter(cfg, db, &redisClient)

	tracer := otel.Tracer(serviceName)
	repo := infrastructure.NewGormContentRepository(db)
	service := application.NewContentService(repo, counter, tracer)
	handler := interfaces.NewContentHandler(service, cfg.RequestTimeout())

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        9092,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if redisClient != nil {
				redisClient.Close()
			}
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		},
	})
}

// buildViewCounter 按配置选择浏览计数后端。
// 默认走 MySQL 单条 UPDATE，高流量部署可切到 Redis。
func buildViewCounter(cfg *bootstrap.Config, db *gorm.DB, redisClient **redis.Client) domain.ViewCounter {
	if cfg.App.ViewCounterBackend != "redis" {
		return infrastructure.NewGormViewCounter(db)
	}

	client, err := redis.NewClient(cfg.Infra.Redis.Addrs)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect to redis for view counter")
	}
	*redisClient = client

	viewsAdapter, err := adapter.NewViewsRedisAdapter(client)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize redis view counter")
	}
	logger.Logger().Info().Msg("view counter backend: redis")
	return viewsAdapter
}
