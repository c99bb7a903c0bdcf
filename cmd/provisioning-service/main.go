// cmd/provisioning-service/main.go
package main

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"lumina/internal/pkg/bootstrap"
	"lumina/internal/pkg/httpclient"
	"lumina/internal/pkg/logger"
	"lumina/internal/service/provisioning/application"
	"lumina/internal/service/provisioning/infrastructure"
	"lumina/internal/service/provisioning/infrastructure/adapter"
	"lumina/internal/service/provisioning/interfaces"
)

const serviceName = "provisioning-service"

// repair 扫描的参数: 只处理落后于当前时间一定间隔的挂起记录，
// 避免和正在进行中的开通请求竞争
const (
	repairInterval = time.Minute
	repairMinAge   = 2 * time.Minute
	repairBatch    = 100
)

// main 是开通服务的组装根: 创建并组装所有依赖项，然后启动应用
func main() {
	cfg := bootstrap.GetCurrentConfig()

	db, err := gorm.Open(mysql.Open(cfg.Infra.Mysql.DSN), &gorm.Config{})
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect to mysql")
	}

	tracer := otel.Tracer(serviceName)
	orderRepo := infrastructure.NewGormOrderRepository(db)
	commitRepo := infrastructure.NewGormCommitRepository(db)
	identity := adapter.NewIdentityHTTPAdapter(httpclient.NewClient(tracer), cfg.Infra.Identity.BaseURL)

	service := application.NewProvisioningService(orderRepo, commitRepo, identity, tracer)
	handler := interfaces.NewProvisioningHandler(service, cfg.RequestTimeout())

	repairCtx, stopRepair := context.WithCancel(context.Background())
	go repairLoop(repairCtx, service)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        9090,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			stopRepair()
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		},
	})
}

// repairLoop 周期性扫描挂起的开通提交记录，补齐部分失败留下的订单更新。
// 该循环和 /provision/repair 手动触发端点共用同一应用层方法。
func repairLoop(ctx context.Context, service *application.ProvisioningService) {
	ticker := time.NewTicker(repairInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			repaired, err := service.RepairPendingCommits(ctx, repairMinAge, repairBatch)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Logger().Error().Err(err).Msg("background repair pass failed")
				}
				continue
			}
			if repaired > 0 {
				logger.Logger().Info().Int("repaired", repaired).Msg("background repair pass closed pending commits")
			}
		}
	}
}
