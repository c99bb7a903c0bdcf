// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"lumina/internal/pkg/logger"
	"lumina/internal/pkg/nacos"
	"lumina/internal/tracing"
)

// AppCtx 在服务注册路由时提供共享的运行时对象
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client
}

// AppInfo 包含了启动一个微服务所需的所有特定信息
type AppInfo struct {
	ServiceName string
	Port        int
	// RegisterHandlers 允许每个服务注册自己独有的 HTTP 路由
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在 HTTP 服务器关闭前执行，用于停掉消费者等后台组件
	OnShutdown func(ctx context.Context)
}

// StartService 封装了所有微服务通用的启动与优雅关停逻辑:
// 初始化日志和追踪、注册到 Nacos、启动 HTTP 服务器、等待退出信号后按序清理。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)

	cfg := GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	namingClient, err := nacos.NewClient(
		getEnv("NACOS_SERVER_ADDRS", "localhost:8848"),
		os.Getenv("NACOS_NAMESPACE"),
		os.Getenv("NACOS_GROUP"),
	)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize nacos client")
	}

	ip, err := outboundIP()
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to get outbound IP address")
	}

	if err := namingClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to register service with nacos")
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: namingClient})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Logger().Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger().Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger().Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 清理顺序: 先从注册中心摘除流量，再停后台组件，最后关闭 HTTP 和追踪
	if err := namingClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
		logger.Logger().Error().Err(err).Msg("error deregistering from nacos")
	}

	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("error shutting down http server")
	}

	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("error shutting down tracer provider")
	}

	logger.Logger().Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}

// outboundIP 获取本机对外通信使用的 IP，用于服务注册
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
