// cmd/notification-service/main.go
package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lumina/internal/pkg/bootstrap"
	"lumina/internal/pkg/mq"
	"lumina/internal/service/notification"
)

const (
	serviceName     = "notification-service"
	consumerGroupID = "access-email-group"
)

// main 是通知服务的组装根。服务本体是 Kafka 消费者，
// HTTP 端口只承载健康检查与指标。
func main() {
	cfg := bootstrap.GetCurrentConfig()

	brokers := strings.Split(cfg.Infra.Kafka.Brokers, ",")
	reader := mq.NewKafkaReader(brokers, cfg.Infra.Kafka.AccessEmailTopic, consumerGroupID)
	consumer := notification.NewConsumer(reader)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumer.Start(consumerCtx)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        9093,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
		},
		OnShutdown: func(ctx context.Context) {
			stopConsumer()
			consumer.Stop()
		},
	})
}
