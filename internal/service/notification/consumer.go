// internal/service/notification/consumer.go
package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lumina/internal/pkg/logger"
	"lumina/internal/pkg/mq"
)

const serviceName = "notification-service"

var emailsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notification_access_emails_total",
	Help: "Access emails consumed from the notification topic, by result.",
}, []string{"result"})

// AccessEmailEvent 是从通知主题消费的访问邮件事件。
// 生产端在 checkout-service 的邮件适配器中定义同构结构，
// 两侧各自持有自己的契约副本，避免跨服务的包依赖。
type AccessEmailEvent struct {
	EventID       string `json:"eventId"`
	OrderID       string `json:"orderId"`
	CustomerEmail string `json:"customerEmail"`
	ServiceTitle  string `json:"serviceTitle"`
	AmountDisplay string `json:"amountDisplay"`
	RequestedAt   string `json:"requestedAt"`
}

// Consumer 是一个驱动适配器，监听访问邮件主题并执行投递
type Consumer struct {
	reader  *kafka.Reader
	tracer  trace.Tracer
	wg      sync.WaitGroup
	stopped bool
}

// NewConsumer 创建一个新的邮件消费者
func NewConsumer(reader *kafka.Reader) *Consumer {
	return &Consumer{
		reader: reader,
		tracer: otel.Tracer(serviceName),
	}
}

// Start 开始监听访问邮件主题，这是一个长期运行的方法
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Logger().Info().Str("topic", c.reader.Config().Topic).Msg("access email consumer started")
		for {
			if c.stopped {
				return
			}
			// 使用 FetchMessage 而不是 ReadMessage，处理成功后再提交 offset
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Logger().Info().Msg("access email consumer shutting down")
					return
				}
				logger.Logger().Error().Err(err).Msg("could not fetch message, retrying")
				time.Sleep(time.Second) // 避免快速失败循环
				continue
			}

			c.processMessage(ctx, msg)

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				logger.Logger().Error().Err(err).Msg("failed to commit message offset")
			}
		}
	}()
}

// Stop 优雅地停止消费者
func (c *Consumer) Stop() {
	c.stopped = true
	c.reader.Close()
	c.wg.Wait()
	logger.Logger().Info().Msg("access email consumer stopped")
}

// processMessage 恢复追踪上下文、反序列化事件并投递邮件
func (c *Consumer) processMessage(parentCtx context.Context, msg kafka.Message) {
	ctx := mq.ExtractTraceContext(parentCtx, msg.Headers)

	spanOpts := []trace.SpanStartOption{
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
			attribute.String("messaging.kafka.message.key", string(msg.Key)),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	}
	ctx, span := c.tracer.Start(ctx, "notification-service.ProcessAccessEmail", spanOpts...)
	defer span.End()

	var event AccessEmailEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// 畸形消息跳过并提交，留在队列里只会反复失败
		logger.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal access email event, message skipped")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		emailsProcessed.WithLabelValues("malformed").Inc()
		return
	}

	span.SetAttributes(
		attribute.String("order.id", event.OrderID),
		attribute.String("event.id", event.EventID),
	)

	if event.CustomerEmail == "" {
		logger.Ctx(ctx).Warn().Str("order_id", event.OrderID).Msg("access email event has no recipient, dropped")
		emailsProcessed.WithLabelValues("no_recipient").Inc()
		return
	}

	if err := c.deliver(ctx, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", event.OrderID).Msg("failed to deliver access email")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		emailsProcessed.WithLabelValues("failed").Inc()
		return
	}

	span.AddEvent("Access email delivered.")
	emailsProcessed.WithLabelValues("delivered").Inc()
	logger.Ctx(ctx).Info().
		Str("order_id", event.OrderID).
		Str("recipient", event.CustomerEmail).
		Msg("access email delivered")
}

// deliver 执行实际的邮件投递。
// TODO: 接入真实的邮件网关，目前以固定延迟模拟 SMTP 往返。
func (c *Consumer) deliver(ctx context.Context, event *AccessEmailEvent) error {
	_, span := c.tracer.Start(ctx, "notification-service.SendEmail")
	defer span.End()
	span.SetAttributes(attribute.String("email.subject", "Your access to "+event.ServiceTitle))

	time.Sleep(50 * time.Millisecond)
	return nil
}
