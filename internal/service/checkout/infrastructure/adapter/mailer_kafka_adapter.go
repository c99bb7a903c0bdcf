// internal/service/checkout/infrastructure/adapter/mailer_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"lumina/internal/pkg/mq"
	"lumina/internal/service/checkout/domain"
)

// MailerKafkaAdapter 实现了 port.AccessMailer 接口。
// 访问邮件经 Kafka 投递，notification-service 消费后执行实际发送；
// 消息被 broker 接受即视为发送成功。
type MailerKafkaAdapter struct {
	writer *kafka.Writer
}

// NewMailerKafkaAdapter 创建一个新的邮件生产者适配器
func NewMailerKafkaAdapter(writer *kafka.Writer) *MailerKafkaAdapter {
	return &MailerKafkaAdapter{writer: writer}
}

// AccessEmailEvent 是发往通知主题的领域事件
type AccessEmailEvent struct {
	EventID       string `json:"eventId"`
	OrderID       string `json:"orderId"`
	CustomerEmail string `json:"customerEmail"`
	ServiceTitle  string `json:"serviceTitle"`
	AmountDisplay string `json:"amountDisplay"`
	RequestedAt   string `json:"requestedAt"`
}

// Send 把访问邮件请求发布到通知主题，追踪上下文随消息头传递
func (a *MailerKafkaAdapter) Send(ctx context.Context, summary *domain.OrderSummary) error {
	event := AccessEmailEvent{
		EventID:       uuid.New().String(),
		OrderID:       summary.OrderID,
		CustomerEmail: summary.CustomerEmail,
		ServiceTitle:  summary.ServiceTitle,
		AmountDisplay: summary.AmountDisplay,
		RequestedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal access email event: %w", err)
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(summary.OrderID), eventBytes)
}

// Close 关闭底层的 Kafka writer
func (a *MailerKafkaAdapter) Close() error {
	return a.writer.Close()
}
