// internal/service/checkout/domain/port/mailer.go
package port

import (
	"context"

	"lumina/internal/service/checkout/domain"
)

// AccessMailer 是访问邮件投递的出站端口。
// 发送是 fire-and-forget: 失败报告给调用方，但本服务不做自动重试。
type AccessMailer interface {
	Send(ctx context.Context, summary *domain.OrderSummary) error
}
