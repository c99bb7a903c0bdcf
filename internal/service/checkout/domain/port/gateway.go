// internal/service/checkout/domain/port/gateway.go
package port

import (
	"context"
	"errors"
)

// ErrSessionNotFound 支付网关不认识该会话引用
var ErrSessionNotFound = errors.New("payment session not found")

// GatewaySession 是支付网关会话的只读投影。
// AmountTotalMinor 以最小货币单位计（网关约定），是实际扣款金额的权威来源。
type GatewaySession struct {
	ID               string
	AmountTotalMinor int64
	Currency         string
	CustomerEmail    string
	PaymentStatus    string
	OrderID          string
	Description      string
}

// PaymentGateway 是支付网关的出站端口，本服务只读
type PaymentGateway interface {
	GetSession(ctx context.Context, sessionRef string) (*GatewaySession, error)
}
