// internal/service/checkout/infrastructure/adapter/gateway_http_adapter.go
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"lumina/internal/pkg/httpclient"
	"lumina/internal/service/checkout/domain/port"
)

// GatewayHTTPAdapter 是 port.PaymentGateway 的 HTTP 实现，
// 对接支付网关的 checkout session 查询接口。
type GatewayHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewGatewayHTTPAdapter 创建一个新的支付网关适配器实例
func NewGatewayHTTPAdapter(client *httpclient.Client, baseURL string) *GatewayHTTPAdapter {
	return &GatewayHTTPAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// gatewaySessionResponse 对应网关的会话对象。
// amount_total 以最小货币单位计，这是网关侧的约定。
type gatewaySessionResponse struct {
	ID            string `json:"id"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customer_email"`
	PaymentStatus string `json:"payment_status"`
	Description   string `json:"description"`
	Metadata      struct {
		OrderID string `json:"order_id"`
	} `json:"metadata"`
}

// GetSession 查询一次支付会话；404 映射为 ErrSessionNotFound
func (a *GatewayHTTPAdapter) GetSession(ctx context.Context, sessionRef string) (*port.GatewaySession, error) {
	reqURL := fmt.Sprintf("%s/v1/checkout/sessions/%s", a.baseURL, url.PathEscape(sessionRef))

	var resp gatewaySessionResponse
	status, err := a.client.GetJSON(ctx, reqURL, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, port.ErrSessionNotFound
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("payment gateway returned status %d for session %s", status, sessionRef)
	}

	return &port.GatewaySession{
		ID:               resp.ID,
		AmountTotalMinor: resp.AmountTotal,
		Currency:         resp.Currency,
		CustomerEmail:    resp.CustomerEmail,
		PaymentStatus:    resp.PaymentStatus,
		OrderID:          resp.Metadata.OrderID,
		Description:      resp.Description,
	}, nil
}
