// internal/service/checkout/application/service_test.go
package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"lumina/internal/service/checkout/domain"
	"lumina/internal/service/checkout/domain/port"
)

type fakeOrderReader struct {
	records map[string]*domain.OrderRecord
	err     error
}

func (f *fakeOrderReader) FindByID(_ context.Context, id string) (*domain.OrderRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	record, ok := f.records[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return record, nil
}

type fakeGateway struct {
	sessions map[string]*port.GatewaySession
	err      error
}

func (f *fakeGateway) GetSession(_ context.Context, ref string) (*port.GatewaySession, error) {
	if f.err != nil {
		return nil, f.err
	}
	session, ok := f.sessions[ref]
	if !ok {
		return nil, port.ErrSessionNotFound
	}
	return session, nil
}

type fakeMailer struct {
	sent []*domain.OrderSummary
	err  error
}

func (f *fakeMailer) Send(_ context.Context, summary *domain.OrderSummary) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, summary)
	return nil
}

func newCheckout(orders *fakeOrderReader, gateway *fakeGateway, mailer *fakeMailer) *CheckoutService {
	if orders == nil {
		orders = &fakeOrderReader{}
	}
	if gateway == nil {
		gateway = &fakeGateway{}
	}
	if mailer == nil {
		mailer = &fakeMailer{}
	}
	return NewCheckoutService(orders, gateway, mailer, otel.Tracer("test"))
}

func sampleRecord() *domain.OrderRecord {
	return &domain.OrderRecord{
		ID:            "order-7",
		CustomerEmail: "u@x.com",
		Amount:        49.90,
		Currency:      "eur",
		ServiceTitle:  "Intro to Watercolor",
		PaymentMethod: "CARD",
		Status:        "pending",
	}
}

func sampleSession() *port.GatewaySession {
	return &port.GatewaySession{
		ID:               "cs_123",
		AmountTotalMinor: 4490,
		Currency:         "eur",
		CustomerEmail:    "u@x.com",
		PaymentStatus:    "paid",
		OrderID:          "order-7",
	}
}

func TestGetOrderSummary_NoReferences(t *testing.T) {
	svc := newCheckout(nil, nil, nil)

	summary := svc.GetOrderSummary(context.Background(), "", "")
	require.NotNil(t, summary)
	assert.Equal(t, "N/A", summary.OrderID)
	assert.Equal(t, "completed", summary.Status)
	assert.NotEmpty(t, summary.ServiceTitle)
	assert.Equal(t, domain.ConfidencePlaceholder, summary.Confidence)
}

func TestGetOrderSummary_BothSourcesDown(t *testing.T) {
	orders := &fakeOrderReader{err: errors.New("store unavailable")}
	gateway := &fakeGateway{err: errors.New("gateway timeout")}
	svc := newCheckout(orders, gateway, nil)

	summary := svc.GetOrderSummary(context.Background(), "cs_123", "order-7")
	require.NotNil(t, summary)
	// 兜底摘要带上调用方提供的字面引用，乐观标记为已完成
	assert.Equal(t, "order-7", summary.OrderID)
	assert.Equal(t, "completed", summary.Status)
	assert.NotEmpty(t, summary.ServiceTitle)
	assert.Equal(t, domain.ConfidencePlaceholder, summary.Confidence)
}

func TestGetOrderSummary_GatewayAmountWins(t *testing.T) {
	record := sampleRecord()
	record.Amount = 59.90 // 应收金额与实际扣款不一致
	orders := &fakeOrderReader{records: map[string]*domain.OrderRecord{"order-7": record}}
	gateway := &fakeGateway{sessions: map[string]*port.GatewaySession{"cs_123": sampleSession()}}
	svc := newCheckout(orders, gateway, nil)

	summary := svc.GetOrderSummary(context.Background(), "cs_123", "order-7")
	// 网关报的是实际扣款额（最小单位 4490 → 44.90）
	assert.Equal(t, "44.90 EUR", summary.AmountDisplay)
	assert.Equal(t, "completed", summary.Status)
	assert.Equal(t, domain.ConfidenceAuthoritative, summary.Confidence)
}

func TestGetOrderSummary_OrderOnlyUsesMajorUnits(t *testing.T) {
	orders := &fakeOrderReader{records: map[string]*domain.OrderRecord{"order-7": sampleRecord()}}
	gateway := &fakeGateway{err: errors.New("gateway down")}
	svc := newCheckout(orders, gateway, nil)

	summary := svc.GetOrderSummary(context.Background(), "cs_123", "order-7")
	// 订单记录按主单位存储，不做 /100 换算
	assert.Equal(t, "49.90 EUR", summary.AmountDisplay)
	assert.Equal(t, "pending", summary.Status)
	assert.Equal(t, "Intro to Watercolor", summary.ServiceTitle)
	assert.Equal(t, domain.ConfidenceAuthoritative, summary.Confidence)
}

func TestGetOrderSummary_SessionMetadataBackfillsOrder(t *testing.T) {
	orders := &fakeOrderReader{records: map[string]*domain.OrderRecord{"order-7": sampleRecord()}}
	gateway := &fakeGateway{sessions: map[string]*port.GatewaySession{"cs_123": sampleSession()}}
	svc := newCheckout(orders, gateway, nil)

	// 只带会话引用，订单号从网关元数据补出
	summary := svc.GetOrderSummary(context.Background(), "cs_123", "")
	assert.Equal(t, "order-7", summary.OrderID)
	assert.Equal(t, "Intro to Watercolor", summary.ServiceTitle)
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "44.90 EUR", domain.FormatMinorUnits(4490, "eur"))
	assert.Equal(t, "0.05 USD", domain.FormatMinorUnits(5, "usd"))
	assert.Equal(t, "-1.00 EUR", domain.FormatMinorUnits(-100, "eur"))
}

func TestSendAccessEmail_ReportsOutcome(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newCheckout(nil, nil, mailer)
	summary := &domain.OrderSummary{OrderID: "order-7", CustomerEmail: "u@x.com"}

	assert.True(t, svc.SendAccessEmail(context.Background(), summary))
	require.Len(t, mailer.sent, 1)

	failing := &fakeMailer{err: errors.New("broker unreachable")}
	svc = newCheckout(nil, nil, failing)
	// 失败只报告，不重试
	assert.False(t, svc.SendAccessEmail(context.Background(), summary))
}
