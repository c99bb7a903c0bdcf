// internal/service/checkout/application/service.go
package application

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"lumina/internal/pkg/logger"
	"lumina/internal/service/checkout/domain"
	"lumina/internal/service/checkout/domain/port"
)

// CheckoutService 负责订单状态的对账:
// 把支付网关会话与内部订单记录合并成一份展示摘要，
// 任一上游失败都降级而不是报错，确认页永远渲染得出来。
type CheckoutService struct {
	orders  domain.OrderReader
	gateway port.PaymentGateway
	mailer  port.AccessMailer
	tracer  trace.Tracer
}

// NewCheckoutService 创建对账服务实例
func NewCheckoutService(orders domain.OrderReader, gateway port.PaymentGateway, mailer port.AccessMailer, tracer trace.Tracer) *CheckoutService {
	return &CheckoutService{orders: orders, gateway: gateway, mailer: mailer, tracer: tracer}
}

// GetOrderSummary 依据支付会话引用和/或内部订单号产出统一摘要。
// 逐字段合并优先级: 网关数据（实际扣款的权威来源）> 订单记录 > 兜底占位。
// 该方法从不返回错误。
func (s *CheckoutService) GetOrderSummary(ctx context.Context, sessionRef, orderRef string) *domain.OrderSummary {
	ctx, span := s.tracer.Start(ctx, "checkout.GetOrderSummary")
	defer span.End()

	span.SetAttributes(
		attribute.Bool("reconcile.has_session_ref", sessionRef != ""),
		attribute.Bool("reconcile.has_order_ref", orderRef != ""),
	)

	if sessionRef == "" && orderRef == "" {
		// 两个引用都缺失时也要渲染出东西来
		span.AddEvent("No references supplied, returning placeholder summary.")
		return s.placeholderSummary("N/A")
	}

	// 两个上游独立可失败，并行拉取，各自的失败只记录不传播
	var session *port.GatewaySession
	var record *domain.OrderRecord

	g, fetchCtx := errgroup.WithContext(ctx)
	if sessionRef != "" {
		g.Go(func() error {
			got, err := s.gateway.GetSession(fetchCtx, sessionRef)
			if err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("session_ref", sessionRef).Msg("gateway session fetch failed, degrading")
				return nil
			}
			session = got
			return nil
		})
	}
	if orderRef != "" {
		g.Go(func() error {
			got, err := s.orders.FindByID(fetchCtx, orderRef)
			if err != nil {
				if !errors.Is(err, domain.ErrOrderNotFound) {
					logger.Ctx(ctx).Warn().Err(err).Str("order_ref", orderRef).Msg("order record fetch failed, degrading")
				}
				return nil
			}
			record = got
			return nil
		})
	}
	g.Wait()

	// 只有会话引用时，网关元数据可能带出订单号，再补一次订单读取
	if record == nil && session != nil && session.OrderID != "" {
		got, err := s.orders.FindByID(ctx, session.OrderID)
		if err == nil {
			record = got
		}
	}

	if session == nil && record == nil {
		// 两个上游全挂: 乐观地按已完成渲染（能走到确认页意味着网关侧
		// 支付已成功），Confidence 标记让这层近似对调用方可见
		span.AddEvent("Both sources unavailable, returning placeholder summary.")
		ref := orderRef
		if ref == "" {
			ref = sessionRef
		}
		return s.placeholderSummary(ref)
	}

	summary := s.merge(session, record, orderRef)
	span.SetAttributes(attribute.String("reconcile.confidence", string(summary.Confidence)))
	return summary
}

// merge 执行逐字段的优先级合并
func (s *CheckoutService) merge(session *port.GatewaySession, record *domain.OrderRecord, orderRef string) *domain.OrderSummary {
	summary := &domain.OrderSummary{
		OrderID:      orderRef,
		ServiceTitle: domain.PlaceholderTitle,
		Status:       "completed",
		Confidence:   domain.ConfidenceAuthoritative,
	}

	if record != nil {
		summary.OrderID = record.ID
		summary.CustomerEmail = record.CustomerEmail
		summary.PaymentMethod = record.PaymentMethod
		if record.ServiceTitle != "" {
			summary.ServiceTitle = record.ServiceTitle
		}
		if record.Status != "" {
			summary.Status = record.Status
		}
		// 订单记录的金额按主单位存储
		summary.AmountDisplay = domain.FormatMajorUnits(record.Amount, record.Currency)
	}

	if session != nil {
		if summary.OrderID == "" {
			summary.OrderID = session.OrderID
		}
		if session.CustomerEmail != "" {
			summary.CustomerEmail = session.CustomerEmail
		}
		if summary.ServiceTitle == domain.PlaceholderTitle && session.Description != "" {
			summary.ServiceTitle = session.Description
		}
		// 网关的实际扣款金额优先于订单记录的应收金额，
		// 网关按最小单位报金额，换算路径与订单记录严格分开
		summary.AmountDisplay = domain.FormatMinorUnits(session.AmountTotalMinor, session.Currency)
		if session.PaymentStatus != "" {
			summary.Status = reconcileStatus(session.PaymentStatus)
		}
	}

	if summary.OrderID == "" {
		summary.OrderID = "N/A"
	}
	return summary
}

// reconcileStatus 把网关的支付状态映射到订单生命周期词汇
func reconcileStatus(paymentStatus string) string {
	switch paymentStatus {
	case "paid", "no_payment_required":
		return "completed"
	case "unpaid", "pending":
		return "pending"
	default:
		return "completed"
	}
}

func (s *CheckoutService) placeholderSummary(ref string) *domain.OrderSummary {
	if ref == "" {
		ref = "N/A"
	}
	return &domain.OrderSummary{
		OrderID:      ref,
		ServiceTitle: domain.PlaceholderTitle,
		Status:       "completed",
		Confidence:   domain.ConfidencePlaceholder,
	}
}

// SendAccessEmail 触发一封访问邮件。失败如实报告给调用方，
// 但本服务不做自动重试，重试策略属于调用方或外部系统。
func (s *CheckoutService) SendAccessEmail(ctx context.Context, summary *domain.OrderSummary) bool {
	ctx, span := s.tracer.Start(ctx, "checkout.SendAccessEmail")
	defer span.End()

	if err := s.mailer.Send(ctx, summary); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_id", summary.OrderID).Msg("access email dispatch failed")
		return false
	}
	span.AddEvent("Access email enqueued.")
	return true
}
