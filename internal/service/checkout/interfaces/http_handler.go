// internal/service/checkout/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"lumina/internal/service/checkout/application"
)

const serviceName = "checkout-service"

var summaryConfidence = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "order_summary_total",
	Help: "Order summaries served, by confidence level.",
}, []string{"confidence"})

var accessEmailOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "access_email_dispatch_total",
	Help: "Access email dispatch attempts by outcome.",
}, []string{"outcome"})

// CheckoutHandler 封装了确认页查询面的 HTTP 处理器
type CheckoutHandler struct {
	service *application.CheckoutService
	timeout time.Duration
}

// NewCheckoutHandler 创建一个新的 HTTP 处理器实例
func NewCheckoutHandler(service *application.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{service: service, timeout: timeout}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/confirmation", h.confirmationHandler)
	mux.HandleFunc("/confirmation/email", h.accessEmailHandler)
}

// confirmationHandler 处理确认页查询。
// session_id 和 order_id 至少应有其一，但都缺失时也必须渲染出兜底摘要。
func (h *CheckoutHandler) confirmationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "checkout-service.ConfirmationHandler")
	defer span.End()

	sessionRef := r.URL.Query().Get("session_id")
	orderRef := r.URL.Query().Get("order_id")

	summary := h.service.GetOrderSummary(ctx, sessionRef, orderRef)
	summaryConfidence.WithLabelValues(string(summary.Confidence)).Inc()
	span.SetAttributes(attribute.String("order.id", summary.OrderID))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// accessEmailHandler 触发一次访问邮件重发。
// 复用对账逻辑产出摘要后投递，结果如实返回给调用方。
func (h *CheckoutHandler) accessEmailHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "checkout-service.AccessEmailHandler")
	defer span.End()

	sessionRef := r.URL.Query().Get("session_id")
	orderRef := r.URL.Query().Get("order_id")

	summary := h.service.GetOrderSummary(ctx, sessionRef, orderRef)
	if summary.CustomerEmail == "" {
		// 没有可投递的地址，连兜底摘要都没带出邮箱
		accessEmailOutcome.WithLabelValues("no_recipient").Inc()
		writeEmailResult(w, http.StatusUnprocessableEntity, false)
		return
	}

	sent := h.service.SendAccessEmail(ctx, summary)
	if sent {
		accessEmailOutcome.WithLabelValues("sent").Inc()
		writeEmailResult(w, http.StatusOK, true)
		return
	}
	accessEmailOutcome.WithLabelValues("failed").Inc()
	writeEmailResult(w, http.StatusBadGateway, false)
}

func writeEmailResult(w http.ResponseWriter, status int, sent bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]bool{"sent": sent})
}

// requestContext 从入站请求恢复追踪上下文并套上请求级超时
func (h *CheckoutHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	return context.WithTimeout(ctx, h.timeout)
}
