// internal/service/provisioning/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"lumina/internal/pkg/logger"
	"lumina/internal/service/provisioning/application"
	"lumina/internal/service/provisioning/domain"
)

const serviceName = "provisioning-service"

var provisionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provision_attempts_total",
	Help: "Provisioning attempts by terminal result.",
}, []string{"operation", "result"})

// ProvisioningHandler 封装了开通服务的 HTTP 处理器
type ProvisioningHandler struct {
	service *application.ProvisioningService
	timeout time.Duration
}

// NewProvisioningHandler 创建一个新的 HTTP 处理器实例
func NewProvisioningHandler(service *application.ProvisioningService, timeout time.Duration) *ProvisioningHandler {
	return &ProvisioningHandler{service: service, timeout: timeout}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *ProvisioningHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/provision/validate", h.validateHandler)
	mux.HandleFunc("/provision/complete", h.completeHandler)
	mux.HandleFunc("/provision/repair", h.repairHandler)
}

// validateHandler 处理开通链接的落地校验。
// 链接格式为 /provision/validate?token=...&email=...（email 经 URL 编码）。
func (h *ProvisioningHandler) validateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "provisioning-service.ValidateHandler")
	defer span.End()

	token := r.URL.Query().Get("token")
	email := r.URL.Query().Get("email")

	order, err := h.service.ValidateToken(ctx, token, email)
	if err != nil {
		provisionAttempts.WithLabelValues("validate", resultLabel(err)).Inc()
		writeTaxonomyError(w, err)
		return
	}
	provisionAttempts.WithLabelValues("validate", "valid").Inc()
	span.SetAttributes(attribute.String("order.id", order.ID))

	writeJSON(w, http.StatusOK, application.ValidateResponse{
		OrderID:      order.ID,
		Email:        order.CustomerEmail,
		ServiceTitle: order.ServiceTitle,
		Amount:       order.Amount,
		Currency:     order.Currency,
	})
}

// completeHandler 处理开通表单提交，成功时返回新建账号的引用
func (h *ProvisioningHandler) completeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "provisioning-service.CompleteHandler")
	defer span.End()

	var req application.ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTaxonomyError(w, domain.ErrMissingInput)
		return
	}

	resp, err := h.service.Provision(ctx, &req)
	if err != nil {
		provisionAttempts.WithLabelValues("complete", resultLabel(err)).Inc()
		writeTaxonomyError(w, err)
		return
	}
	provisionAttempts.WithLabelValues("complete", "provisioned").Inc()
	span.SetAttributes(attribute.String("order.id", resp.OrderID))

	writeJSON(w, http.StatusOK, resp)
}

// repairHandler 手动触发一轮部分失败窗口的修复扫描
func (h *ProvisioningHandler) repairHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "provisioning-service.RepairHandler")
	defer span.End()

	minAge := 5 * time.Minute
	if raw := r.URL.Query().Get("min_age"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			minAge = parsed
		}
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	repaired, err := h.service.RepairPendingCommits(ctx, minAge, limit)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("repair pass failed")
		writeTaxonomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"repaired": repaired})
}

// requestContext 从入站请求恢复追踪上下文并套上请求级超时
func (h *ProvisioningHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	return context.WithTimeout(ctx, h.timeout)
}

// writeTaxonomyError 把错误分类映射为各自的状态码与面向用户的提示。
// 每一类都有独立的文案，引导用户走正确的恢复路径。
func writeTaxonomyError(w http.ResponseWriter, err error) {
	var status int
	var message string

	var ipErr *domain.IdentityProviderError
	switch {
	case errors.Is(err, domain.ErrMissingInput):
		status, message = http.StatusBadRequest, "This link is missing required information. Please use the link from your confirmation email."
	case errors.Is(err, domain.ErrTokenNotFound):
		status, message = http.StatusNotFound, "We couldn't find a matching purchase for this link."
	case errors.Is(err, domain.ErrTokenExpired):
		status, message = http.StatusGone, "This link has expired. Please request a new one."
	case errors.Is(err, domain.ErrTokenAlreadyUsed):
		status, message = http.StatusConflict, "Your account is already configured. Please sign in instead."
	case errors.Is(err, domain.ErrAccountExists):
		status, message = http.StatusConflict, "An account already exists for this email. Sign in, or use the password reset if you've forgotten your password."
	case errors.Is(err, domain.ErrWeakPassword):
		status, message = http.StatusUnprocessableEntity, "Your password must be at least 6 characters long."
	case errors.Is(err, domain.ErrPasswordMismatch):
		status, message = http.StatusUnprocessableEntity, "The passwords you entered do not match."
	case errors.As(err, &ipErr):
		status, message = http.StatusBadGateway, ipErr.Message
	case errors.Is(err, domain.ErrStore):
		status, message = http.StatusServiceUnavailable, "We couldn't reach the order system. Please try again in a moment."
	default:
		status, message = http.StatusInternalServerError, "Something went wrong. Please try again."
	}

	writeJSON(w, status, map[string]string{"error": message})
}

// resultLabel 把错误归一到指标标签
func resultLabel(err error) string {
	var ipErr *domain.IdentityProviderError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrMissingInput):
		return "missing_input"
	case errors.Is(err, domain.ErrTokenNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenAlreadyUsed):
		return "already_used"
	case errors.Is(err, domain.ErrAccountExists):
		return "account_exists"
	case errors.Is(err, domain.ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return "password_mismatch"
	case errors.As(err, &ipErr):
		return "identity_provider_error"
	case errors.Is(err, domain.ErrStore):
		return "store_error"
	default:
		return "unknown"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
