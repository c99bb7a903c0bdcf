// internal/service/content/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"lumina/internal/service/content/application"
	"lumina/internal/service/content/domain"
)

const (
	serviceName = "content-service"
	// viewSessionCookie 保存本会话已计数的内容 id。
	// 去重记录只存在于客户端，会话结束随 cookie 一起消失。
	viewSessionCookie = "viewed_content"
)

var viewsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "content_views_recorded_total",
	Help: "Content views actually counted (deduplicated per session).",
})

// ContentHandler 封装了内容详情页的 HTTP 处理器
type ContentHandler struct {
	service *application.ContentService
	timeout time.Duration
}

// NewContentHandler 创建一个新的 HTTP 处理器实例
func NewContentHandler(service *application.ContentService, timeout time.Duration) *ContentHandler {
	return &ContentHandler{service: service, timeout: timeout}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *ContentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/content", h.detailHandler)
}

type contentResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Views int64  `json:"views"`
}

// detailHandler 处理内容详情查询并触发会话级浏览计数。
// 计数失败绝不影响详情返回。
func (h *ContentHandler) detailHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "content-service.DetailHandler")
	defer span.End()

	slug := r.URL.Query().Get("slug")
	if slug == "" {
		http.Error(w, "slug is required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("content.slug", slug))

	item, err := h.service.GetPublishedBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrContentNotFound) {
			http.Error(w, "content not found", http.StatusNotFound)
			return
		}
		span.RecordError(err)
		http.Error(w, "content is temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	session := sessionFromRequest(r)
	counted := h.service.RecordView(ctx, session, item)
	if counted {
		viewsRecorded.Inc()
	}
	writeSessionCookie(w, session)

	views := int64(0)
	if item.Views != nil {
		views = *item.Views
	}
	if counted {
		// 本次浏览已计入，展示值同步 +1，省一次回读
		views++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contentResponse{
		ID:    item.ID,
		Title: item.Title,
		Slug:  item.Slug(),
		Views: views,
	})
}

// sessionFromRequest 从 cookie 恢复会话去重记录，cookie 缺失即新会话
func sessionFromRequest(r *http.Request) *domain.ViewSession {
	cookie, err := r.Cookie(viewSessionCookie)
	if err != nil || cookie.Value == "" {
		return domain.NewViewSession()
	}
	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return domain.NewViewSession()
	}
	return domain.NewViewSession(strings.Split(decoded, ",")...)
}

// writeSessionCookie 把更新后的去重记录写回客户端。
// 会话 cookie 不设 Max-Age，浏览器会话结束即失效。
func writeSessionCookie(w http.ResponseWriter, session *domain.ViewSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     viewSessionCookie,
		Value:    url.QueryEscape(strings.Join(session.IDs(), ",")),
		Path:     "/",
		HttpOnly: true,
	})
}
