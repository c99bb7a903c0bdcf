// internal/service/provisioning/infrastructure/adapter/identity_http_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"lumina/internal/pkg/httpclient"
	"lumina/internal/service/provisioning/domain"
	"lumina/internal/service/provisioning/domain/port"
)

// IdentityHTTPAdapter 是 port.IdentityProvider 的 HTTP 实现，
// 对接外部身份服务的账号创建接口。
type IdentityHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewIdentityHTTPAdapter 创建一个新的身份服务适配器实例
func NewIdentityHTTPAdapter(client *httpclient.Client, baseURL string) *IdentityHTTPAdapter {
	return &IdentityHTTPAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type createIdentityRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createIdentityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreateIdentity 调用身份服务创建账号。
// 409 映射为 ErrEmailTaken；其余非 2xx 的响应体原样放进
// IdentityProviderError，按约定直接展示给用户。
func (a *IdentityHTTPAdapter) CreateIdentity(ctx context.Context, email, password string) (*port.Identity, error) {
	url := a.baseURL + "/v1/identities"
	status, body, err := a.client.PostJSON(ctx, url, createIdentityRequest{Email: email, Password: password})
	if err != nil {
		return nil, &domain.IdentityProviderError{Message: err.Error()}
	}

	switch {
	case status == http.StatusConflict:
		return nil, port.ErrEmailTaken
	case status < 200 || status >= 300:
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("identity service returned status %d", status)
		}
		return nil, &domain.IdentityProviderError{Message: msg}
	}

	var resp createIdentityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.IdentityProviderError{Message: "malformed response from identity service"}
	}
	return &port.Identity{ID: resp.ID, Email: resp.Email}, nil
}
