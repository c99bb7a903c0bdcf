// internal/service/provisioning/domain/port/identity.go
package port

import (
	"context"
	"errors"
)

// ErrEmailTaken 表示身份服务中已存在该邮箱对应的账号
var ErrEmailTaken = errors.New("identity already exists for this email")

// Identity 是身份服务创建的账号引用
type Identity struct {
	ID    string
	Email string
}

// IdentityProvider 是外部身份服务的出站端口。
// 邮箱唯一性约束由身份服务自身保证，它也是并发开通的唯一并发护栏。
type IdentityProvider interface {
	// CreateIdentity 为 email/password 创建新身份。
	// 邮箱已被占用返回 ErrEmailTaken；其他失败返回携带原始信息的错误。
	CreateIdentity(ctx context.Context, email, password string) (*Identity, error)
}
