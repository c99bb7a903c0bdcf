// internal/service/provisioning/domain/errors.go
package domain

import "errors"

// 开通流程的错误分类。每一类都对应一条给用户的明确恢复路径，
// 接口层据此渲染不同的提示文案，不做自动重试。
var (
	// ErrMissingInput 链接缺少 token 或 email，不发起任何查询
	ErrMissingInput = errors.New("provisioning link is missing token or email")
	// ErrTokenNotFound 没有订单同时匹配 token 和 email。
	// 未知 token、邮箱不符、token 已被消费三种情况刻意不作区分，
	// 避免向调用方泄露凭证的哪一半是错的。
	ErrTokenNotFound = errors.New("no order matches this provisioning link")
	// ErrTokenExpired 订单匹配但链接已过期
	ErrTokenExpired = errors.New("provisioning link has expired")
	// ErrTokenAlreadyUsed 订单已完成开通（防御性检查，正常情况下 token 已被清除）
	ErrTokenAlreadyUsed = errors.New("account has already been configured")
	// ErrAccountExists 身份服务中已存在该邮箱的账号，本流程绝不覆盖既有凭证
	ErrAccountExists = errors.New("an account already exists for this email")
	// ErrWeakPassword 密码长度不足 6 位
	ErrWeakPassword = errors.New("password must be at least 6 characters")
	// ErrPasswordMismatch 两次输入的密码不一致
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrStore 存储不可用，用户可稍后重试
	ErrStore = errors.New("order store is unavailable")
)

// IdentityProviderError 携带身份服务返回的原始错误信息，原样展示给用户
type IdentityProviderError struct {
	Message string
}

func (e *IdentityProviderError) Error() string {
	return "identity provider error: " + e.Message
}
