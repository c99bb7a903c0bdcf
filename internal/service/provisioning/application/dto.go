// internal/service/provisioning/application/dto.go
package application

// ProvisionRequest 是完成账号开通的入参。
// 密码规则由前端先行校验，这里会再做一次防御性检查。
type ProvisionRequest struct {
	Token           string `json:"token"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ProvisionResponse 返回新建账号的引用，调用方负责建立会话并跳转
type ProvisionResponse struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	OrderID   string `json:"orderId"`
}

// ValidateResponse 是校验接口的出参，用于开通页渲染订单信息
type ValidateResponse struct {
	OrderID      string  `json:"orderId"`
	Email        string  `json:"email"`
	ServiceTitle string  `json:"serviceTitle"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}
