// internal/service/checkout/domain/summary.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Confidence 标记摘要数据的可信级别。
// 两个上游都失败时仍返回兜底摘要（确认页必须能渲染），
// 但会带上 placeholder 标记，由调用方决定是否展示免责说明，
// 而不是悄悄地把乐观猜测当作事实。
type Confidence string

const (
	ConfidenceAuthoritative Confidence = "authoritative"
	ConfidencePlaceholder   Confidence = "placeholder"
)

// PlaceholderTitle 是上游完全不可用时的兜底标题
const PlaceholderTitle = "Your purchase"

// OrderSummary 是对账后用于展示的订单摘要。
// 仅服务于确认页渲染，不做任何访问控制判定。
type OrderSummary struct {
	OrderID       string     `json:"orderId"`
	CustomerEmail string     `json:"customerEmail,omitempty"`
	ServiceTitle  string     `json:"serviceTitle"`
	AmountDisplay string     `json:"amountDisplay"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	Status        string     `json:"status"`
	Confidence    Confidence `json:"confidence"`
}

// OrderRecord 是内部订单记录在确认页语境下的只读投影。
// Amount 为主单位金额（订单子系统的存储约定）。
type OrderRecord struct {
	ID            string
	CustomerEmail string
	Amount        float64
	Currency      string
	ServiceTitle  string
	PaymentMethod string
	Status        string
	CreatedAt     time.Time
}

// FormatMinorUnits 将最小货币单位金额格式化为展示串。
// 支付网关以分报金额，必须先除以 100；与订单记录的主单位
// 约定严格分开，两条换算路径绝不混用。
func FormatMinorUnits(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, normalizeCurrency(currency))
}

// FormatMajorUnits 将主单位金额格式化为展示串（订单记录的存储约定）
func FormatMajorUnits(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, normalizeCurrency(currency))
}

func normalizeCurrency(currency string) string {
	if currency == "" {
		return "EUR"
	}
	return strings.ToUpper(currency)
}
