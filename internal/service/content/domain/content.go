// internal/service/content/domain/content.go
package domain

import (
	"strings"
	"time"
	"unicode"
)

// PublishStatus 是内容条目的发布状态
type PublishStatus string

const (
	StatusDraft     PublishStatus = "DRAFT"
	StatusPublished PublishStatus = "PUBLISHED"
)

// ContentItem 表示一条可购买或可浏览的内容（课程/电子书/服务）。
// Views 为可选计数器: nil 在语义上等于 0，但存储层的自增原语
// 不允许把缺失字段默认当 0 处理，必须显式初始化为 1。
type ContentItem struct {
	ID        string
	Title     string
	Status    PublishStatus
	Views     *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Published 判断条目是否已发布
func (c *ContentItem) Published() bool {
	return c.Status == StatusPublished
}

// Slug 返回由标题确定性推导出的 slug
func (c *ContentItem) Slug() string {
	return Slugify(c.Title)
}

// Slugify 把标题确定性地转换为 URL slug: 小写、非字母数字折叠为连字符。
// 纯函数，标题相同必然 slug 相同，因此按 slug 查找定义为
// "已发布条目中的第一个匹配"，冲突由调用方容忍。
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // 抑制开头的连字符
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
