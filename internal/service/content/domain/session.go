// internal/service/content/domain/session.go
package domain

import "sort"

// ViewSession 是一次浏览会话中已计数内容的去重记录。
// 它是显式传入计数服务的值对象，随会话创建为空、随会话结束丢弃，
// 由客户端持有（HTTP 边界上序列化进 cookie），绝不落到服务端存储。
type ViewSession struct {
	seen map[string]struct{}
}

// NewViewSession 创建一个会话记录，可用已计数的 id 预填充
func NewViewSession(ids ...string) *ViewSession {
	s := &ViewSession{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.seen[id] = struct{}{}
		}
	}
	return s
}

// Seen 判断该内容在本会话中是否已计过数
func (s *ViewSession) Seen(contentID string) bool {
	_, ok := s.seen[contentID]
	return ok
}

// Mark 记录该内容已在本会话中计数
func (s *ViewSession) Mark(contentID string) {
	s.seen[contentID] = struct{}{}
}

// IDs 返回已计数的内容 id，排序后返回以便序列化结果稳定
func (s *ViewSession) IDs() []string {
	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
