package model

import "time"

// Session 单个调用方的会话上下文，显式传入服务层与上游调用
type Session struct {
	Token     string // 上游 token，作为请求参数传递
	UserID    int    // 上游用户 ID（MundaneId）
	SessionID string
	ExpiresAt time.Time
}
