package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求（凭据转交上游校验，本地不保存）
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=200"`
}

// LoginResult 登录结果；Handler 同时写入会话 Cookie
type LoginResult struct {
	SessionToken string `json:"session_token"`
	ExpiresIn    int    `json:"expires_in"` // 会话有效期（秒）
	UserID       int    `json:"user_id"`
}
