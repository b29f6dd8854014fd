package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"maces/backend/config"
)

var (
	ErrTokenExpired = errors.New("session token expired")
	ErrTokenInvalid = errors.New("session token invalid")
)

const issuer = "maces"

// Claims 会话声明：携带上游 token 与上游用户 ID
type Claims struct {
	OrkToken string `json:"ork_token"`
	UserID   int    `json:"user_id"`
	jwtv5.RegisteredClaims
}

// Manager 会话 Token 管理器
type Manager struct {
	secret     []byte
	sessionTTL time.Duration
}

// NewManager 创建会话 Token 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:     []byte(cfg.SessionSecret),
		sessionTTL: cfg.SessionTTL,
	}
}

// TTL 会话有效期
func (m *Manager) TTL() time.Duration {
	return m.sessionTTL
}

// GenerateSessionToken 登录成功后签发会话 Token
func (m *Manager) GenerateSessionToken(orkToken string, userID int) (string, error) {
	now := time.Now()
	claims := Claims{
		OrkToken: orkToken,
		UserID:   userID,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.sessionTTL)),
			Issuer:    issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.OrkToken == "" || claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
