package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"maces/backend/internal/dto"
	"maces/backend/internal/model"
	pkgerrors "maces/backend/pkg/errors"
	"maces/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", pkgerrors.ErrAuthentication)
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResult, error)
	Logout(ctx context.Context, sess *model.Session) error
}

type authService struct {
	upstream Upstream
	jwtMgr   *jwt.Manager
	revoker  SessionRevoker
	logger   *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	upstream Upstream,
	jwtMgr *jwt.Manager,
	revoker SessionRevoker,
	logger *zap.Logger,
) AuthService {
	return &authService{
		upstream: upstream,
		jwtMgr:   jwtMgr,
		revoker:  revoker,
		logger:   logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResult, error) {
	// 1. 上游校验凭据
	res, err := s.upstream.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrAuthentication) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Warn("上游登录失败", zap.Error(err))
		return nil, err
	}
	if res.UserID <= 0 {
		return nil, fmt.Errorf("%w: login response missing UserId", pkgerrors.ErrProtocol)
	}

	// 2. 签发会话 Token
	token, err := s.jwtMgr.GenerateSessionToken(res.Token, int(res.UserID))
	if err != nil {
		s.logger.Error("生成会话 Token 失败", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResult{
		SessionToken: token,
		ExpiresIn:    int(s.jwtMgr.TTL().Seconds()),
		UserID:       int(res.UserID),
	}, nil
}

func (s *authService) Logout(ctx context.Context, sess *model.Session) error {
	if s.revoker == nil || sess.SessionID == "" {
		return nil
	}
	if err := s.revoker.BlacklistToken(ctx, sess.SessionID, time.Until(sess.ExpiresAt)); err != nil {
		s.logger.Error("会话加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}
