package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"maces/backend/internal/repository"
	"maces/backend/pkg/jwt"
	"maces/backend/pkg/ork"
)

// Upstream 上游活动管理 API（由 *ork.Client 实现）
type Upstream interface {
	Login(ctx context.Context, username, password string) (*ork.LoginResult, error)
	ListClasses(ctx context.Context) ([]ork.Class, error)
	FetchPlayer(ctx context.Context, token string, userID int) (*ork.Player, error)
	SubmitCredit(ctx context.Context, sub *ork.CreditSubmission) (json.RawMessage, error)
	IsParkOfficer(ctx context.Context, parkID, playerID int) (bool, error)
}

// SessionRevoker 会话吊销（由 *redis.Client 实现）
type SessionRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Park       ParkService
	Attendance AttendanceService
	Submission SubmissionService
	Export     ExportService
}

// NewService 创建 Service 聚合
// revoker 可为 nil（Redis 不可用时登出仅清除 Cookie）
func NewService(
	repo *repository.Repository,
	upstream Upstream,
	jwtMgr *jwt.Manager,
	revoker SessionRevoker,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(upstream, jwtMgr, revoker, logger),
		Park:       NewParkService(upstream, logger),
		Attendance: NewAttendanceService(repo, upstream, logger),
		Submission: NewSubmissionService(repo, upstream, logger),
		Export:     NewExportService(repo, logger),
	}
}
