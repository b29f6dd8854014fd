package service

import (
	"context"

	"go.uber.org/zap"

	"maces/backend/internal/dto"
	"maces/backend/internal/model"
)

// ParkService 分会与职业查询业务接口
type ParkService interface {
	// IsParkOfficer 当前用户是否为其所属分会官员
	IsParkOfficer(ctx context.Context, sess *model.Session) (*dto.ParkOfficerResponse, error)
	ListClasses(ctx context.Context) ([]dto.ClassResponse, error)
}

type parkService struct {
	upstream Upstream
	logger   *zap.Logger
}

// NewParkService 创建 ParkService 实例
func NewParkService(upstream Upstream, logger *zap.Logger) ParkService {
	return &parkService{upstream: upstream, logger: logger}
}

func (s *parkService) IsParkOfficer(ctx context.Context, sess *model.Session) (*dto.ParkOfficerResponse, error) {
	player, err := s.upstream.FetchPlayer(ctx, sess.Token, sess.UserID)
	if err != nil {
		s.logger.Warn("获取玩家信息失败", zap.Int("user_id", sess.UserID), zap.Error(err))
		return nil, err
	}

	parkID := int(player.ParkID)
	isOfficer, err := s.upstream.IsParkOfficer(ctx, parkID, int(player.MundaneID))
	if err != nil {
		s.logger.Warn("获取分会官员失败", zap.Int("park_id", parkID), zap.Error(err))
		return nil, err
	}

	return &dto.ParkOfficerResponse{IsOfficer: isOfficer, ParkID: parkID}, nil
}

func (s *parkService) ListClasses(ctx context.Context) ([]dto.ClassResponse, error) {
	classes, err := s.upstream.ListClasses(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ClassResponse, 0, len(classes))
	for _, c := range classes {
		result = append(result, dto.ClassResponse{ClassID: int(c.ClassID), ClassName: c.Name})
	}
	return result, nil
}
