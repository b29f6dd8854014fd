package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"maces/backend/internal/dto"
	"maces/backend/internal/model"
	"maces/backend/internal/repository"
	pkgerrors "maces/backend/pkg/errors"
)

// ── 签到模块业务错误 ──

var (
	ErrAlreadyRecorded = errors.New("already submitted attendance for this event")
)

// AttendanceService 签到记录业务接口
type AttendanceService interface {
	List(ctx context.Context, q *dto.AttendanceQuery) ([]model.AttendanceRecord, error)
	// Record 为当前玩家创建一条未提交的签到记录
	Record(ctx context.Context, sess *model.Session, req *dto.RecordAttendanceRequest) (string, error)
}

type attendanceService struct {
	repo     repository.AttendanceRepository
	upstream Upstream
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, upstream Upstream, logger *zap.Logger) AttendanceService {
	return &attendanceService{
		repo:     repo.Attendance,
		upstream: upstream,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *attendanceService) List(ctx context.Context, q *dto.AttendanceQuery) ([]model.AttendanceRecord, error) {
	stored, err := s.repo.List(ctx, repository.AttendanceFilter{
		Date:                  q.Date,
		HostParkID:            q.HostParkID,
		EventCalendarDetailID: q.EventCalendarDetailID,
		Submitted:             q.Submitted,
	})
	if err != nil {
		s.logger.Error("查询签到记录失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrPersistence, err)
	}

	result := make([]model.AttendanceRecord, 0, len(stored))
	for _, st := range stored {
		result = append(result, st.Record)
	}
	return result, nil
}

func (s *attendanceService) Record(ctx context.Context, sess *model.Session, req *dto.RecordAttendanceRequest) (string, error) {
	// 1. 玩家信息来自上游，不信任请求体
	p, err := s.upstream.FetchPlayer(ctx, sess.Token, sess.UserID)
	if err != nil {
		s.logger.Warn("获取玩家信息失败", zap.Int("user_id", sess.UserID), zap.Error(err))
		return "", err
	}
	player := model.Player{
		ID:         int(p.MundaneID),
		Persona:    p.Persona,
		KingdomID:  int(p.KingdomID),
		HomeParkID: int(p.ParkID),
	}

	// 2. 同一玩家同日同分会仅一条
	playerID := player.ID
	existing, err := s.repo.List(ctx, repository.AttendanceFilter{
		Date:       req.Date,
		HostParkID: req.HostParkID,
		PlayerID:   &playerID,
	})
	if err != nil {
		s.logger.Error("查询重复签到失败", zap.Error(err))
		return "", fmt.Errorf("%w: %v", pkgerrors.ErrPersistence, err)
	}
	if len(existing) > 0 {
		return "", ErrAlreadyRecorded
	}

	// 3. 写入
	now := s.now().UTC()
	rec := &model.AttendanceRecord{
		Date:                  req.Date,
		HostParkID:            req.HostParkID,
		EventCalendarDetailID: req.EventCalendarDetailID,
		Player:                player,
		ClassID:               req.ClassID,
		ClassName:             req.ClassName,
		AttendingInPerson:     *req.AttendingInPerson,
		EnteredAt:             &now,
	}
	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		s.logger.Error("写入签到记录失败", zap.Error(err))
		return "", fmt.Errorf("%w: %v", pkgerrors.ErrPersistence, err)
	}

	s.logger.Info("签到记录已创建",
		zap.String("record_id", id),
		zap.Int("player_id", player.ID),
		zap.Int("host_park_id", rec.HostParkID),
		zap.String("date", rec.Date),
	)
	return id, nil
}
