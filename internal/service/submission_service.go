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
	"maces/backend/pkg/ork"
)

// SubmissionService 签到积分提交业务接口
type SubmissionService interface {
	// SubmitBatch 将 (date, hostParkID) 下全部未提交记录推送至上游并标记为已提交
	// 单条记录的积分表缺失或上游拒绝记入 ErroredRecords，不中断批次；
	// 上游成功后的写回失败直接返回错误并中止批次
	SubmitBatch(ctx context.Context, sess *model.Session, date string, hostParkID int, table model.CreditTable) (*dto.SubmitResult, error)
}

type submissionService struct {
	repo     repository.AttendanceRepository
	upstream Upstream
	logger   *zap.Logger
	now      func() time.Time
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(repo *repository.Repository, upstream Upstream, logger *zap.Logger) SubmissionService {
	return &submissionService{
		repo:     repo.Attendance,
		upstream: upstream,
		logger:   logger,
		now:      time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// SubmitBatch
// ═══════════════════════════════════════════════════════════
//
// 流程：
//   1. 按 (date, host_park_id) 取出全部记录，已提交的跳过
//   2. 逐条计算积分 → 推送上游 → 条件写回 submitted=true
//   3. 写回使用 MarkSubmitted（仅当存储中仍为未提交），
//      写回失败或条件不满足视为本地与上游状态不一致

func (s *submissionService) SubmitBatch(
	ctx context.Context,
	sess *model.Session,
	date string,
	hostParkID int,
	table model.CreditTable,
) (*dto.SubmitResult, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil || hostParkID <= 0 {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD and host_park_id positive", pkgerrors.ErrValidation)
	}
	if missing := table.MissingTiers(); len(missing) > 0 {
		s.logger.Warn("积分表不完整，对应档位的记录将提交失败", zap.Strings("missing", missing))
	}

	stored, err := s.repo.List(ctx, repository.AttendanceFilter{Date: date, HostParkID: hostParkID})
	if err != nil {
		s.logger.Error("查询待提交记录失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrPersistence, err)
	}

	result := &dto.SubmitResult{ErroredRecords: []dto.ErroredRecord{}}

	for i := range stored {
		id := stored[i].ID
		rec := &stored[i].Record

		if rec.Submitted {
			result.Skipped++
			continue
		}

		credits, err := CalculateCredits(rec, table)
		if err != nil {
			result.ErroredRecords = append(result.ErroredRecords, s.failure(id, rec, err))
			continue
		}

		_, err = s.upstream.SubmitCredit(ctx, &ork.CreditSubmission{
			Token:           sess.Token,
			Date:            rec.Date,
			PlayerID:        rec.Player.ID,
			PlayerKingdomID: rec.Player.KingdomID,
			ClassID:         rec.ClassID,
			Credits:         credits,
			HostParkID:      rec.HostParkID,
		})
		if err != nil {
			result.ErroredRecords = append(result.ErroredRecords, s.failure(id, rec, err))
			continue
		}

		rec.MarkSubmitted(s.now().UTC())
		ok, err := s.repo.MarkSubmitted(ctx, id, rec)
		if err != nil {
			s.logger.Error("上游已入账但写回失败",
				zap.String("record_id", id),
				zap.Int("player_id", rec.Player.ID),
				zap.Error(err),
			)
			return result, fmt.Errorf("%w: record %s credited upstream but not saved: %v", pkgerrors.ErrPersistence, id, err)
		}
		if !ok {
			s.logger.Error("上游已入账但记录已被修改或删除",
				zap.String("record_id", id),
				zap.Int("player_id", rec.Player.ID),
			)
			return result, fmt.Errorf("%w: record %s credited upstream but not saved: %w",
				pkgerrors.ErrPersistence, id, pkgerrors.ErrOptimisticLock)
		}
		result.Submitted++
	}

	s.logger.Info("签到积分提交完成",
		zap.String("date", date),
		zap.Int("host_park_id", hostParkID),
		zap.Int("submitted", result.Submitted),
		zap.Int("skipped", result.Skipped),
		zap.Int("errored", len(result.ErroredRecords)),
	)
	return result, nil
}

func (s *submissionService) failure(id string, rec *model.AttendanceRecord, err error) dto.ErroredRecord {
	s.logger.Warn("签到记录提交失败",
		zap.String("record_id", id),
		zap.Int("player_id", rec.Player.ID),
		zap.Error(err),
	)
	return dto.ErroredRecord{
		RecordID: id,
		PlayerID: rec.Player.ID,
		Persona:  rec.Player.Persona,
		Reason:   err.Error(),
		Err:      err,
	}
}

// AllConfigurationFailures 全部失败均为积分表配置问题且无成功提交
func AllConfigurationFailures(res *dto.SubmitResult) bool {
	if res.Submitted > 0 || len(res.ErroredRecords) == 0 {
		return false
	}
	for _, e := range res.ErroredRecords {
		if !errors.Is(e.Err, pkgerrors.ErrConfiguration) {
			return false
		}
	}
	return true
}
