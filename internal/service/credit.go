package service

import (
	"fmt"

	"maces/backend/internal/model"
	pkgerrors "maces/backend/pkg/errors"
)

// CalculateCredits 根据出席方式与是否本会成员查积分表
// 纯函数：无副作用，不依赖存储与上游。档位缺失返回 ErrConfiguration，不默认为 0
func CalculateCredits(rec *model.AttendanceRecord, table model.CreditTable) (int, error) {
	tier := rec.Tier()
	credits, ok := table.Lookup(tier)
	if !ok {
		return 0, fmt.Errorf("%w: missing credit tier %s", pkgerrors.ErrConfiguration, tier)
	}
	return credits, nil
}
