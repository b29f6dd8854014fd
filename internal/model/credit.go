package model

// CreditTier 积分档位：线下/线上 × 本会/外会
type CreditTier struct {
	InPerson bool
	Local    bool
}

// String 档位名称，与提交请求中的字段名一致
func (t CreditTier) String() string {
	switch {
	case t.InPerson && t.Local:
		return "inPersonLocal"
	case t.InPerson:
		return "inPersonOutPark"
	case t.Local:
		return "onlineLocal"
	default:
		return "onlineOutPark"
	}
}

// CreditTable 单次提交批次的积分表，由调用方提供，不持久化
// 字段为 nil 表示该档位缺失
type CreditTable struct {
	InPersonLocal   *int
	InPersonOutPark *int
	OnlineLocal     *int
	OnlineOutPark   *int
}

// Lookup 查询档位积分；档位缺失时 ok=false
func (t CreditTable) Lookup(tier CreditTier) (int, bool) {
	var v *int
	switch {
	case tier.InPerson && tier.Local:
		v = t.InPersonLocal
	case tier.InPerson:
		v = t.InPersonOutPark
	case tier.Local:
		v = t.OnlineLocal
	default:
		v = t.OnlineOutPark
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// AllTiers 全部四个档位
func AllTiers() []CreditTier {
	return []CreditTier{
		{InPerson: true, Local: true},
		{InPerson: true, Local: false},
		{InPerson: false, Local: true},
		{InPerson: false, Local: false},
	}
}

// MissingTiers 返回缺失的档位名称
func (t CreditTable) MissingTiers() []string {
	var missing []string
	for _, tier := range AllTiers() {
		if _, ok := t.Lookup(tier); !ok {
			missing = append(missing, tier.String())
		}
	}
	return missing
}
