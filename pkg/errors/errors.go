package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 错误分类 ──
// 具体错误通过 fmt.Errorf("%w: ...") 包装以下哨兵错误，调用方使用 errors.Is 判断

var (
	// ErrTransport 上游网络不可达
	ErrTransport = errors.New("transport error")
	// ErrProtocol 上游响应结构不符合约定
	ErrProtocol = errors.New("protocol error")
	// ErrAuthentication 上游拒绝凭据
	ErrAuthentication = errors.New("authentication error")
	// ErrUpstreamRejection 上游接受请求但返回业务失败
	ErrUpstreamRejection = errors.New("upstream rejection")
	// ErrConfiguration 调用方提供的积分表不完整
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation 本系统接口输入不合法
	ErrValidation = errors.New("validation error")
	// ErrPersistence 文档存储写入失败
	ErrPersistence = errors.New("persistence error")
)
