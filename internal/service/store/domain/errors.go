// internal/service/store/domain/errors.go
package domain

import "github.com/pkg/errors"

// 错误分类：
// 输入错误和业务拒绝用哨兵错误表达，接口层据此映射 HTTP 状态码；
// 依赖故障（存储、消息通道）由各层用 errors.Wrap 附加上下文后原样上抛
var (
	// ErrInvalidInput 表示请求体缺字段或字段非法，客户端错误，不产生任何副作用
	ErrInvalidInput = errors.New("invalid input")

	// ErrProductNotFound 表示库存账本中不存在该商品（或记录缺少必需字段）
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderNotFound 表示订单日志中不存在该订单
	ErrOrderNotFound = errors.New("order not found")

	// ErrInsufficientStock 表示库存不足，条件扣减被拒绝，库存保持原值
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotificationNotSent 是一个特殊的半成功错误：
	// 订单已经生效、库存已经扣减，只是低库存检查通知没有发出去。
	// 不做任何回滚，调用方会拿到订单号和这个错误
	ErrNotificationNotSent = errors.New("order placed but stock notification was not published")
)
