// internal/service/store/domain/state.go
package domain

type OrderState string

const (
	StatePending   OrderState = "PENDING"   // 订单已落库，库存尚未扣减（中间状态）
	StateConfirmed OrderState = "CONFIRMED" // 库存已扣减，订单生效
	StateFailed    OrderState = "FAILED"    // 库存扣减失败或流程中断，订单作废
)
