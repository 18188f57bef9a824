package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// PointsModulePrefix 积分模块
	PointsModulePrefix = "points"

	// EntityBalance 积分余额实体
	EntityBalance = "balance"
	// EntityGrant 免费额度发放记录实体
	EntityGrant = "grant"

	// KeyPointsBalance 客户端积分余额 (STRING, 整数)
	// 格式: app:points:balance:{clientID}
	KeyPointsBalance = AppPrefix + ":" + PointsModulePrefix + ":" + EntityBalance + ":%s"

	// KeyPointsGrant 免费额度发放标记 (STRING)
	// 格式: app:points:grant:{clientID}
	KeyPointsGrant = AppPrefix + ":" + PointsModulePrefix + ":" + EntityGrant + ":%s"
)
