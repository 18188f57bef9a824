package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"interview-agent-go/internal/config"
	"interview-agent-go/internal/constants"
)

// PointsLedger 客户端点数账本。
// 点数是非核心能力：实现方的存储故障不应阻断文档分析
type PointsLedger interface {
	// EnsureGrant 给新客户端发放免费点数，返回当前余额
	EnsureGrant(ctx context.Context, clientID string) (int64, error)
	// Balance 查询余额
	Balance(ctx context.Context, clientID string) (int64, error)
	// Charge 原子扣减。余额不足时返回ErrInsufficientPoints
	Charge(ctx context.Context, clientID string, cost int64) (int64, error)
	Close() error
}

// ErrInsufficientPoints 余额不足
var ErrInsufficientPoints = fmt.Errorf("点数余额不足")

// 原子的检查并扣减：余额足够时扣减并返回新余额，否则返回-1
var chargeScript = redis.NewScript(`
local balance = tonumber(redis.call('GET', KEYS[1]) or '0')
local cost = tonumber(ARGV[1])
if balance < cost then
  return -1
end
return redis.call('DECRBY', KEYS[1], cost)
`)

// RedisPointsLedger 基于Redis的点数账本
type RedisPointsLedger struct {
	client *redis.Client

	freeGrant  int64
	balanceTTL time.Duration
}

// NewRedisPointsLedger 创建Redis点数账本并验证连通性
func NewRedisPointsLedger(redisCfg *config.RedisConfig, pointsCfg *config.PointsConfig) (*RedisPointsLedger, error) {
	if redisCfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if redisCfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,

		PoolSize:     redisCfg.PoolSize,
		MinIdleConns: redisCfg.MinIdleConns,

		DialTimeout:  time.Duration(redisCfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(redisCfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(redisCfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      redisCfg.MaxRetries,
		MinRetryBackoff: time.Duration(redisCfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(redisCfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(redisCfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(redisCfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 所有Redis操作记录到追踪系统
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisCfg.Address, err)
	}

	ledger := &RedisPointsLedger{
		client:    client,
		freeGrant: int64(pointsCfg.FreeGrant),
	}
	if pointsCfg.BalanceTTLDays > 0 {
		ledger.balanceTTL = time.Duration(pointsCfg.BalanceTTLDays) * 24 * time.Hour
	}
	return ledger, nil
}

func balanceKey(clientID string) string {
	return fmt.Sprintf(constants.KeyPointsBalance, clientID)
}

func grantKey(clientID string) string {
	return fmt.Sprintf(constants.KeyPointsGrant, clientID)
}

// EnsureGrant 首次见到的客户端发放免费点数。grant标记防止重复发放
func (l *RedisPointsLedger) EnsureGrant(ctx context.Context, clientID string) (int64, error) {
	granted, err := l.client.SetNX(ctx, grantKey(clientID), time.Now().UTC().Format(time.RFC3339), l.balanceTTL).Result()
	if err != nil {
		return 0, fmt.Errorf("检查免费点数发放标记失败: %w", err)
	}

	if granted {
		balance, err := l.client.IncrBy(ctx, balanceKey(clientID), l.freeGrant).Result()
		if err != nil {
			return 0, fmt.Errorf("发放免费点数失败: %w", err)
		}
		if l.balanceTTL > 0 {
			l.client.Expire(ctx, balanceKey(clientID), l.balanceTTL)
		}
		return balance, nil
	}

	return l.Balance(ctx, clientID)
}

// Balance 查询余额，键不存在视为0
func (l *RedisPointsLedger) Balance(ctx context.Context, clientID string) (int64, error) {
	balance, err := l.client.Get(ctx, balanceKey(clientID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("查询点数余额失败: %w", err)
	}
	return balance, nil
}

// Charge 用Lua脚本做原子的检查并扣减
func (l *RedisPointsLedger) Charge(ctx context.Context, clientID string, cost int64) (int64, error) {
	if cost <= 0 {
		return l.Balance(ctx, clientID)
	}

	result, err := chargeScript.Run(ctx, l.client, []string{balanceKey(clientID)}, cost).Int64()
	if err != nil {
		return 0, fmt.Errorf("扣减点数失败: %w", err)
	}
	if result < 0 {
		return 0, ErrInsufficientPoints
	}
	return result, nil
}

func (l *RedisPointsLedger) Close() error {
	return l.client.Close()
}
