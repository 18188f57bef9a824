package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket 实现令牌桶算法的限流器
type TokenBucket struct {
	rate           float64    // 每秒生成的令牌数
	capacity       float64    // 桶的容量
	tokens         float64    // 当前令牌数
	lastRefillTime time.Time  // 上次填充令牌的时间
	mutex          sync.Mutex // 互斥锁，保证并发安全
}

// NewTokenBucket 创建一个新的令牌桶限流器
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	// 如果未指定容量，设置为QPM的一半
	if capacity <= 0 {
		capacity = qpm / 2
		if capacity <= 0 {
			capacity = 1
		}
	}

	return &TokenBucket{
		rate:           float64(qpm) / 60.0, // 转换为每秒速率
		capacity:       float64(capacity),
		tokens:         float64(capacity), // 初始填满
		lastRefillTime: time.Now(),
	}
}

// refill 根据经过的时间填充令牌
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.lastRefillTime = now

	newTokens := elapsed * tb.rate

	// 更新当前令牌数，不超过容量
	if tb.tokens+newTokens > tb.capacity {
		tb.tokens = tb.capacity
	} else {
		tb.tokens += newTokens
	}
}

// Allow 判断是否允许通过一个请求，消耗一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Wait 等待直到有令牌可用
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mutex.Lock()
		tb.refill()

		if tb.tokens >= 1.0 {
			tb.tokens -= 1.0
			tb.mutex.Unlock()
			return nil
		}

		// 计算需要等待的时间
		waitTime := time.Duration((1.0 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
			// 继续尝试获取令牌
		}
	}
}

// LimiterGroup 按模型名管理一组令牌桶
// QPM限制来自配置，未注册的模型不限流
type LimiterGroup struct {
	mutex   sync.Mutex
	limits  map[string]int
	buckets map[string]*TokenBucket
}

// NewLimiterGroup 根据模型QPM限制表创建限流器组
func NewLimiterGroup(qpmLimits map[string]int) *LimiterGroup {
	return &LimiterGroup{
		limits:  qpmLimits,
		buckets: make(map[string]*TokenBucket),
	}
}

// Wait 等待指定模型的令牌；模型未配置限制时立即返回
func (g *LimiterGroup) Wait(ctx context.Context, modelName string) error {
	g.mutex.Lock()
	bucket, ok := g.buckets[modelName]
	if !ok {
		qpm, configured := g.limits[modelName]
		if !configured || qpm <= 0 {
			g.mutex.Unlock()
			return nil
		}
		bucket = NewTokenBucket(qpm, 0)
		g.buckets[modelName] = bucket
	}
	g.mutex.Unlock()

	return bucket.Wait(ctx)
}
