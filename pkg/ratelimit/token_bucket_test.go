package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenBucketAllow 验证令牌消耗与容量上限
func TestTokenBucketAllow(t *testing.T) {
	// QPM=60 即每秒1个令牌，容量2
	tb := NewTokenBucket(60, 2)

	assert.True(t, tb.Allow(), "初始桶应是满的")
	assert.True(t, tb.Allow(), "容量为2时第二次也应通过")
	assert.False(t, tb.Allow(), "令牌耗尽后应拒绝")
}

// TestTokenBucketWaitContextCancel 验证上下文取消时Wait立即返回
func TestTokenBucketWaitContextCancel(t *testing.T) {
	tb := NewTokenBucket(1, 1) // 极低速率
	require.True(t, tb.Allow(), "先耗尽唯一令牌")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	require.Error(t, err, "上下文超时后Wait应返回错误")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestLimiterGroup 验证按模型名分组限流
func TestLimiterGroup(t *testing.T) {
	group := NewLimiterGroup(map[string]int{
		"qwen-turbo": 60,
	})

	// 未配置限制的模型不应阻塞
	err := group.Wait(context.Background(), "unlimited-model")
	require.NoError(t, err)

	// 已配置的模型使用令牌桶
	err = group.Wait(context.Background(), "qwen-turbo")
	require.NoError(t, err, "桶初始为满，首次等待应立即通过")
}
