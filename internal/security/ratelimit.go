package security

import (
	"sync"
	"time"
)

// SlidingWindow 按客户端标识做滑动窗口限流
//
// 为每个客户端维护一个按时间排序的已接受提交时间戳序列，
// 连续重算窗口内计数，不存在固定分桶的对齐误差。
// 状态为进程内共享可变状态，由互斥锁保护。
type SlidingWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	hits   map[string][]time.Time
}

// NewSlidingWindow 创建滑动窗口限流器
//
// 参数:
//   - max: 窗口内最多允许的提交次数
//   - window: 窗口长度
func NewSlidingWindow(max int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		max:    max,
		window: window,
		hits:   make(map[string][]time.Time),
	}
}

// Allow 检查 clientID 在当前窗口内是否还允许提交
//
// 先丢弃窗口外的旧时间戳；剩余数量达到上限则拒绝且不记录，
// 否则记录 now 并放行。clientID 被当作不透明的字符串键。
func (l *SlidingWindow) Allow(clientID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	q := l.hits[clientID]
	cutoff := now.Add(-l.window)
	for len(q) > 0 && q[0].Before(cutoff) {
		q = q[1:]
	}

	if len(q) >= l.max {
		l.hits[clientID] = q
		return false
	}

	l.hits[clientID] = append(q, now)
	return true
}

// Sweep 清除窗口内已无记录的空闲客户端键，返回清除数量
//
// 防止键表随进程生命周期无界增长，由上层周期性调用。
func (l *SlidingWindow) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	removed := 0
	for id, q := range l.hits {
		for len(q) > 0 && q[0].Before(cutoff) {
			q = q[1:]
		}
		if len(q) == 0 {
			delete(l.hits, id)
			removed++
			continue
		}
		l.hits[id] = q
	}
	return removed
}

// Size 返回当前跟踪的客户端键数量
func (l *SlidingWindow) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}
