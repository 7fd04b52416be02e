// 包 cache 提供按 TTL 限流重新抓取的门闸。
// 时钟通过构造函数注入，测试时可替换为假时钟。
package cache

import (
	"sync"
	"time"
)

// Clock 返回当前时间；生产环境传 time.Now。
type Clock func() time.Time

// Gate 记录上次抓取时间，在 TTL 窗口内拦截重复抓取。
// 支持强制刷新旁路；键由持有方保证（单城市/单平台集）。
type Gate struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  Clock
	last time.Time
	seen bool
	key  string
}

// NewGate 创建门闸；now 为 nil 时使用 time.Now。
func NewGate(ttl time.Duration, now Clock) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{ttl: ttl, now: now}
}

// Fresh 报告缓存是否仍在窗口内：force 为 true 时恒为 false。
func (g *Gate) Fresh(force bool) bool {
	if force {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen && g.now().Sub(g.last) < g.ttl
}

// FreshFor 同 Fresh，但额外要求键一致（如当前城市）；键变化视为过期。
func (g *Gate) FreshFor(key string, force bool) bool {
	if force {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen && g.key == key && g.now().Sub(g.last) < g.ttl
}

// Touch 记录一次成功抓取。
func (g *Gate) Touch() { g.TouchFor("") }

// TouchFor 记录一次成功抓取并关联键。
func (g *Gate) TouchFor(key string) {
	g.mu.Lock()
	g.last = g.now()
	g.seen = true
	g.key = key
	g.mu.Unlock()
}

// Reset 使缓存立即失效。
func (g *Gate) Reset() {
	g.mu.Lock()
	g.seen = false
	g.key = ""
	g.mu.Unlock()
}
