package hotnews

import (
	"sync"
	"time"
)

// Rotator 周期性轮换当前展示平台；手动 Select 会把轮换
// 指针对齐到所选平台，下个周期从它继续往后转。
type Rotator struct {
	platforms []string
	interval  time.Duration

	mu  sync.Mutex
	idx int

	stop chan struct{}
	once sync.Once
}

// NewRotator 创建轮换器；interval<=0 时取 30 秒。
func NewRotator(platforms []string, interval time.Duration) *Rotator {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Rotator{platforms: platforms, interval: interval, stop: make(chan struct{})}
}

// Start 启动后台轮换；平台不足两个时无事可做。
func (r *Rotator) Start() {
	if len(r.platforms) < 2 {
		return
	}
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.advance()
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop 停止轮换，可安全多次调用。
func (r *Rotator) Stop() {
	r.once.Do(func() { close(r.stop) })
}

// Active 返回当前展示的平台 key；无平台时为空串。
func (r *Rotator) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.platforms) == 0 {
		return ""
	}
	return r.platforms[r.idx]
}

// Select 手动切到指定平台；未知平台忽略。
func (r *Rotator) Select(platform string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.platforms {
		if p == platform {
			r.idx = i
			return
		}
	}
}

func (r *Rotator) advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.platforms) == 0 {
		return
	}
	r.idx = (r.idx + 1) % len(r.platforms)
}
