package cache

import (
	"testing"
	"time"
)

func TestGateTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	g := NewGate(10*time.Minute, func() time.Time { return now })

	if g.Fresh(false) {
		t.Fatal("未抓取过不应视为新鲜")
	}
	g.Touch()
	if !g.Fresh(false) {
		t.Fatal("刚抓取过应视为新鲜")
	}
	now = now.Add(9 * time.Minute)
	if !g.Fresh(false) {
		t.Fatal("窗口内应视为新鲜")
	}
	now = now.Add(2 * time.Minute)
	if g.Fresh(false) {
		t.Fatal("窗口过期后不应视为新鲜")
	}
}

func TestGateForce(t *testing.T) {
	g := NewGate(time.Hour, nil)
	g.Touch()
	if g.Fresh(true) {
		t.Fatal("force 应绕过缓存")
	}
}

func TestGateKeyed(t *testing.T) {
	now := time.Unix(1000, 0)
	g := NewGate(time.Hour, func() time.Time { return now })

	g.TouchFor("杭州")
	if !g.FreshFor("杭州", false) {
		t.Fatal("同键窗口内应命中")
	}
	if g.FreshFor("北京", false) {
		t.Fatal("键变化应视为过期")
	}
	g.Reset()
	if g.FreshFor("杭州", false) {
		t.Fatal("Reset 后应立即失效")
	}
}
