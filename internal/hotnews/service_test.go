package hotnews

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go-notion-nav/internal/model"
)

// fakeSource 为脚本化来源，记录抓取次数。
type fakeSource struct {
	platform string
	items    []model.HotItem
	err      error
	calls    atomic.Int64
}

func (f *fakeSource) Platform() string { return f.platform }
func (f *fakeSource) Name() string     { return f.platform }
func (f *fakeSource) Fetch(context.Context) ([]model.HotItem, error) {
	f.calls.Add(1)
	return f.items, f.err
}

func okSource(platform string) *fakeSource {
	return &fakeSource{platform: platform, items: []model.HotItem{
		{Title: platform + "-1", URL: "https://example.com/" + platform, Platform: platform},
	}}
}

// 缓存窗口内不触网；窗口过期或 force 时整体重抓。
func TestFeedCacheWindow(t *testing.T) {
	a, b := okSource("weibo"), okSource("zhihu")
	now := time.Unix(1000, 0)
	s := New(Options{Sources: []Source{a, b}, TTL: 15 * time.Minute, Now: func() time.Time { return now }})
	ctx := context.Background()

	feed, err := s.Feed(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed) != 2 || len(feed["weibo"]) != 1 {
		t.Fatalf("feed = %+v", feed)
	}
	if _, err := s.Feed(ctx, false); err != nil {
		t.Fatal(err)
	}
	if a.calls.Load() != 1 {
		t.Fatalf("窗口内不应重抓，抓取 %d 次", a.calls.Load())
	}

	if _, err := s.Feed(ctx, true); err != nil {
		t.Fatal(err)
	}
	if a.calls.Load() != 2 {
		t.Fatal("force 应重抓")
	}

	now = now.Add(16 * time.Minute)
	if _, err := s.Feed(ctx, false); err != nil {
		t.Fatal(err)
	}
	if a.calls.Load() != 3 {
		t.Fatal("窗口过期应重抓")
	}
}

// 单平台失败仅缺席，不影响其他平台。
func TestFeedPartialFailure(t *testing.T) {
	ok := okSource("weibo")
	bad := &fakeSource{platform: "zhihu", err: errors.New("boom")}
	s := New(Options{Sources: []Source{ok, bad}})

	feed, err := s.Feed(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed) != 1 || feed["weibo"] == nil {
		t.Fatalf("feed = %+v", feed)
	}
	if _, exists := feed["zhihu"]; exists {
		t.Fatal("失败平台不应出现在结果里")
	}
}

// 全部失败且无旧缓存时报错；有旧缓存则回放。
func TestFeedAllFail(t *testing.T) {
	bad := &fakeSource{platform: "weibo", err: errors.New("boom")}
	s := New(Options{Sources: []Source{bad}})
	if _, err := s.Feed(context.Background(), false); err == nil {
		t.Fatal("全部失败且无缓存应报错")
	}
}

func TestFeedStaleReplay(t *testing.T) {
	src := okSource("weibo")
	now := time.Unix(1000, 0)
	s := New(Options{Sources: []Source{src}, TTL: 15 * time.Minute, Now: func() time.Time { return now }})
	ctx := context.Background()

	if _, err := s.Feed(ctx, false); err != nil {
		t.Fatal(err)
	}

	src.items, src.err = nil, errors.New("boom")
	now = now.Add(time.Hour)
	feed, err := s.Feed(ctx, false)
	if err != nil {
		t.Fatalf("有旧缓存时应回放：%v", err)
	}
	if len(feed["weibo"]) != 1 {
		t.Fatalf("回放内容 = %+v", feed)
	}
}

func TestRotator(t *testing.T) {
	r := NewRotator([]string{"weibo", "zhihu", "bilibili"}, time.Minute)
	if r.Active() != "weibo" {
		t.Fatalf("初始平台 = %q", r.Active())
	}
	r.advance()
	if r.Active() != "zhihu" {
		t.Fatalf("轮换后 = %q", r.Active())
	}
	r.Select("bilibili")
	if r.Active() != "bilibili" {
		t.Fatalf("手动切换后 = %q", r.Active())
	}
	r.Select("未知平台")
	if r.Active() != "bilibili" {
		t.Fatal("未知平台应被忽略")
	}
	r.advance()
	if r.Active() != "weibo" {
		t.Fatalf("应从所选平台继续往后转，got %q", r.Active())
	}
	r.Stop()
	r.Stop() // 重复停止安全
}

func TestPlatforms(t *testing.T) {
	s := New(Options{Sources: []Source{okSource("weibo"), okSource("zhihu")}})
	got := s.Platforms()
	if len(got) != 2 || got[0].Key != "weibo" || got[1].Key != "zhihu" {
		t.Fatalf("platforms = %+v", got)
	}
}
