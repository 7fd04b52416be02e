package hotnews

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-notion-nav/internal/cache"
	"go-notion-nav/internal/logx"
	"go-notion-nav/internal/model"
)

// PlatformInfo 描述一个可展示的平台。
type PlatformInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Options 为热榜服务参数。
type Options struct {
	Sources []Source
	TTL     time.Duration // 缓存有效期，默认 15 分钟
	Limit   int           // 并发抓取上限，默认 4
	Now     cache.Clock
}

// Service 聚合全部平台热榜并按 TTL 缓存；
// 缓存命中时不触网，force 可越过缓存强制刷新。
type Service struct {
	sources []Source
	gate    *cache.Gate
	limit   int

	mu   sync.RWMutex
	feed model.HotFeed
}

// New 创建热榜服务。
func New(opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	if opts.Limit <= 0 {
		opts.Limit = 4
	}
	return &Service{
		sources: opts.Sources,
		gate:    cache.NewGate(opts.TTL, opts.Now),
		limit:   opts.Limit,
	}
}

// Platforms 返回配置的平台列表（保持配置顺序）。
func (s *Service) Platforms() []PlatformInfo {
	out := make([]PlatformInfo, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, PlatformInfo{Key: src.Platform(), Name: src.Name()})
	}
	return out
}

// PlatformKeys 返回平台 key 列表，供轮换器使用。
func (s *Service) PlatformKeys() []string {
	keys := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		keys = append(keys, src.Platform())
	}
	return keys
}

// Feed 返回 平台 -> 条目 映射。缓存新鲜时直接回放；
// 否则并发抓取全部平台并整体替换缓存。单平台失败仅记日志、
// 该平台缺席；全部失败时返回错误并保留旧缓存。
func (s *Service) Feed(ctx context.Context, force bool) (model.HotFeed, error) {
	if s.gate.Fresh(force) {
		return s.cached(), nil
	}

	if len(s.sources) == 0 {
		return model.HotFeed{}, nil
	}

	fresh := s.fetchAll(ctx)
	if len(fresh) == 0 {
		if old := s.cached(); len(old) > 0 {
			logx.Warnf("热搜全部平台抓取失败，回放旧缓存")
			return old, nil
		}
		return nil, errors.New("获取热搜数据失败")
	}

	s.mu.Lock()
	s.feed = fresh
	s.mu.Unlock()
	s.gate.Touch()
	return s.cached(), nil
}

// fetchAll 并发抓取全部平台，并发度受 limit 约束。
func (s *Service) fetchAll(ctx context.Context) model.HotFeed {
	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.limit)
		mu  sync.Mutex
	)
	fresh := model.HotFeed{}
	for _, src := range s.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			items, err := src.Fetch(ctx)
			if err != nil {
				logx.Warnf("抓取 %s 热榜失败: %v", src.Name(), err)
				return
			}
			if len(items) == 0 {
				logx.Warnf("%s 热榜为空", src.Name())
				return
			}
			mu.Lock()
			fresh[src.Platform()] = items
			mu.Unlock()
		}(src)
	}
	wg.Wait()
	return fresh
}

// cached 返回当前缓存的浅拷贝。
func (s *Service) cached() model.HotFeed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(model.HotFeed, len(s.feed))
	for k, v := range s.feed {
		out[k] = v
	}
	return out
}
