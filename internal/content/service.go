// 包 content 负责内容聚合：
// - 从 Notion 三个库抓取链接/分类/配置并归一化
// - 排序（置顶标签优先，其次创建时间倒序）与分类装配
// - 按 revalidate 窗口缓存，成功结果落库，源站故障时回放快照
package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-notion-nav/internal/cache"
	"go-notion-nav/internal/logx"
	"go-notion-nav/internal/model"
	"go-notion-nav/internal/notion"
	"go-notion-nav/internal/store"
)

// Options 为服务构造参数。
type Options struct {
	LinksDB      string
	CategoriesDB string
	ConfigDB     string
	PinTag       string        // 置顶标签，默认 力荐👍
	Revalidate   time.Duration // 聚合结果缓存窗口
	EnrichIcons  bool          // 为缺图标链接补抓 OpenGraph 元数据
	EnrichLimit  int           // 补抓并发上限
	Now          cache.Clock
}

// Service 为内容聚合服务。
type Service struct {
	nt   *notion.Client
	st   *store.Store // 可为 nil（无持久化模式）
	opts Options
	now  cache.Clock

	gate *cache.Gate
	mu   sync.RWMutex
	snap *model.Snapshot

	enrich iconEnricher
}

// New 创建聚合服务。
func New(nt *notion.Client, st *store.Store, opts Options) *Service {
	if opts.PinTag == "" {
		opts.PinTag = "力荐👍"
	}
	if opts.Revalidate <= 0 {
		opts.Revalidate = 12 * time.Hour
	}
	if opts.EnrichLimit <= 0 {
		opts.EnrichLimit = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		nt:     nt,
		st:     st,
		opts:   opts,
		now:    opts.Now,
		gate:   cache.NewGate(opts.Revalidate, opts.Now),
		enrich: fetchOpenGraph,
	}
}

// Links 抓取全部链接并排序；远端失败降级为空列表（页面照常渲染）。
func (s *Service) Links(ctx context.Context) []model.Link {
	pages, err := s.nt.QueryAll(ctx, s.opts.LinksDB, []notion.Sort{
		{Property: "category1", Direction: "ascending"},
		{Property: "category2", Direction: "ascending"},
	}, nil)
	if err != nil {
		logx.Errorf("抓取链接失败：%v", err)
		return []model.Link{}
	}
	links := make([]model.Link, 0, len(pages))
	for _, p := range pages {
		if !notion.IsLinkPage(p) {
			continue
		}
		links = append(links, notion.ToLink(p))
	}
	s.SortLinks(links)
	return links
}

// SortLinks 双键排序：置顶标签优先，其次创建时间倒序。
func (s *Service) SortLinks(links []model.Link) {
	sort.SliceStable(links, func(i, j int) bool {
		pi, pj := links[i].HasTag(s.opts.PinTag), links[j].HasTag(s.opts.PinTag)
		if pi != pj {
			return pi
		}
		return parseCreated(links[i].Created).After(parseCreated(links[j].Created))
	})
}

func parseCreated(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Categories 抓取启用的分类并按 Order 排序；失败降级为空列表。
func (s *Service) Categories(ctx context.Context) []model.Category {
	if s.opts.CategoriesDB == "" {
		return []model.Category{}
	}
	pages, err := s.nt.QueryAll(ctx, s.opts.CategoriesDB,
		[]notion.Sort{{Property: "Order", Direction: "ascending"}},
		notion.NewCheckboxFilter("Enabled", true))
	if err != nil {
		logx.Errorf("抓取分类失败：%v", err)
		return []model.Category{}
	}
	cats := make([]model.Category, 0, len(pages))
	for _, p := range pages {
		if !notion.IsCategoryPage(p) {
			continue
		}
		cats = append(cats, notion.ToCategory(p))
	}
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Order < cats[j].Order })
	return cats
}

// SiteConfig 抓取站点配置并补默认值；失败向上抛出（页面元数据无法渲染，视为致命）。
func (s *Service) SiteConfig(ctx context.Context) (model.SiteConfig, error) {
	pages, err := s.nt.QueryAll(ctx, s.opts.ConfigDB, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("获取网站配置失败: %w", err)
	}
	raw := model.SiteConfig{}
	for _, p := range pages {
		if !notion.IsConfigPage(p) {
			continue
		}
		if k, v, ok := notion.ConfigItem(p); ok {
			raw[k] = v
		}
	}
	favicon, err := s.nt.DatabaseIcon(ctx, s.opts.ConfigDB)
	if err != nil {
		// 图标元数据失败不致命，退回内置图标
		logx.Warnf("读取站点图标失败：%v", err)
		favicon = "/favicon.ico"
	}
	return assembleConfig(raw, favicon), nil
}

// assembleConfig 把原始键值与默认值合并，保证所有已知键都有值。
func assembleConfig(raw model.SiteConfig, favicon string) model.SiteConfig {
	cfg := model.SiteConfig{
		"SITE_TITLE":          raw.Get("SITE_TITLE", "我的导航"),
		"SITE_DESCRIPTION":    raw.Get("SITE_DESCRIPTION", "个人导航网站"),
		"SITE_KEYWORDS":       raw.Get("SITE_KEYWORDS", "导航,网址导航"),
		"SITE_AUTHOR":         raw.Get("SITE_AUTHOR", ""),
		"SITE_FOOTER":         raw.Get("SITE_FOOTER", ""),
		"SITE_FAVICON":        favicon,
		"THEME_NAME":          raw.Get("THEME_NAME", "simple"),
		"SHOW_THEME_SWITCHER": raw.Get("SHOW_THEME_SWITCHER", "true"),
		"SOCIAL_GITHUB":       raw.Get("SOCIAL_GITHUB", ""),
		"SOCIAL_BLOG":         raw.Get("SOCIAL_BLOG", ""),
		"SOCIAL_X":            raw.Get("SOCIAL_X", ""),
		"SOCIAL_JIKE":         raw.Get("SOCIAL_JIKE", ""),
		"SOCIAL_WEIBO":        raw.Get("SOCIAL_WEIBO", ""),
		"SOCIAL_XIAOHONGSHU":  raw.Get("SOCIAL_XIAOHONGSHU", ""),
		"CLARITY_ID":          raw.Get("CLARITY_ID", ""),
		"GA_ID":               raw.Get("GA_ID", ""),
		"WIDGET_CONFIG":       raw.Get("WIDGET_CONFIG", ""),
	}
	return cfg
}

// Assemble 返回整站内容：命中 revalidate 窗口直接用内存缓存；
// 配置抓取失败时回放最近一次落库快照，无快照才向上抛错。
func (s *Service) Assemble(ctx context.Context, force bool) (*model.Snapshot, error) {
	s.mu.RLock()
	cached := s.snap
	s.mu.RUnlock()
	if cached != nil && s.gate.Fresh(force) {
		return cached, nil
	}

	cfg, err := s.SiteConfig(ctx)
	if err != nil {
		if stale := s.staleSnapshot(ctx); stale != nil {
			logx.Warnf("配置抓取失败，回放 %s 的内容快照：%v", stale.FetchedAt.Format("2006-01-02 15:04"), err)
			return stale, nil
		}
		return nil, err
	}

	links := s.Links(ctx)
	cats := s.Categories(ctx)
	snap := &model.Snapshot{
		Links:     assembleLinks(links, cats),
		Config:    cfg,
		FetchedAt: s.now(),
	}
	snap.Categories = assembleCategories(cats, snap.Links)

	if s.opts.EnrichIcons {
		s.enrichIcons(ctx, snap.Links)
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.gate.Touch()

	if s.st != nil {
		if err := s.st.SaveSnapshot(ctx, *snap); err != nil {
			logx.Warnf("保存内容快照失败：%v", err)
		}
	}
	logx.Infof("内容聚合完成：链接=%d 分类=%d 配置项=%d", len(snap.Links), len(snap.Categories), len(snap.Config))
	return snap, nil
}

// staleSnapshot 依次尝试内存缓存与落库快照。
func (s *Service) staleSnapshot(ctx context.Context) *model.Snapshot {
	s.mu.RLock()
	cached := s.snap
	s.mu.RUnlock()
	if cached != nil {
		return cached
	}
	if s.st == nil {
		return nil
	}
	snap, err := s.st.LoadSnapshot(ctx)
	if err != nil {
		logx.Warnf("读取内容快照失败：%v", err)
		return nil
	}
	return snap
}

// assembleLinks 只保留启用分类中的链接（分类列表为空时不过滤，
// 与原站未配置分类库的行为一致）。
func assembleLinks(links []model.Link, cats []model.Category) []model.Link {
	if len(cats) == 0 {
		return links
	}
	enabled := map[string]bool{}
	for _, c := range cats {
		enabled[c.Name] = true
	}
	out := make([]model.Link, 0, len(links))
	for _, l := range links {
		if enabled[l.Category1] {
			out = append(out, l)
		}
	}
	return out
}

// assembleCategories 过滤掉没有链接的分类，并由链接的 category2 派生子分类。
func assembleCategories(cats []model.Category, links []model.Link) []model.Category {
	subsByCat := map[string][]model.SubCategory{}
	seen := map[string]map[string]bool{}
	for _, l := range links {
		if seen[l.Category1] == nil {
			seen[l.Category1] = map[string]bool{}
		}
		if seen[l.Category1][l.Category2] {
			continue
		}
		seen[l.Category1][l.Category2] = true
		subsByCat[l.Category1] = append(subsByCat[l.Category1], model.SubCategory{
			ID:   slugify(l.Category2),
			Name: l.Category2,
		})
	}
	out := make([]model.Category, 0, len(cats))
	for _, c := range cats {
		subs, ok := subsByCat[c.Name]
		if !ok {
			continue // 无链接的分类不进入最终导航
		}
		c.SubCategories = subs
		out = append(out, c)
	}
	return out
}

// slugify 生成子分类 id：小写并把空白折叠为连字符。
func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
