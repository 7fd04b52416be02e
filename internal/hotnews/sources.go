// 包 hotnews 聚合各平台热榜：
// - api：DailyHotApi 风格 JSON 上游
// - feed：RSS/Atom 镜像（gofeed 解析）
// - page：HTML 页面按选择器抽取（"sel@attr||兜底" 语法）
// 所有平台一次抓齐，经 TTL 门闸限流，由 Rotator 轮换展示平台。
package hotnews

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"go-notion-nav/internal/config"
	"go-notion-nav/internal/fetch"
	"go-notion-nav/internal/model"
)

// Source 为单平台热榜来源。
type Source interface {
	Platform() string
	Name() string
	Fetch(ctx context.Context) ([]model.HotItem, error)
}

// NewSources 按配置构造来源列表。
func NewSources(cl *fetch.Client, specs []config.HotSource) []Source {
	out := make([]Source, 0, len(specs))
	for _, sp := range specs {
		switch sp.Type {
		case "feed":
			out = append(out, &feedSource{spec: sp, cl: cl})
		case "page":
			out = append(out, &pageSource{spec: sp, cl: cl})
		default:
			out = append(out, &apiSource{spec: sp, cl: cl})
		}
	}
	return out
}

// ---- api 来源 ----

type apiSource struct {
	spec config.HotSource
	cl   *fetch.Client
}

type apiResponse struct {
	Code int `json:"code"`
	Data []struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		MobileURL string `json:"mobileUrl"`
		Hot       any    `json:"hot"`
	} `json:"data"`
}

func (s *apiSource) Platform() string { return s.spec.Platform }
func (s *apiSource) Name() string     { return s.spec.Name }

func (s *apiSource) Fetch(ctx context.Context) ([]model.HotItem, error) {
	var resp apiResponse
	if err := s.cl.GetJSON(ctx, s.spec.URL, nil, &resp); err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.spec.URL, err)
	}
	if resp.Code != 0 && resp.Code != 200 {
		return nil, fmt.Errorf("上游返回错误码: %d", resp.Code)
	}
	items := make([]model.HotItem, 0, len(resp.Data))
	for _, d := range resp.Data {
		u := d.URL
		if u == "" {
			u = d.MobileURL
		}
		if d.Title == "" || u == "" {
			continue
		}
		items = append(items, model.HotItem{
			Title:    d.Title,
			URL:      u,
			Views:    formatHot(d.Hot),
			Platform: s.spec.Platform,
		})
	}
	return items, nil
}

// formatHot 把热度值转为人读字符串（亿/万）。
func formatHot(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		switch {
		case n >= 1e8:
			return fmt.Sprintf("%.1f亿", n/1e8)
		case n >= 1e4:
			return fmt.Sprintf("%.1f万", n/1e4)
		default:
			return fmt.Sprintf("%.0f", n)
		}
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ---- feed 来源 ----

type feedSource struct {
	spec config.HotSource
	cl   *fetch.Client
}

func (s *feedSource) Platform() string { return s.spec.Platform }
func (s *feedSource) Name() string     { return s.spec.Name }

func (s *feedSource) Fetch(ctx context.Context) ([]model.HotItem, error) {
	resp, err := s.cl.Get(ctx, s.spec.URL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.spec.URL, err)
	}
	defer resp.Body.Close()
	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.spec.URL, err)
	}
	items := make([]model.HotItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it.Title == "" || it.Link == "" {
			continue
		}
		items = append(items, model.HotItem{
			Title:    it.Title,
			URL:      it.Link,
			Platform: s.spec.Platform,
		})
	}
	return items, nil
}

// ---- page 来源 ----

type pageSource struct {
	spec config.HotSource
	cl   *fetch.Client
}

func (s *pageSource) Platform() string { return s.spec.Platform }
func (s *pageSource) Name() string     { return s.spec.Name }

func (s *pageSource) Fetch(ctx context.Context) ([]model.HotItem, error) {
	resp, err := s.cl.Get(ctx, s.spec.URL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.spec.URL, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(b)))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", s.spec.URL, err)
	}
	var items []model.HotItem
	doc.Find(s.spec.Item).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(getVal(sel, s.spec.Title))
		link := absURL(s.spec.URL, getVal(sel, s.spec.Link))
		if title == "" || link == "" {
			return
		}
		items = append(items, model.HotItem{
			Title:    title,
			URL:      link,
			Views:    strings.TrimSpace(getVal(sel, s.spec.Views)),
			Platform: s.spec.Platform,
		})
	})
	return items, nil
}

// getVal 解析选择器表达式，支持 "||" 多方案回退：
// - 文本：".title" 或 "."（取当前项文本）
// - 属性："a@href"/"@href"（当前项属性）
func getVal(scope *goquery.Selection, expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}
	for _, p := range strings.Split(expr, "||") {
		if v := getValSingle(scope, strings.TrimSpace(p)); v != "" {
			return v
		}
	}
	return ""
}

func getValSingle(scope *goquery.Selection, expr string) string {
	if expr == "" {
		return ""
	}
	if expr == "." {
		return strings.TrimSpace(scope.Text())
	}
	if at := strings.Index(expr, "@"); at != -1 {
		sel := strings.TrimSpace(expr[:at])
		attr := strings.TrimSpace(expr[at+1:])
		if sel == "" {
			val, _ := scope.Attr(attr)
			return strings.TrimSpace(val)
		}
		val, _ := scope.Find(sel).First().Attr(attr)
		return strings.TrimSpace(val)
	}
	return strings.TrimSpace(scope.Find(expr).First().Text())
}

// absURL 将相对链接基于页面地址绝对化。
func absURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	bu, err := url.Parse(base)
	if err != nil {
		return ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return bu.ResolveReference(ru).String()
}
