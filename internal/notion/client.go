// 包 notion 对接 Notion 数据库 API：
// - QueryAll：按游标翻页抓取并保持源顺序
// - 形状守卫与纯映射函数把原始页面归一化为 model 类型
package notion

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go-notion-nav/internal/fetch"
)

// Client 为 Notion API 客户端。
type Client struct {
	base    string
	token   string
	version string
	cl      *fetch.Client
}

// New 创建客户端；base 形如 https://api.notion.com/v1。
func New(cl *fetch.Client, base, token, version string) *Client {
	return &Client{base: strings.TrimRight(base, "/"), token: token, version: version, cl: cl}
}

// Sort 为查询排序条件。
type Sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

// CheckboxFilter 为最小可用的复选框过滤条件。
type CheckboxFilter struct {
	Property string `json:"property"`
	Checkbox struct {
		Equals bool `json:"equals"`
	} `json:"checkbox"`
}

// NewCheckboxFilter 构造 "property 等于 equals" 的过滤器。
func NewCheckboxFilter(property string, equals bool) *CheckboxFilter {
	f := &CheckboxFilter{Property: property}
	f.Checkbox.Equals = equals
	return f
}

type queryRequest struct {
	StartCursor string          `json:"start_cursor,omitempty"`
	Sorts       []Sort          `json:"sorts,omitempty"`
	Filter      *CheckboxFilter `json:"filter,omitempty"`
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization":  "Bearer " + c.token,
		"Notion-Version": c.version,
	}
}

// QueryAll 翻页抓取数据库全部页面：请求数恰为 has_more=true 次数加一，
// 结果按源顺序拼接后整体返回（下游排序/过滤需要完整集合）。
func (c *Client) QueryAll(ctx context.Context, databaseID string, sorts []Sort, filter *CheckboxFilter) ([]Page, error) {
	endpoint := fmt.Sprintf("%s/databases/%s/query", c.base, url.PathEscape(databaseID))
	var all []Page
	cursor := ""
	for {
		req := queryRequest{StartCursor: cursor, Sorts: sorts, Filter: filter}
		var resp queryResponse
		if err := c.cl.PostJSON(ctx, endpoint, c.headers(), req, &resp); err != nil {
			return nil, fmt.Errorf("query database %s: %w", databaseID, err)
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

type databaseResponse struct {
	Icon *Icon `json:"icon"`
}

// Icon 为数据库级图标元数据（emoji/file/external 三种形态）。
type Icon struct {
	Type     string `json:"type"`
	Emoji    string `json:"emoji,omitempty"`
	File     *struct {
		URL string `json:"url"`
	} `json:"file,omitempty"`
	External *struct {
		URL string `json:"url"`
	} `json:"external,omitempty"`
}

// DatabaseIcon 读取数据库图标并转换为可用的 favicon 地址：
// emoji 生成内联 SVG data URI，file/external 直接取 URL，缺失时回退内置图标。
func (c *Client) DatabaseIcon(ctx context.Context, databaseID string) (string, error) {
	endpoint := fmt.Sprintf("%s/databases/%s", c.base, url.PathEscape(databaseID))
	var resp databaseResponse
	if err := c.cl.GetJSON(ctx, endpoint, c.headers(), &resp); err != nil {
		return "", fmt.Errorf("retrieve database %s: %w", databaseID, err)
	}
	return FaviconFromIcon(resp.Icon), nil
}

// FaviconFromIcon 把图标元数据转换为地址；nil 或未知类型回退 /favicon.ico。
func FaviconFromIcon(ic *Icon) string {
	if ic == nil {
		return "/favicon.ico"
	}
	switch ic.Type {
	case "emoji":
		if ic.Emoji != "" {
			return `data:image/svg+xml,<svg xmlns=%22http://www.w3.org/2000/svg%22 viewBox=%220 0 100 100%22><text y=%22.9em%22 font-size=%2290%22>` + ic.Emoji + `</text></svg>`
		}
	case "file":
		if ic.File != nil && ic.File.URL != "" {
			return ic.File.URL
		}
	case "external":
		if ic.External != nil && ic.External.URL != "" {
			return ic.External.URL
		}
	}
	return "/favicon.ico"
}
