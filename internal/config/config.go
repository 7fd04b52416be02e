// 包 config 负责加载与校验应用配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 仅保留当前需要的字段，避免过度设计。
type Config struct {
	HTTP        HTTP        `yaml:"HTTP"`
	Notion      Notion      `yaml:"NOTION"`
	Site        Site        `yaml:"SITE"`
	Weather     Weather     `yaml:"WEATHER"`
	HotNews     HotNews     `yaml:"HOT_NEWS"`
	IPLookup    IPLookup    `yaml:"IP_LOOKUP"`
	Database    Database    `yaml:"DATABASE"`
	Concurrency Concurrency `yaml:"CONCURRENCY"`
	Proxy       Proxy       `yaml:"PROXY"`
	LogLevel    string      `yaml:"LOG_LEVEL"`
	LogFormat   string      `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale   string      `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor    string      `yaml:"LOG_COLOR"`  // auto|always|never
}

type HTTP struct {
	Address      string `yaml:"address"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
}

// Notion 描述内容源：令牌与三个数据库 ID。
// BaseURL 默认为官方 API，测试时可指向本地桩服务。
type Notion struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	Version        string `yaml:"version"`
	LinksDB        string `yaml:"links_db_id"`
	CategoriesDB   string `yaml:"categories_db_id"`
	ConfigDB       string `yaml:"config_db_id"`
	RevalidateMins int    `yaml:"revalidate_minutes"`
}

type Site struct {
	PinTag      string `yaml:"pin_tag"`      // 置顶标签，默认 力荐👍
	EnrichIcons bool   `yaml:"enrich_icons"` // 为缺图标链接抓取 OpenGraph 元数据
}

type Weather struct {
	BaseURL     string `yaml:"base_url"`
	Key         string `yaml:"key"`
	DefaultCity string `yaml:"default_city"`
	RefreshMins int    `yaml:"refresh_minutes"`
}

// HotSource 为单个热榜平台的抓取来源。
// type=api 直接取 JSON；type=feed 解析 RSS/Atom；type=page 按选择器解析 HTML。
// 选择器语法与友链抓取惯例一致："a@href"、".title||."。
type HotSource struct {
	Platform string `yaml:"platform"` // 平台 key，如 weibo
	Name     string `yaml:"name"`     // 展示名，如 微博
	Type     string `yaml:"type"`     // api|feed|page
	URL      string `yaml:"url"`
	Item     string `yaml:"item"`
	Title    string `yaml:"title"`
	Link     string `yaml:"link"`
	Views    string `yaml:"views"`
}

type HotNews struct {
	Sources     []HotSource `yaml:"sources"`
	CacheMins   int         `yaml:"cache_minutes"`
	RotateSecs  int         `yaml:"rotate_seconds"`
	MaxPerBoard int         `yaml:"max_per_board"`
}

// IPProvider 为 IP 定位上游；URL 中以 %s 占位 IP。
type IPProvider struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type IPLookup struct {
	Providers    []IPProvider `yaml:"providers"`
	PublicIPURL  string       `yaml:"public_ip_url"` // 代理出口 IP 查询（ipify 风格）
	LocalTimeout int          `yaml:"local_timeout_seconds"`
	FallbackIP   string       `yaml:"fallback_ip"` // 本地保留地址时用于演示的公网 IP
}

type Database struct {
	Type string `yaml:"type"` // sqlite (default)
	DSN  string `yaml:"dsn"`  // ./data.db
}

type Concurrency struct {
	Fetch int `yaml:"fetch"`
	Retry int `yaml:"retry"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

// Load 从文件读取 YAML 并反序列化为 Config，同时进行基础校验与默认值填充。
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 15
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 30
	}
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = "https://api.notion.com/v1"
	}
	if c.Notion.Version == "" {
		c.Notion.Version = "2022-06-28"
	}
	if c.Notion.Token == "" {
		return errors.New("NOTION.token required")
	}
	if c.Notion.LinksDB == "" || c.Notion.ConfigDB == "" {
		return errors.New("NOTION.links_db_id and NOTION.config_db_id required")
	}
	if c.Notion.RevalidateMins <= 0 {
		c.Notion.RevalidateMins = 720 // 与原站 revalidate=43200s 对齐
	}
	if c.Site.PinTag == "" {
		c.Site.PinTag = "力荐👍"
	}
	if c.Weather.DefaultCity == "" {
		c.Weather.DefaultCity = "杭州"
	}
	if c.Weather.RefreshMins <= 0 {
		c.Weather.RefreshMins = 30
	}
	if c.HotNews.CacheMins <= 0 {
		c.HotNews.CacheMins = 15
	}
	if c.HotNews.RotateSecs <= 0 {
		c.HotNews.RotateSecs = 30
	}
	if c.HotNews.MaxPerBoard <= 0 {
		c.HotNews.MaxPerBoard = 20
	}
	for i, s := range c.HotNews.Sources {
		if s.Platform == "" || s.URL == "" {
			return fmt.Errorf("HOT_NEWS.sources[%d]: platform and url required", i)
		}
		switch s.Type {
		case "", "api":
			c.HotNews.Sources[i].Type = "api"
		case "feed", "page":
		default:
			return fmt.Errorf("HOT_NEWS.sources[%d]: unsupported type %q", i, s.Type)
		}
	}
	if len(c.IPLookup.Providers) == 0 {
		c.IPLookup.Providers = []IPProvider{
			{Name: "ipapi.co", URL: "https://ipapi.co/%s/json/"},
			{Name: "ip-api.com", URL: "http://ip-api.com/json/%s?fields=status,message,country,regionName,city,query,lat,lon&lang=zh-CN"},
		}
	}
	if c.IPLookup.PublicIPURL == "" {
		c.IPLookup.PublicIPURL = "https://api.ipify.org?format=json"
	}
	if c.IPLookup.LocalTimeout <= 0 {
		c.IPLookup.LocalTimeout = 8
	}
	if c.IPLookup.FallbackIP == "" {
		c.IPLookup.FallbackIP = "8.8.8.8"
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type != "sqlite" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "./data.db"
	}
	if c.Concurrency.Fetch <= 0 {
		c.Concurrency.Fetch = 8
	}
	if c.Concurrency.Retry < 0 {
		c.Concurrency.Retry = 2
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}

// RevalidateTTL 返回内容缓存有效期。
func (c *Config) RevalidateTTL() time.Duration {
	return time.Duration(c.Notion.RevalidateMins) * time.Minute
}
