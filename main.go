// 导航站服务入口：装配配置、存储与各业务服务，并启动 HTTP 服务。
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"go-notion-nav/internal/config"
	"go-notion-nav/internal/content"
	"go-notion-nav/internal/fetch"
	"go-notion-nav/internal/hotnews"
	"go-notion-nav/internal/ipinfo"
	"go-notion-nav/internal/logx"
	"go-notion-nav/internal/model"
	"go-notion-nav/internal/notion"
	"go-notion-nav/internal/server"
	"go-notion-nav/internal/store"
	"go-notion-nav/internal/weather"
)

//go:embed settings.sample.yaml
var sampleConfig []byte

// writeSampleConfig 生成示例配置；目标已存在时拒绝覆盖。
func writeSampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s 已存在，拒绝覆盖", path)
	}
	return os.WriteFile(path, sampleConfig, 0o644)
}

func main() {
	configPath := flag.StringP("config", "c", "settings.yaml", "配置文件路径")
	initConfig := flag.Bool("init", false, "生成示例配置文件后退出")
	flag.Parse()

	if *initConfig {
		if err := writeSampleConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("已生成配置文件：%s，请填入 Notion 令牌与数据库 ID\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logx.Init("info", "pretty", "zh-CN", "auto")
		logx.Errorf("加载配置失败：%v", err)
		os.Exit(1)
	}
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)

	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Retry:      cfg.Concurrency.Retry,
	})
	if err != nil {
		logx.Errorf("初始化 HTTP 客户端失败：%v", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Database.DSN)
	if err != nil {
		logx.Errorf("打开数据库失败：%v", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 内容聚合
	nt := notion.New(cl, cfg.Notion.BaseURL, cfg.Notion.Token, cfg.Notion.Version)
	contentSvc := content.New(nt, st, content.Options{
		LinksDB:      cfg.Notion.LinksDB,
		CategoriesDB: cfg.Notion.CategoriesDB,
		ConfigDB:     cfg.Notion.ConfigDB,
		PinTag:       cfg.Site.PinTag,
		Revalidate:   cfg.RevalidateTTL(),
		EnrichIcons:  cfg.Site.EnrichIcons,
		EnrichLimit:  cfg.Concurrency.Fetch,
	})

	// IP 定位与 IP 挂件
	providers := make([]ipinfo.Provider, 0, len(cfg.IPLookup.Providers))
	for _, p := range cfg.IPLookup.Providers {
		providers = append(providers, ipinfo.Provider{Name: p.Name, URL: p.URL})
	}
	lookup := ipinfo.NewLookup(cl, providers)
	ipWidget := ipinfo.NewWidget(cl, lookup, ipinfo.NetSource{},
		time.Duration(cfg.IPLookup.LocalTimeout)*time.Second, cfg.IPLookup.PublicIPURL)

	// 天气挂件：坐标由浏览器经 /api/widget/weather/locate 上报；
	// 自动模式按本站出口 IP 定位，失败时回落默认城市
	weatherCl := weather.NewClient(cl, cfg.Weather.BaseURL, cfg.Weather.Key)
	weatherWidget := weather.NewWidget(weatherCl, weather.WidgetOptions{
		DefaultCity: cfg.Weather.DefaultCity,
		Refresh:     time.Duration(cfg.Weather.RefreshMins) * time.Minute,
		IPLocate: func(ctx context.Context) (model.Location, error) {
			return lookup.LocateEgress(ctx, cfg.IPLookup.PublicIPURL)
		},
		Cities: st,
	})

	// 热榜
	hotSvc := hotnews.New(hotnews.Options{
		Sources: hotnews.NewSources(cl, cfg.HotNews.Sources),
		TTL:     time.Duration(cfg.HotNews.CacheMins) * time.Minute,
		Limit:   cfg.Concurrency.Fetch,
	})
	rotator := hotnews.NewRotator(hotSvc.PlatformKeys(), time.Duration(cfg.HotNews.RotateSecs)*time.Second)
	rotator.Start()
	defer rotator.Stop()

	go weatherWidget.Start(ctx)
	defer weatherWidget.Stop()
	go ipWidget.Refresh(ctx)

	srv := server.New(server.Options{
		Content:       contentSvc,
		Weather:       weatherCl,
		WeatherWidget: weatherWidget,
		Lookup:        lookup,
		IPWidget:      ipWidget,
		Hot:           hotSvc,
		Rotator:       rotator,
		FallbackIP:    cfg.IPLookup.FallbackIP,
		MaxPerBoard:   cfg.HotNews.MaxPerBoard,
	})
	if err := srv.Run(ctx, cfg.HTTP.Address,
		time.Duration(cfg.HTTP.ReadTimeout)*time.Second,
		time.Duration(cfg.HTTP.WriteTimeout)*time.Second); err != nil {
		logx.Errorf("HTTP 服务退出：%v", err)
		os.Exit(1)
	}
	logx.Infof("服务已退出")
}
