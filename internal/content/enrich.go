package content

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/opengraph/v2"

	"go-notion-nav/internal/logx"
	"go-notion-nav/internal/model"
)

// iconEnricher 抓取目标页面的 OpenGraph 元数据，测试时可替换。
type iconEnricher func(url string) (icon, desc string, err error)

// fetchOpenGraph 为默认实现。
func fetchOpenGraph(url string) (string, string, error) {
	ogp, err := opengraph.Fetch(url)
	if err != nil {
		return "", "", fmt.Errorf("fetch opengraph %s: %w", url, err)
	}
	ogp.ToAbs()
	icon := ""
	if len(ogp.Image) > 0 {
		icon = ogp.Image[0].URL
	}
	desc := ogp.Description
	if desc == "" {
		desc = ogp.Title
	}
	return icon, desc, nil
}

// enrichIcons 为既无托管图标又无外链图标的链接补抓元数据。
// 尽力而为：失败仅记日志，不影响聚合结果。
func (s *Service) enrichIcons(ctx context.Context, links []model.Link) {
	sem := make(chan struct{}, s.opts.EnrichLimit)
	var wg sync.WaitGroup
	for i := range links {
		if links[i].Icon() != "" || links[i].URL == "" || links[i].URL == "#" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(l *model.Link) {
			defer wg.Done()
			defer func() { <-sem }()
			icon, desc, err := s.enrich(l.URL)
			if err != nil {
				logx.Debugf("补抓链接元数据失败：%s %v", l.URL, err)
				return
			}
			if icon != "" {
				l.IconLink = icon
			}
			if l.Desc == "" && desc != "" {
				l.Desc = desc
			}
		}(&links[i])
	}
	wg.Wait()
}
