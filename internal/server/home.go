package server

import (
	"embed"
	"html/template"
	"net/http"

	"go-notion-nav/internal/logx"
	"go-notion-nav/internal/model"
)

//go:embed templates/home.html
var templateFS embed.FS

var homeTmpl = template.Must(template.ParseFS(templateFS, "templates/home.html"))

// homeView 为首页模板数据：站点配置 + 按分类分组的链接。
type homeView struct {
	Config model.SiteConfig
	Groups []linkGroup
}

type linkGroup struct {
	Category model.Category
	Links    []model.Link
}

// handleHome 渲染导航首页；内容来源与 JSON API 共用同一份快照。
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Content.Assemble(r.Context(), false)
	if err != nil {
		http.Error(w, "站点暂不可用", http.StatusInternalServerError)
		return
	}
	view := homeView{Config: snap.Config, Groups: groupLinks(snap)}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTmpl.Execute(w, view); err != nil {
		logx.Warnf("渲染首页失败：%v", err)
	}
}

// groupLinks 按分类顺序分组链接；无分类配置时归入单一默认组。
func groupLinks(snap *model.Snapshot) []linkGroup {
	if len(snap.Categories) == 0 {
		if len(snap.Links) == 0 {
			return nil
		}
		return []linkGroup{{
			Category: model.Category{Name: "未分类"},
			Links:    snap.Links,
		}}
	}
	byCat := map[string][]model.Link{}
	for _, l := range snap.Links {
		byCat[l.Category1] = append(byCat[l.Category1], l)
	}
	groups := make([]linkGroup, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		links, ok := byCat[c.Name]
		if !ok {
			continue
		}
		groups = append(groups, linkGroup{Category: c, Links: links})
	}
	return groups
}
