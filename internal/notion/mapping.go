package notion

import (
	"strings"

	"go-notion-nav/internal/model"
)

// Page 为查询返回的原始页面；属性形状在映射前先过守卫校验。
type Page struct {
	Object     string              `json:"object"`
	ID         string              `json:"id"`
	Properties map[string]Property `json:"properties"`
}

// Property 是属性的联合形状，按 Type 取对应字段。
type Property struct {
	Type        string         `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	URL         *string        `json:"url,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Files       []FileRef      `json:"files,omitempty"`
	Number      *float64       `json:"number,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
	CreatedTime string         `json:"created_time,omitempty"`
}

type RichText struct {
	PlainText string `json:"plain_text"`
}

type SelectOption struct {
	Name string `json:"name"`
}

// FileRef 为文件属性条目：托管文件或外链二选一。
type FileRef struct {
	Type     string `json:"type"`
	File     *struct {
		URL string `json:"url"`
	} `json:"file,omitempty"`
	External *struct {
		URL string `json:"url"`
	} `json:"external,omitempty"`
}

// ---- 属性取值（对缺失形状一律返回零值） ----

func titleOf(p Property) string {
	if len(p.Title) == 0 {
		return ""
	}
	return p.Title[0].PlainText
}

func richTextOf(p Property) string {
	if len(p.RichText) == 0 {
		return ""
	}
	return p.RichText[0].PlainText
}

func urlOf(p Property) string {
	if p.URL == nil {
		return ""
	}
	return *p.URL
}

func selectOf(p Property) string {
	if p.Select == nil {
		return ""
	}
	return p.Select.Name
}

func multiSelectOf(p Property) []string {
	out := make([]string, 0, len(p.MultiSelect))
	for _, o := range p.MultiSelect {
		out = append(out, o.Name)
	}
	return out
}

func fileURLOf(p Property) string {
	if len(p.Files) == 0 {
		return ""
	}
	f := p.Files[0]
	if f.Type == "external" && f.External != nil {
		return f.External.URL
	}
	if f.Type == "file" && f.File != nil {
		return f.File.URL
	}
	return ""
}

// ---- 形状守卫：缺少必需属性的记录会被静默丢弃（校验过滤，非错误） ----

func isPage(p Page) bool {
	return p.Object == "page" && p.Properties != nil
}

func hasProps(p Page, names ...string) bool {
	for _, n := range names {
		if _, ok := p.Properties[n]; !ok {
			return false
		}
	}
	return true
}

// IsLinkPage 校验链接库页面形状。
func IsLinkPage(p Page) bool {
	return isPage(p) && hasProps(p, "Name", "URL", "desc", "category1", "category2", "Tags", "iconfile", "iconlink", "Created")
}

// IsCategoryPage 校验分类库页面形状。
func IsCategoryPage(p Page) bool {
	return isPage(p) && hasProps(p, "Name", "IconName", "Order", "Enabled")
}

// IsConfigPage 校验配置库页面形状。
func IsConfigPage(p Page) bool {
	return isPage(p) && hasProps(p, "Name", "Value")
}

// ---- 纯映射：缺省值在此处一次性补齐（见 model 注释的非空保证） ----

// ToLink 把链接页面映射为领域模型：URL 缺省 "#"，分类缺省 未分类/默认。
func ToLink(p Page) model.Link {
	props := p.Properties
	u := urlOf(props["URL"])
	if u == "" {
		u = "#"
	}
	c1 := selectOf(props["category1"])
	if c1 == "" {
		c1 = "未分类"
	}
	c2 := selectOf(props["category2"])
	if c2 == "" {
		c2 = "默认"
	}
	return model.Link{
		ID:        p.ID,
		Name:      titleOf(props["Name"]),
		Created:   props["Created"].CreatedTime,
		Desc:      richTextOf(props["desc"]),
		URL:       u,
		Category1: c1,
		Category2: c2,
		IconFile:  fileURLOf(props["iconfile"]),
		IconLink:  urlOf(props["iconlink"]),
		Tags:      multiSelectOf(props["Tags"]),
	}
}

// ToCategory 把分类页面映射为领域模型。
func ToCategory(p Page) model.Category {
	props := p.Properties
	order := 0
	if props["Order"].Number != nil {
		order = int(*props["Order"].Number)
	}
	enabled := false
	if props["Enabled"].Checkbox != nil {
		enabled = *props["Enabled"].Checkbox
	}
	return model.Category{
		ID:       p.ID,
		Name:     titleOf(props["Name"]),
		IconName: richTextOf(props["IconName"]),
		Order:    order,
		Enabled:  enabled,
	}
}

// ConfigItem 把配置行转为键值对：键统一大写；键为空时丢弃该行。
func ConfigItem(p Page) (key, value string, ok bool) {
	k := titleOf(p.Properties["Name"])
	if k == "" {
		return "", "", false
	}
	return strings.ToUpper(k), richTextOf(p.Properties["Value"]), true
}
