// 包 model 定义站点的数据模型（链接/分类/站点配置/天气/热榜/IP）。
package model

import "time"

// Link 表示一条导航链接（从 Notion 链接库归一化得到）。
// Category1/Category2 在归一化后保证非空（缺省为 未分类/默认）。
type Link struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Desc      string   `json:"desc"`
	URL       string   `json:"url"`
	Category1 string   `json:"category1"`
	Category2 string   `json:"category2"`
	IconFile  string   `json:"iconfile"`
	IconLink  string   `json:"iconlink"`
	Tags      []string `json:"tags"`
	Created   string   `json:"created"` // ISO 时间字符串，排序时解析
}

// Icon 返回展示用图标地址：托管文件优先于外链。
func (l Link) Icon() string {
	if l.IconFile != "" {
		return l.IconFile
	}
	return l.IconLink
}

// HasTag 判断链接是否带有指定标签。
func (l Link) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SubCategory 为分类下派生的二级分类。
type SubCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category 表示一个导航分类；SubCategories 由链接的 category2 派生。
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	IconName      string        `json:"iconName"`
	Order         int           `json:"order"`
	Enabled       bool          `json:"enabled"`
	SubCategories []SubCategory `json:"subCategories,omitempty"`
}

// SiteConfig 为站点配置键值表，键统一为大写。
type SiteConfig map[string]string

// Get 读取配置项，缺失或为空时返回默认值。
func (c SiteConfig) Get(key, def string) string {
	if v, ok := c[key]; ok && v != "" {
		return v
	}
	return def
}

// WeatherData 为天气挂件的展示模型；空气质量字段可整体缺失。
type WeatherData struct {
	Location string `json:"location"`
	Temp     string `json:"temp"`
	Text     string `json:"text"`
	Icon     string `json:"icon"`
	TempMin  string `json:"tempMin"`
	TempMax  string `json:"tempMax"`

	AQI              string `json:"aqi,omitempty"`
	AQIDisplay       string `json:"aqiDisplay,omitempty"`
	AQILevel         string `json:"level,omitempty"`
	AQICategory      string `json:"category,omitempty"`
	AQIColor         string `json:"color,omitempty"`
	PrimaryPollutant string `json:"primaryPollutant,omitempty"`
}

// Merge 将空气质量部分结果并入天气数据。
func (w *WeatherData) Merge(a AirQuality) {
	if a.Empty() {
		return
	}
	w.AQI = a.AQI
	w.AQIDisplay = a.AQIDisplay
	w.AQILevel = a.Level
	w.AQICategory = a.Category
	w.AQIColor = a.Color
	w.PrimaryPollutant = a.PrimaryPollutant
}

// AirQuality 为空气质量部分结果；零值表示不可用（而非错误）。
type AirQuality struct {
	AQI              string `json:"aqi"`
	AQIDisplay       string `json:"aqiDisplay"`
	Level            string `json:"level"`
	Category         string `json:"category"`
	Color            string `json:"color"`
	PrimaryPollutant string `json:"primaryPollutant"`
}

// Empty 判断空气质量结果是否为空。
func (a AirQuality) Empty() bool { return a == (AirQuality{}) }

// Coords 为一组经纬度坐标。
type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location 为定位链的解析结果；Coords 可能缺失。
type Location struct {
	Name   string  `json:"location"`
	Coords *Coords `json:"coords,omitempty"`
}

// HotItem 为单条热榜数据。
type HotItem struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Views    string `json:"views"`
	Platform string `json:"platform"`
}

// HotFeed 为一次抓取得到的全部平台热榜：平台 key -> 条目列表。
type HotFeed map[string][]HotItem

// IPInfo 为 IP 挂件的单侧结果（本机或代理出口）。
type IPInfo struct {
	IP       string `json:"ip"`
	Location string `json:"location"`
}

// Snapshot 为一次内容聚合的完整产物，用于落库与兜底回放。
type Snapshot struct {
	Links      []Link     `json:"links"`
	Categories []Category `json:"categories"`
	Config     SiteConfig `json:"config"`
	FetchedAt  time.Time  `json:"fetched_at"`
}
