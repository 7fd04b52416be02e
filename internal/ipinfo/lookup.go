package ipinfo

import (
	"context"
	"errors"
	"fmt"

	"go-notion-nav/internal/fetch"
	"go-notion-nav/internal/model"
)

// Provider 为 IP 定位上游；URL 中以 %s 占位查询的 IP。
type Provider struct {
	Name string
	URL  string
}

// GeoResult 为 IP 定位结果。
type GeoResult struct {
	IP        string   `json:"ip"`
	Location  string   `json:"location"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// providerResponse 覆盖两种上游形状（ipapi.co 与 ip-api.com 风格）的并集。
type providerResponse struct {
	IP          string   `json:"ip"`
	Query       string   `json:"query"`
	City        string   `json:"city"`
	CountryName string   `json:"country_name"`
	Country     string   `json:"country"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Status      string   `json:"status"`
	Message     string   `json:"message"`
}

// Lookup 为多上游 IP 定位服务。
type Lookup struct {
	providers []Provider
	cl        *fetch.Client
}

// NewLookup 创建定位服务。
func NewLookup(cl *fetch.Client, providers []Provider) *Lookup {
	return &Lookup{providers: providers, cl: cl}
}

// Geolocate 依次尝试各上游，返回第一个成功结果；
// 全部失败时返回最后一次错误（调用方据此回 未知位置）。
func (l *Lookup) Geolocate(ctx context.Context, ip string) (GeoResult, error) {
	var lastErr error
	for _, p := range l.providers {
		res, err := l.queryProvider(ctx, p, ip)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", p.Name, err)
			continue
		}
		return res, nil
	}
	if lastErr == nil {
		lastErr = errors.New("所有服务均不可用")
	}
	return GeoResult{}, lastErr
}

func (l *Lookup) queryProvider(ctx context.Context, p Provider, ip string) (GeoResult, error) {
	var resp providerResponse
	if err := l.cl.GetJSON(ctx, fmt.Sprintf(p.URL, ip), nil, &resp); err != nil {
		return GeoResult{}, err
	}
	if resp.Status == "fail" {
		return GeoResult{}, fmt.Errorf("上游返回错误: %s", resp.Message)
	}
	res := GeoResult{IP: resp.IP, Location: resp.City, Country: resp.CountryName}
	if res.IP == "" {
		res.IP = resp.Query
	}
	if res.IP == "" {
		res.IP = ip
	}
	if res.Location == "" {
		res.Location = "未知位置"
	}
	if res.Country == "" {
		res.Country = resp.Country
	}
	if res.Country == "" {
		res.Country = "未知国家"
	}
	res.Latitude = firstCoord(resp.Latitude, resp.Lat)
	res.Longitude = firstCoord(resp.Longitude, resp.Lon)
	return res, nil
}

func firstCoord(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

// Locate 以 天气定位链 需要的形状返回结果（地名 + 可选坐标）。
func (l *Lookup) Locate(ctx context.Context, ip string) (model.Location, error) {
	res, err := l.Geolocate(ctx, ip)
	if err != nil {
		return model.Location{}, err
	}
	loc := model.Location{Name: res.Location}
	if res.Latitude != nil && res.Longitude != nil {
		loc.Coords = &model.Coords{Lat: *res.Latitude, Lon: *res.Longitude}
	}
	return loc, nil
}

// LocateEgress 先发现本站出口 IP 再对其定位，供天气定位链使用。
// 服务端没有访问者坐标，出口 IP 是唯一真实的位置信号。
func (l *Lookup) LocateEgress(ctx context.Context, endpoint string) (model.Location, error) {
	ip, err := DiscoverProxy(ctx, l.cl, endpoint)
	if err != nil {
		return model.Location{}, err
	}
	return l.Locate(ctx, ip)
}

// Enrich 为已发现的 IP 附加人读位置；失败不致命，回 未知位置。
func (l *Lookup) Enrich(ctx context.Context, ip string) string {
	res, err := l.Geolocate(ctx, ip)
	if err != nil {
		return "未知位置"
	}
	if res.Location != "未知位置" && res.Country != "未知国家" {
		return res.Location + ", " + res.Country
	}
	return res.Location
}

type publicIPResponse struct {
	IP string `json:"ip"`
}

// DiscoverProxy 查询代理出口 IP；网络错误、非 2xx 或缺失字段均视为失败。
func DiscoverProxy(ctx context.Context, cl *fetch.Client, endpoint string) (string, error) {
	var resp publicIPResponse
	if err := cl.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return "", fmt.Errorf("获取代理IP失败: %w", err)
	}
	if resp.IP == "" {
		return "", errors.New("无法获取代理IP")
	}
	return resp.IP, nil
}
