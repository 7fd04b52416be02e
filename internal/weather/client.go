// 包 weather 负责天气侧能力：
// - 上游客户端（实况天气/空气质量/逆地理编码）
// - 定位解析链（浏览器坐标→逆地理→IP 定位→默认城市）
// - 挂件编排（并发抓取、部分合并、周期刷新）
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go-notion-nav/internal/fetch"
	"go-notion-nav/internal/model"
)

// CityNotFoundError 表示上游找不到该城市（HTTP 404）。
type CityNotFoundError struct {
	City string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("找不到城市 %s 的天气数据", e.City)
}

// Client 为天气上游客户端。
type Client struct {
	base string
	key  string
	cl   *fetch.Client
}

// NewClient 创建客户端；base 为上游根地址。
func NewClient(cl *fetch.Client, base, key string) *Client {
	return &Client{base: strings.TrimRight(base, "/"), key: key, cl: cl}
}

type weatherResponse struct {
	Location string `json:"location"`
	Temp     string `json:"temp"`
	Text     string `json:"text"`
	Icon     string `json:"icon"`
	TempMin  string `json:"tempMin"`
	TempMax  string `json:"tempMax"`
	Error    string `json:"error"`
}

// CityWeather 查询城市实况天气。
// 404 映射为 CityNotFoundError；其余非 2xx 报状态码；响应错误字段同样视为失败。
func (c *Client) CityWeather(ctx context.Context, city string) (model.WeatherData, error) {
	q := fmt.Sprintf("%s/now?city=%s&key=%s", c.base, url.QueryEscape(city), url.QueryEscape(c.key))
	var resp weatherResponse
	if err := c.cl.GetJSON(ctx, q, nil, &resp); err != nil {
		var se *fetch.StatusError
		if errors.As(err, &se) {
			if se.Code == 404 {
				return model.WeatherData{}, &CityNotFoundError{City: city}
			}
			return model.WeatherData{}, fmt.Errorf("天气数据获取失败 - HTTP状态码: %d", se.Code)
		}
		return model.WeatherData{}, fmt.Errorf("天气数据获取失败: %w", err)
	}
	if resp.Error != "" {
		return model.WeatherData{}, errors.New(resp.Error)
	}
	loc := resp.Location
	if loc == "" {
		loc = city
	}
	return model.WeatherData{
		Location: loc,
		Temp:     resp.Temp,
		Text:     resp.Text,
		Icon:     resp.Icon,
		TempMin:  resp.TempMin,
		TempMax:  resp.TempMax,
	}, nil
}

type airResponse struct {
	model.AirQuality
	Error string `json:"error"`
}

// AirQuality 查询空气质量：有坐标按坐标查，否则按地名查。
// 任意失败返回空结果与错误，调用方可选择吞掉（空气质量不阻塞天气）。
func (c *Client) AirQuality(ctx context.Context, location string, coords *model.Coords) (model.AirQuality, error) {
	var q string
	if coords != nil {
		q = fmt.Sprintf("%s/air?lat=%v&lon=%v&key=%s", c.base, coords.Lat, coords.Lon, url.QueryEscape(c.key))
	} else {
		q = fmt.Sprintf("%s/air?location=%s&key=%s", c.base, url.QueryEscape(location), url.QueryEscape(c.key))
	}
	var resp airResponse
	if err := c.cl.GetJSON(ctx, q, nil, &resp); err != nil {
		return model.AirQuality{}, fmt.Errorf("空气质量获取失败: %w", err)
	}
	if resp.Error != "" {
		return model.AirQuality{}, errors.New(resp.Error)
	}
	return resp.AirQuality, nil
}

type geoResponse struct {
	Location string `json:"location"`
	Error    string `json:"error"`
}

// ReverseGeocode 把坐标解析为地名；失败或上游报 未知位置 时返回空串。
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := fmt.Sprintf("%s/geo?lat=%v&lon=%v&key=%s", c.base, lat, lon, url.QueryEscape(c.key))
	var resp geoResponse
	if err := c.cl.GetJSON(ctx, q, nil, &resp); err != nil {
		return "", fmt.Errorf("逆地理编码失败: %w", err)
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	if resp.Location == "" || resp.Location == "未知位置" {
		return "", nil
	}
	return resp.Location, nil
}
