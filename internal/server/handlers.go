package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go-notion-nav/internal/model"
	"go-notion-nav/internal/weather"
)

// ---- 内容 ----

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Content.Assemble(r.Context(), r.URL.Query().Get("force") == "true")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap.Links)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Content.Assemble(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap.Categories)
}

func (s *Server) handleSiteConfig(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Content.Assemble(r.Context(), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap.Config)
}

// ---- 天气 ----

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeError(w, http.StatusBadRequest, "缺少 city 参数")
		return
	}
	data, err := s.opts.Weather.CityWeather(r.Context(), city)
	if err != nil {
		var nf *weather.CityNotFoundError
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, nf.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleAir(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var coords *model.Coords
	if q.Get("lat") != "" && q.Get("lon") != "" {
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
		if errLat != nil || errLon != nil {
			writeError(w, http.StatusBadRequest, "坐标格式错误")
			return
		}
		coords = &model.Coords{Lat: lat, Lon: lon}
	}
	location := strings.TrimSpace(q.Get("location"))
	if coords == nil && location == "" {
		writeError(w, http.StatusBadRequest, "缺少 location 或坐标参数")
		return
	}
	air, err := s.opts.Weather.AirQuality(r.Context(), location, coords)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, air)
}

func (s *Server) handleGeo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, "坐标格式错误")
		return
	}
	name, err := s.opts.Weather.ReverseGeocode(r.Context(), lat, lon)
	if err != nil || name == "" {
		writeJSON(w, http.StatusOK, map[string]string{"location": "未知位置"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"location": name})
}

// handleWeatherIP 按访问方 IP 定位：保留地址换用演示 IP，
// 全部上游失败才报 500，并带 未知位置 兜底字段。
func (s *Server) handleWeatherIP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if ip == "" || isReserved(ip) {
		ip = s.opts.FallbackIP
	}
	res, err := s.opts.Lookup.Geolocate(r.Context(), ip)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":    err.Error(),
			"location": "未知位置",
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- 天气挂件 ----

func (s *Server) handleWeatherWidget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.WeatherWidget.State())
}

func (s *Server) handleWeatherRefresh(w http.ResponseWriter, r *http.Request) {
	s.opts.WeatherWidget.Refresh(r.Context())
	writeJSON(w, http.StatusOK, s.opts.WeatherWidget.State())
}

func (s *Server) handleWeatherCity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		City string `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.City) == "" {
		writeError(w, http.StatusBadRequest, "缺少 city 字段")
		return
	}
	s.opts.WeatherWidget.SetCity(r.Context(), strings.TrimSpace(body.City))
	writeJSON(w, http.StatusOK, s.opts.WeatherWidget.State())
}

// handleWeatherForgetCity 清除记住的城市，恢复自动定位。
func (s *Server) handleWeatherForgetCity(w http.ResponseWriter, r *http.Request) {
	s.opts.WeatherWidget.ClearCity(r.Context())
	writeJSON(w, http.StatusOK, s.opts.WeatherWidget.State())
}

// handleWeatherLocate 接收浏览器上报的坐标并据此定位加载。
func (s *Server) handleWeatherLocate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Lat == nil || body.Lon == nil {
		writeError(w, http.StatusBadRequest, "缺少 lat/lon 字段")
		return
	}
	s.opts.WeatherWidget.LoadCoords(r.Context(), model.Coords{Lat: *body.Lat, Lon: *body.Lon}, false)
	writeJSON(w, http.StatusOK, s.opts.WeatherWidget.State())
}

// ---- 热榜 ----

func (s *Server) handleHotNews(w http.ResponseWriter, r *http.Request) {
	feed, err := s.opts.Hot.Feed(r.Context(), r.URL.Query().Get("force") == "true")
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	trimmed := model.HotFeed{}
	for k, items := range feed {
		if n := s.opts.MaxPerBoard; n > 0 && len(items) > n {
			items = items[:n]
		}
		trimmed[k] = items
	}
	if p := r.URL.Query().Get("platform"); p != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"platform": p,
			"items":    trimmed[p],
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"platforms": s.opts.Hot.Platforms(),
		"active":    s.opts.Rotator.Active(),
		"feed":      trimmed,
	})
}

func (s *Server) handleHotActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Platform == "" {
		writeError(w, http.StatusBadRequest, "缺少 platform 字段")
		return
	}
	s.opts.Rotator.Select(body.Platform)
	writeJSON(w, http.StatusOK, map[string]string{"active": s.opts.Rotator.Active()})
}

// ---- IP 挂件 ----

func (s *Server) handleIPWidget(w http.ResponseWriter, r *http.Request) {
	local, proxy := s.opts.IPWidget.State()
	writeJSON(w, http.StatusOK, map[string]any{"local": local, "proxy": proxy})
}

func (s *Server) handleIPRefresh(w http.ResponseWriter, r *http.Request) {
	s.opts.IPWidget.Refresh(r.Context())
	local, proxy := s.opts.IPWidget.State()
	writeJSON(w, http.StatusOK, map[string]any{"local": local, "proxy": proxy})
}

// clientIP 取访问方 IP：X-Forwarded-For 首项 > X-Real-IP > RemoteAddr。
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// isReserved 判定保留地址（回环/内网/链路本地），这类地址定位无意义。
func isReserved(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified()
}
