package weather

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-notion-nav/internal/fetch"
	"go-notion-nav/internal/model"
)

func testClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	cl, err := fetch.New(fetch.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(cl, srvURL, "k")
}

func TestCityWeatherOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("city"); got != "杭州" {
			t.Errorf("city = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"location": "杭州", "temp": "26", "text": "多云", "icon": "104",
			"tempMin": "22", "tempMax": "30",
		})
	}))
	defer srv.Close()

	got, err := testClient(t, srv.URL).CityWeather(context.Background(), "杭州")
	if err != nil {
		t.Fatal(err)
	}
	if got.Location != "杭州" || got.Temp != "26" || got.Text != "多云" {
		t.Fatalf("结果 = %+v", got)
	}
}

func TestCityWeatherNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).CityWeather(context.Background(), "不存在的城市")
	var nf *CityNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("404 应映射为 CityNotFoundError，got %v", err)
	}
	if nf.Error() != "找不到城市 不存在的城市 的天气数据" {
		t.Fatalf("错误文案 = %q", nf.Error())
	}
}

func TestCityWeatherStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).CityWeather(context.Background(), "杭州")
	if err == nil || err.Error() != "天气数据获取失败 - HTTP状态码: 403" {
		t.Fatalf("错误文案 = %v", err)
	}
}

func TestCityWeatherUpstreamErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "配额用尽"})
	}))
	defer srv.Close()

	if _, err := testClient(t, srv.URL).CityWeather(context.Background(), "杭州"); err == nil || err.Error() != "配额用尽" {
		t.Fatalf("错误字段应透传，got %v", err)
	}
}

// 有坐标按坐标查，无坐标按地名查。
func TestAirQualityQueryShape(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]string{"aqi": "42", "category": "优"})
	}))
	defer srv.Close()
	cl := testClient(t, srv.URL)
	ctx := context.Background()

	air, err := cl.AirQuality(ctx, "杭州", &model.Coords{Lat: 30.25, Lon: 120.16})
	if err != nil {
		t.Fatal(err)
	}
	if air.AQI != "42" {
		t.Fatalf("AQI = %q", air.AQI)
	}
	if want := "lat=30.25&lon=120.16&key=k"; gotQuery != want {
		t.Fatalf("坐标查询 = %q, want %q", gotQuery, want)
	}

	if _, err := cl.AirQuality(ctx, "杭州", nil); err != nil {
		t.Fatal(err)
	}
	if want := "location=%E6%9D%AD%E5%B7%9E&key=k"; gotQuery != want {
		t.Fatalf("地名查询 = %q, want %q", gotQuery, want)
	}
}

func TestReverseGeocodeUnusable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"location": "未知位置"})
	}))
	defer srv.Close()

	name, err := testClient(t, srv.URL).ReverseGeocode(context.Background(), 30, 120)
	if err != nil {
		t.Fatal(err)
	}
	if name != "" {
		t.Fatalf("未知位置应归一化为空串，got %q", name)
	}
}
