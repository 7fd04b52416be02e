package ipinfo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// 两侧状态独立：本机探测失败不影响代理侧结果。
func TestWidgetIndependentSides(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"ip": "203.0.113.7", "city": "杭州", "country_name": "中国",
		})
	}))
	defer srv.Close()

	cl := testFetch(t)
	lookup := NewLookup(cl, []Provider{{Name: "p", URL: srv.URL + "/%s"}})
	// 本机侧不支持，代理侧正常
	w := NewWidget(cl, lookup, nil, time.Second, srv.URL)
	w.Refresh(context.Background())

	local, proxy := w.State()
	if local.Error == "" || local.Info.IP != "未获取到" {
		t.Fatalf("本机侧 = %+v", local)
	}
	if proxy.Error != "" || proxy.Info.IP != "203.0.113.7" {
		t.Fatalf("代理侧 = %+v", proxy)
	}
	if proxy.Info.Location != "杭州, 中国" {
		t.Fatalf("代理侧定位 = %q", proxy.Info.Location)
	}
}

func TestWidgetLocalSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"ip": "198.51.100.3", "city": "上海", "country_name": "中国"})
	}))
	defer srv.Close()

	cl := testFetch(t)
	lookup := NewLookup(cl, []Provider{{Name: "p", URL: srv.URL + "/%s"}})
	src := scriptedSource{candidates: []string{"203.0.113.9"}}
	w := NewWidget(cl, lookup, src, time.Second, srv.URL)
	w.Refresh(context.Background())

	local, _ := w.State()
	if local.Error != "" || local.Info.IP != "203.0.113.9" {
		t.Fatalf("本机侧 = %+v", local)
	}
	if local.Info.Location != "上海, 中国" {
		t.Fatalf("本机侧定位 = %q", local.Info.Location)
	}
}
