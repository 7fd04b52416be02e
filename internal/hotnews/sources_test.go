package hotnews

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"go-notion-nav/internal/config"
	"go-notion-nav/internal/fetch"
)

func testFetch(t *testing.T) *fetch.Client {
	t.Helper()
	cl, err := fetch.New(fetch.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return cl
}

func TestFormatHot(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"热", "热"},
		{float64(532), "532"},
		{float64(68000), "6.8万"},
		{float64(230000000), "2.3亿"},
	}
	for _, c := range cases {
		if got := formatHot(c.in); got != c.want {
			t.Errorf("formatHot(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAPISource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"code": 200,
			"data": []map[string]any{
				{"title": "头条", "url": "https://example.com/1", "hot": 1234567.0},
				{"title": "", "url": "https://example.com/2"},
				{"title": "只有移动端", "mobileUrl": "https://m.example.com/3"},
			},
		})
	}))
	defer srv.Close()

	src := &apiSource{spec: config.HotSource{Platform: "weibo", Name: "微博", URL: srv.URL}, cl: testFetch(t)}
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("无标题条目应被丢弃，got %d 条", len(items))
	}
	if items[0].Views != "123.5万" || items[0].Platform != "weibo" {
		t.Fatalf("条目 = %+v", items[0])
	}
	if items[1].URL != "https://m.example.com/3" {
		t.Fatalf("应回退 mobileUrl，got %q", items[1].URL)
	}
}

func TestAPISourceErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 500})
	}))
	defer srv.Close()

	src := &apiSource{spec: config.HotSource{Platform: "x", URL: srv.URL}, cl: testFetch(t)}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("上游错误码应返回错误")
	}
}

func TestPageSource(t *testing.T) {
	page := `<html><body>
	  <div class="item"><a href="/t/1">标题一</a><span class="num">99万</span></div>
	  <div class="item"><a href="https://other.example.com/t/2">标题二</a></div>
	  <div class="item"><a href="/t/3"></a></div>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	src := &pageSource{spec: config.HotSource{
		Platform: "board", URL: srv.URL,
		Item: ".item", Title: "a", Link: "a@href", Views: ".num",
	}, cl: testFetch(t)}
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("空标题应被丢弃，got %d 条", len(items))
	}
	if items[0].Title != "标题一" || items[0].Views != "99万" {
		t.Fatalf("条目 = %+v", items[0])
	}
	if items[0].URL != srv.URL+"/t/1" {
		t.Fatalf("相对链接应绝对化，got %q", items[0].URL)
	}
	if items[1].URL != "https://other.example.com/t/2" {
		t.Fatalf("绝对链接应原样保留，got %q", items[1].URL)
	}
}

func TestFeedSource(t *testing.T) {
	rss := `<?xml version="1.0"?><rss version="2.0"><channel><title>榜单</title>
	  <item><title>条目A</title><link>https://example.com/a</link></item>
	  <item><title>条目B</title><link>https://example.com/b</link></item>
	</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rss))
	}))
	defer srv.Close()

	src := &feedSource{spec: config.HotSource{Platform: "rsshub", URL: srv.URL}, cl: testFetch(t)}
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Title != "条目A" {
		t.Fatalf("feed 条目 = %+v", items)
	}
}

// 选择器表达式："||" 多方案回退、"@attr" 取属性、"." 取当前项文本。
func TestGetVal(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div class="row" data-id="7"><a href="/x">链接</a><em>42</em></div>`))
	if err != nil {
		t.Fatal(err)
	}
	row := doc.Find(".row")

	cases := []struct {
		expr string
		want string
	}{
		{"a", "链接"},
		{"a@href", "/x"},
		{"@data-id", "7"},
		{".missing||em", "42"},
		{".missing", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := getVal(row, c.expr); got != c.want {
			t.Errorf("getVal(%q) = %q, want %q", c.expr, got, c.want)
		}
	}
}
