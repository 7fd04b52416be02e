package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const minimal = `
NOTION:
  token: "secret_x"
  links_db_id: "links"
  config_db_id: "cfg"
`

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatal(err)
	}
	if c.HTTP.Address != ":8080" {
		t.Errorf("address = %q", c.HTTP.Address)
	}
	if c.Site.PinTag != "力荐👍" {
		t.Errorf("pin_tag = %q", c.Site.PinTag)
	}
	if c.Weather.DefaultCity != "杭州" {
		t.Errorf("default_city = %q", c.Weather.DefaultCity)
	}
	if c.Notion.RevalidateMins != 720 {
		t.Errorf("revalidate = %d", c.Notion.RevalidateMins)
	}
	if c.HotNews.CacheMins != 15 || c.HotNews.RotateSecs != 30 {
		t.Errorf("hot_news 缺省 = %d/%d", c.HotNews.CacheMins, c.HotNews.RotateSecs)
	}
	if c.IPLookup.LocalTimeout != 8 || c.IPLookup.FallbackIP != "8.8.8.8" {
		t.Errorf("ip_lookup 缺省 = %d/%s", c.IPLookup.LocalTimeout, c.IPLookup.FallbackIP)
	}
	if len(c.IPLookup.Providers) != 2 || c.IPLookup.Providers[0].Name != "ipapi.co" {
		t.Errorf("providers 缺省 = %+v", c.IPLookup.Providers)
	}
	if c.Database.Type != "sqlite" || c.Database.DSN != "./data.db" {
		t.Errorf("database 缺省 = %+v", c.Database)
	}
}

func TestLoadMissingToken(t *testing.T) {
	_, err := Load(writeConfig(t, `
NOTION:
  links_db_id: "links"
  config_db_id: "cfg"
`))
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("缺 token 应报错，got %v", err)
	}
}

func TestLoadHotSourceValidation(t *testing.T) {
	_, err := Load(writeConfig(t, minimal+`
HOT_NEWS:
  sources:
    - platform: weibo
      url: "https://example.com"
      type: "unknown"
`))
	if err == nil || !strings.Contains(err.Error(), "unsupported type") {
		t.Fatalf("未知抓取类型应报错，got %v", err)
	}

	c, err := Load(writeConfig(t, minimal+`
HOT_NEWS:
  sources:
    - platform: weibo
      url: "https://example.com"
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.HotNews.Sources[0].Type != "api" {
		t.Fatalf("缺省类型 = %q", c.HotNews.Sources[0].Type)
	}
}

func TestLoadUnsupportedDatabase(t *testing.T) {
	_, err := Load(writeConfig(t, minimal+`
DATABASE:
  type: "mysql"
`))
	if err == nil || !strings.Contains(err.Error(), "unsupported database type") {
		t.Fatalf("不支持的数据库类型应报错，got %v", err)
	}
}
