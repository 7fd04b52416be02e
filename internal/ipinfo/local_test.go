package ipinfo

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedSource 按脚本吐出候选地址。
type scriptedSource struct {
	candidates []string
	err        error
}

func (s scriptedSource) Candidates(context.Context) (<-chan string, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan string, len(s.candidates))
	for _, c := range s.candidates {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func TestIPv4From(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"candidate:1 1 udp 2122260223 203.0.113.7 54400 typ host", "203.0.113.7", true},
		{"192.168.1.10/24", "192.168.1.10", true},
		{"没有地址", "", false},
		{"999.1.1.1", "", false},
	}
	for _, c := range cases {
		got, ok := ipv4From(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ipv4From(%q) = %q/%v, want %q/%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestIsPrivate(t *testing.T) {
	for ip, want := range map[string]bool{
		"192.168.1.2": true,
		"10.0.0.5":    true,
		"172.16.0.1":  true,
		"203.0.113.7": false,
		"8.8.8.8":     false,
	} {
		if got := isPrivate(ip); got != want {
			t.Errorf("isPrivate(%s) = %v, want %v", ip, got, want)
		}
	}
}

// 第一个公网候选立即胜出，即使内网候选先到。
func TestDiscoverLocalPrefersPublic(t *testing.T) {
	src := scriptedSource{candidates: []string{
		"192.168.1.10", "无效候选", "203.0.113.7", "198.51.100.3",
	}}
	ip, err := DiscoverLocal(context.Background(), src, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if ip != "203.0.113.7" {
		t.Fatalf("应优先公网地址，got %s", ip)
	}
}

// 只有内网候选时，候选耗尽即回退最早的内网地址，不必等满窗口。
func TestDiscoverLocalPrivateFallback(t *testing.T) {
	src := scriptedSource{candidates: []string{"192.168.1.10", "10.0.0.5"}}
	start := time.Now()
	ip, err := DiscoverLocal(context.Background(), src, 8*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if ip != "192.168.1.10" {
		t.Fatalf("应回退最早的内网地址，got %s", ip)
	}
	if time.Since(start) > time.Second {
		t.Fatal("候选耗尽后不应等满窗口")
	}
}

func TestDiscoverLocalTimeout(t *testing.T) {
	src := scriptedSource{candidates: []string{"无效候选"}}
	_, err := DiscoverLocal(context.Background(), src, time.Second)
	if !errors.Is(err, ErrLocalTimeout) {
		t.Fatalf("无可用候选应报超时，got %v", err)
	}
}

func TestDiscoverLocalNotSupported(t *testing.T) {
	if _, err := DiscoverLocal(context.Background(), nil, time.Second); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("nil 来源应报不支持，got %v", err)
	}
	src := scriptedSource{err: errors.New("boom")}
	if _, err := DiscoverLocal(context.Background(), src, time.Second); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("来源初始化失败应报不支持，got %v", err)
	}
}
