package ipinfo

import (
	"context"
	"sync"
	"time"

	"go-notion-nav/internal/fetch"
	"go-notion-nav/internal/model"
)

// Side 为挂件单侧（本机/代理）的独立状态：允许一侧成功一侧失败。
type Side struct {
	Info    model.IPInfo `json:"info"`
	Error   string       `json:"error,omitempty"`
	Loading bool         `json:"loading"`
}

// Widget 并发执行本机与代理出口两路 IP 发现，并各自附加定位。
type Widget struct {
	cl       *fetch.Client
	lookup   *Lookup
	src      CandidateSource
	window   time.Duration
	publicIP string

	mu    sync.Mutex
	local Side
	proxy Side
}

// NewWidget 创建 IP 挂件。
func NewWidget(cl *fetch.Client, lookup *Lookup, src CandidateSource, window time.Duration, publicIPURL string) *Widget {
	return &Widget{cl: cl, lookup: lookup, src: src, window: window, publicIP: publicIPURL}
}

// Refresh 重新发现两路 IP；两路并发且状态独立。
func (w *Widget) Refresh(ctx context.Context) {
	w.mu.Lock()
	w.local = Side{Loading: true}
	w.proxy = Side{Loading: true}
	w.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		side := Side{}
		ip, err := DiscoverLocal(ctx, w.src, w.window)
		if err != nil {
			side.Error = err.Error()
			side.Info = model.IPInfo{IP: "未获取到", Location: "未获取到"}
		} else {
			side.Info = model.IPInfo{IP: ip, Location: w.lookup.Enrich(ctx, ip)}
		}
		w.mu.Lock()
		w.local = side
		w.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		side := Side{}
		ip, err := DiscoverProxy(ctx, w.cl, w.publicIP)
		if err != nil {
			side.Error = err.Error()
			side.Info = model.IPInfo{IP: "未获取到", Location: "未获取到"}
		} else {
			side.Info = model.IPInfo{IP: ip, Location: w.lookup.Enrich(ctx, ip)}
		}
		w.mu.Lock()
		w.proxy = side
		w.mu.Unlock()
	}()
	wg.Wait()
}

// State 返回两侧状态副本。
func (w *Widget) State() (local, proxy Side) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.local, w.proxy
}
