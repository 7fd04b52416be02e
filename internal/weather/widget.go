package weather

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go-notion-nav/internal/cache"
	"go-notion-nav/internal/logx"
	"go-notion-nav/internal/model"
)

// CityStore 持久化用户显式选择的城市；缺失表示走自动定位。
type CityStore interface {
	StoredCity(ctx context.Context) (string, error)
	StoreCity(ctx context.Context, city string) error
	ForgetCity(ctx context.Context) error
}

// State 为天气挂件对 UI 暴露的状态。
type State struct {
	Data       *model.WeatherData `json:"data,omitempty"`
	City       string             `json:"city"`
	Loading    bool               `json:"loading"`
	Refreshing bool               `json:"refreshing"`
	Error      string             `json:"error,omitempty"`
}

// WidgetOptions 为挂件构造参数。
type WidgetOptions struct {
	DefaultCity string
	Refresh     time.Duration // 周期刷新间隔，亦为按城市缓存窗口
	Coords      CoordsFunc    // 可为 nil（无浏览器坐标来源）
	IPLocate    func(ctx context.Context) (model.Location, error)
	Cities      CityStore // 可为 nil
	Now         cache.Clock
}

// Widget 编排天气加载：定位→并发抓取天气与空气质量→合并。
// 序号守卫保证迟到的旧结果不会覆盖新状态。
type Widget struct {
	cl       *Client
	resolver *Resolver
	cities   CityStore
	refresh  time.Duration
	gate     *cache.Gate

	mu    sync.Mutex
	state State
	seq   atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewWidget 创建天气挂件。
func NewWidget(cl *Client, opts WidgetOptions) *Widget {
	if opts.DefaultCity == "" {
		opts.DefaultCity = "杭州"
	}
	if opts.Refresh <= 0 {
		opts.Refresh = 30 * time.Minute
	}
	ipLocate := opts.IPLocate
	if ipLocate == nil {
		ipLocate = func(context.Context) (model.Location, error) { return model.Location{}, ErrNoCoords }
	}
	resolver := NewResolver(opts.DefaultCity,
		GeoStrategy(opts.Coords, cl.ReverseGeocode),
		IPStrategy(ipLocate),
	)
	return &Widget{
		cl:       cl,
		resolver: resolver,
		cities:   opts.Cities,
		refresh:  opts.Refresh,
		gate:     cache.NewGate(opts.Refresh, opts.Now),
		state:    State{City: opts.DefaultCity},
		stop:     make(chan struct{}),
	}
}

// State 返回当前状态副本。
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Load 加载天气：city 为 "auto" 或空时走解析链，否则按城市直查并记住选择。
func (w *Widget) Load(ctx context.Context, city string, force bool) {
	seq := w.seq.Add(1)
	auto := city == "" || city == "auto"
	w.begin(auto)

	var loc model.Location
	if auto {
		loc = w.resolver.Resolve(ctx)
	} else {
		loc = model.Location{Name: city}
		if w.cities != nil {
			if err := w.cities.StoreCity(ctx, city); err != nil {
				logx.Warnf("记住城市失败：%v", err)
			}
		}
	}
	w.fetch(ctx, seq, loc, force)
}

// LoadCoords 用浏览器上报的坐标定位：逆地理编码可用则优先采用该地点，
// 否则沿既有解析链回落（IP 定位、默认城市）。
func (w *Widget) LoadCoords(ctx context.Context, c model.Coords, force bool) {
	seq := w.seq.Add(1)
	w.begin(true)

	coords := func(context.Context) (model.Coords, error) { return c, nil }
	chain := append([]Strategy{GeoStrategy(coords, w.cl.ReverseGeocode)}, w.resolver.strategies...)
	loc := NewResolver(w.resolver.defaultCity, chain...).Resolve(ctx)
	w.fetch(ctx, seq, loc, force)
}

func (w *Widget) begin(refreshing bool) {
	w.mu.Lock()
	w.state.Loading = true
	w.state.Refreshing = refreshing
	w.state.Error = ""
	w.mu.Unlock()
}

// fetch 按已定位的地点抓取并提交状态。
func (w *Widget) fetch(ctx context.Context, seq uint64, loc model.Location, force bool) {
	// 同城市且仍在窗口内：直接保留现有数据
	w.mu.Lock()
	if w.state.Data != nil && w.gate.FreshFor(loc.Name, force) {
		w.state.Loading = false
		w.state.Refreshing = false
		w.state.City = loc.Name
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	// 天气与空气质量并发抓取；空气质量失败不阻塞
	var (
		wg   sync.WaitGroup
		data model.WeatherData
		wErr error
		air  model.AirQuality
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		data, wErr = w.cl.CityWeather(ctx, loc.Name)
	}()
	go func() {
		defer wg.Done()
		a, err := w.cl.AirQuality(ctx, loc.Name, loc.Coords)
		if err != nil {
			logx.Debugf("空气质量不可用：%v", err)
			return
		}
		air = a
	}()
	wg.Wait()

	if wErr != nil {
		w.commit(seq, State{City: loc.Name, Error: wErr.Error()})
		return
	}
	data.Merge(air)
	w.gate.TouchFor(loc.Name)
	w.commit(seq, State{City: loc.Name, Data: &data})
}

// commit 仅当 seq 仍为最新时写入状态，丢弃被更新请求超越的结果。
func (w *Widget) commit(seq uint64, st State) {
	if seq != w.seq.Load() {
		logx.Debugf("丢弃过期的天气结果：seq=%d", seq)
		return
	}
	w.mu.Lock()
	w.state = st
	w.mu.Unlock()
}

// Refresh 手动刷新：重新走自动定位并强制抓取。
func (w *Widget) Refresh(ctx context.Context) { w.Load(ctx, "auto", true) }

// SetCity 切换到指定城市。
func (w *Widget) SetCity(ctx context.Context, city string) { w.Load(ctx, city, false) }

// ClearCity 清除记住的城市并立即重新自动定位；
// 门闸一并失效，保证偏好变化后必然重抓。
func (w *Widget) ClearCity(ctx context.Context) {
	if w.cities != nil {
		if err := w.cities.ForgetCity(ctx); err != nil {
			logx.Warnf("清除记住的城市失败：%v", err)
		}
	}
	w.gate.Reset()
	w.Load(ctx, "auto", false)
}

// Start 执行首次加载并启动周期刷新；用 Stop 确定性停表。
func (w *Widget) Start(ctx context.Context) {
	w.loadStored(ctx)
	go func() {
		ticker := time.NewTicker(w.refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.loadStored(ctx)
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// loadStored 按记住的城市加载，没有记住的城市则自动定位。
func (w *Widget) loadStored(ctx context.Context) {
	city := ""
	if w.cities != nil {
		c, err := w.cities.StoredCity(ctx)
		if err != nil {
			logx.Warnf("读取记住的城市失败：%v", err)
		} else {
			city = c
		}
	}
	if city != "" {
		w.Load(ctx, city, false)
		return
	}
	w.Load(ctx, "auto", false)
}

// Stop 停止周期刷新。
func (w *Widget) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}
