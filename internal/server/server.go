// 包 server 提供 HTTP 入口：路由、中间件与 JSON API。
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"go-notion-nav/internal/content"
	"go-notion-nav/internal/hotnews"
	"go-notion-nav/internal/ipinfo"
	"go-notion-nav/internal/logx"
	"go-notion-nav/internal/weather"
)

// Options 汇集各业务服务，均由 main 装配注入。
type Options struct {
	Content       *content.Service
	Weather       *weather.Client
	WeatherWidget *weather.Widget
	Lookup        *ipinfo.Lookup
	IPWidget      *ipinfo.Widget
	Hot           *hotnews.Service
	Rotator       *hotnews.Rotator

	FallbackIP  string // 保留地址访问时用于演示定位的公网 IP
	MaxPerBoard int    // 单平台热榜最多返回条数
}

// Server 为 HTTP 服务。
type Server struct {
	opts   Options
	router *mux.Router
}

// New 创建服务并注册全部路由。
func New(opts Options) *Server {
	s := &Server{opts: opts, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/links", s.handleLinks).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/site-config", s.handleSiteConfig).Methods(http.MethodGet)

	api.HandleFunc("/weather", s.handleWeather).Methods(http.MethodGet)
	api.HandleFunc("/weather/air", s.handleAir).Methods(http.MethodGet)
	api.HandleFunc("/weather/geo", s.handleGeo).Methods(http.MethodGet)
	api.HandleFunc("/weather/ip", s.handleWeatherIP).Methods(http.MethodGet)

	api.HandleFunc("/widget/weather", s.handleWeatherWidget).Methods(http.MethodGet)
	api.HandleFunc("/widget/weather/refresh", s.handleWeatherRefresh).Methods(http.MethodPost)
	api.HandleFunc("/widget/weather/city", s.handleWeatherCity).Methods(http.MethodPost)
	api.HandleFunc("/widget/weather/city", s.handleWeatherForgetCity).Methods(http.MethodDelete)
	api.HandleFunc("/widget/weather/locate", s.handleWeatherLocate).Methods(http.MethodPost)

	api.HandleFunc("/hot-news", s.handleHotNews).Methods(http.MethodGet)
	api.HandleFunc("/hot-news/active", s.handleHotActive).Methods(http.MethodPost)

	api.HandleFunc("/ip-widget", s.handleIPWidget).Methods(http.MethodGet)
	api.HandleFunc("/ip-widget/refresh", s.handleIPRefresh).Methods(http.MethodPost)

	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
}

// Handler 返回带中间件（崩溃恢复 + 访问日志）的最终处理器。
func (s *Server) Handler() http.Handler {
	n := negroni.New(negroni.NewRecovery(), accessLog())
	n.UseHandler(s.router)
	return n
}

// Run 启动 HTTP 服务并阻塞到 ctx 取消，随后优雅退出。
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logx.Infof("HTTP 服务启动：%s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}

// accessLog 为 negroni 风格的访问日志中间件，走统一日志出口。
func accessLog() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		start := time.Now()
		rw := negroni.NewResponseWriter(w)
		next(rw, r)
		logx.Debugf("%s %s %d %s", r.Method, r.URL.Path, rw.Status(), time.Since(start))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warnf("写响应失败：%v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
