package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// 5xx 按配置重试；4xx 重试没有意义，立即返回。
func TestDoRetryPolicy(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cl, err := New(Options{Retry: 2})
	if err != nil {
		t.Fatal(err)
	}
	_, err = cl.Get(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 502 {
		t.Fatalf("err = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("5xx 应重试到上限，请求 %d 次", got)
	}

	calls.Store(0)
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv2.Close()
	if _, err := cl.Get(context.Background(), srv2.URL); err == nil {
		t.Fatal("4xx 应返回错误")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("4xx 不应重试，请求 %d 次", got)
	}
}

func TestDoRecoversAfterFailure(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cl, err := New(Options{Retry: 1})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := cl.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("重试后应成功：%v", err)
	}
	resp.Body.Close()
}

func TestGetJSONHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Token"); got != "abc" {
			t.Errorf("X-Token = %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("应带 User-Agent")
		}
		json.NewEncoder(w).Encode(map[string]string{"v": "1"})
	}))
	defer srv.Close()

	cl, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		V string `json:"v"`
	}
	if err := cl.GetJSON(context.Background(), srv.URL, map[string]string{"X-Token": "abc"}, &out); err != nil {
		t.Fatal(err)
	}
	if out.V != "1" {
		t.Fatalf("out = %+v", out)
	}
}

func TestPostJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer srv.Close()

	cl, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Echo string `json:"echo"`
	}
	if err := cl.PostJSON(context.Background(), srv.URL, nil, map[string]string{"msg": "你好"}, &out); err != nil {
		t.Fatal(err)
	}
	if out.Echo != "你好" {
		t.Fatalf("echo = %q", out.Echo)
	}
}
