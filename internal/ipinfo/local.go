// 包 ipinfo 负责 IP 挂件的数据获取：
// - 本机地址探测：从候选地址流中按 公网优先/内网兜底 策略选取
// - 代理出口 IP：外部 what-is-my-ip 服务
// - IP 定位：多上游按序尝试，全部失败才报错
package ipinfo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CandidateSource 产生候选地址描述流（类似 ICE candidate 行），
// 通道由实现方关闭；环境不支持时直接返回错误。
type CandidateSource interface {
	Candidates(ctx context.Context) (<-chan string, error)
}

// ErrNotSupported 表示当前环境没有可用的候选地址来源。
var ErrNotSupported = errors.New("当前环境不支持本机地址探测")

// ErrLocalTimeout 表示窗口内未发现任何可用候选。
var ErrLocalTimeout = errors.New("获取本地IP超时")

var ipv4Pattern = regexp.MustCompile(`([0-9]{1,3}(\.[0-9]{1,3}){3})`)

// ipv4From 从候选描述中提取 IPv4 字符串并校验每段在 [0,255]。
func ipv4From(candidate string) (string, bool) {
	m := ipv4Pattern.FindString(candidate)
	if m == "" {
		return "", false
	}
	parts := strings.Split(m, ".")
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return "", false
		}
	}
	return m, true
}

// isPrivate 按原始偏好策略判定内网段（172 整段视为内网）。
func isPrivate(ip string) bool {
	return strings.HasPrefix(ip, "192.168.") || strings.HasPrefix(ip, "10.") || strings.HasPrefix(ip, "172.")
}

// DiscoverLocal 在 window 窗口内消费候选地址：
// 第一个公网候选立即胜出；窗口耗尽时退回最早的内网候选；一个都没有则超时报错。
func DiscoverLocal(ctx context.Context, src CandidateSource, window time.Duration) (string, error) {
	if src == nil {
		return "", ErrNotSupported
	}
	ch, err := src.Candidates(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotSupported, err)
	}
	if window <= 0 {
		window = 8 * time.Second
	}
	timer := time.NewTimer(window)
	defer timer.Stop()

	fallback := ""
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				// 候选耗尽：不必等满窗口
				if fallback != "" {
					return fallback, nil
				}
				return "", ErrLocalTimeout
			}
			ip, valid := ipv4From(c)
			if !valid {
				continue
			}
			if !isPrivate(ip) {
				return ip, nil
			}
			if fallback == "" {
				fallback = ip
			}
		case <-timer.C:
			if fallback != "" {
				return fallback, nil
			}
			return "", ErrLocalTimeout
		case <-ctx.Done():
			if fallback != "" {
				return fallback, nil
			}
			return "", ctx.Err()
		}
	}
}

// NetSource 为默认候选来源：枚举网卡地址，并用一次 UDP 拨号
// 取出口本地地址作为额外候选（不会真正发包）。
type NetSource struct{}

func (NetSource) Candidates(ctx context.Context) (<-chan string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil && len(addrs) == 0 {
		return nil, err
	}
	out := make(chan string, len(addrs)+1)
	go func() {
		defer close(out)
		if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
			out <- conn.LocalAddr().String()
			conn.Close()
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() || ipNet.IP.To4() == nil {
				continue
			}
			select {
			case out <- ipNet.IP.String():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
