package weather

import (
	"context"
	"errors"
	"time"

	"go-notion-nav/internal/logx"
	"go-notion-nav/internal/model"
)

// Strategy 为定位链中的一步：返回位置或错误，错误仅用于推进到下一步。
type Strategy struct {
	Name    string
	Resolve func(ctx context.Context) (model.Location, error)
}

// Resolver 按序尝试各策略；全部失败时回退默认城市（因此整体不可能失败）。
type Resolver struct {
	strategies  []Strategy
	defaultCity string
}

// NewResolver 创建解析链。
func NewResolver(defaultCity string, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, defaultCity: defaultCity}
}

// Resolve 逐个尝试策略，每步自行吞错并推进；不向调用方暴露中间失败。
func (r *Resolver) Resolve(ctx context.Context) model.Location {
	for _, s := range r.strategies {
		loc, err := s.Resolve(ctx)
		if err != nil {
			logx.Debugf("定位策略 %s 失败：%v", s.Name, err)
			continue
		}
		if loc.Name == "" {
			continue
		}
		return loc
	}
	return model.Location{Name: r.defaultCity}
}

// CoordsFunc 获取一组坐标（对应浏览器定位授权）；
// 服务端无浏览器环境时返回错误即可，链会自动走 IP 定位。
type CoordsFunc func(ctx context.Context) (model.Coords, error)

// ErrNoCoords 表示当前环境拿不到坐标。
var ErrNoCoords = errors.New("geolocation not available")

// GeoStrategy 组合坐标获取与逆地理编码：
// 坐标获取限时 10 秒；地名不可用（空或 未知位置）时本步失败，交由下一步。
func GeoStrategy(coords CoordsFunc, geocode func(ctx context.Context, lat, lon float64) (string, error)) Strategy {
	return Strategy{
		Name: "geolocation",
		Resolve: func(ctx context.Context) (model.Location, error) {
			if coords == nil {
				return model.Location{}, ErrNoCoords
			}
			cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			c, err := coords(cctx)
			if err != nil {
				return model.Location{}, err
			}
			name, err := geocode(ctx, c.Lat, c.Lon)
			if err != nil {
				return model.Location{}, err
			}
			if name == "" {
				return model.Location{}, errors.New("逆地理编码未返回可用地名")
			}
			return model.Location{Name: name, Coords: &c}, nil
		},
	}
}

// IPStrategy 基于 IP 定位服务解析位置。
func IPStrategy(lookup func(ctx context.Context) (model.Location, error)) Strategy {
	return Strategy{
		Name: "ip",
		Resolve: func(ctx context.Context) (model.Location, error) {
			loc, err := lookup(ctx)
			if err != nil {
				return model.Location{}, err
			}
			if loc.Name == "" || loc.Name == "未知位置" {
				return model.Location{}, errors.New("IP 定位未返回可用地名")
			}
			return loc, nil
		},
	}
}
