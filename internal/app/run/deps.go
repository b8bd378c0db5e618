package run

import (
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/MoviePicker/internal/config"
	"github.com/John-Robertt/MoviePicker/internal/fetch"
	"github.com/John-Robertt/MoviePicker/internal/infra/cache"
	"github.com/John-Robertt/MoviePicker/internal/infra/httpx"
	"github.com/John-Robertt/MoviePicker/internal/store"
)

// NewDeps 按最终配置组装流水线依赖（不含 Observer）。
//
// - http client：代理/超时/默认头/可选浏览器指纹
// - cache_dir 非空时启用页面缓存；opts.FromCache 时只读打开
// - database 非空时启用 SQLite 镜像
func NewDeps(eff config.EffectiveConfig, opts Options, log *logrus.Logger) (Deps, error) {
	hc, err := httpx.NewClient(httpx.Options{
		Headers:          eff.Headers,
		ProxyURL:         eff.ProxyURL,
		Timeout:          eff.Timeout(),
		CloudflareBypass: eff.CloudflareBypass,
	})
	if err != nil {
		return Deps{}, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}

	d := Deps{
		Fetcher: fetch.New(hc, log),
		Store:   &store.CSV{Path: eff.Output, Log: log},
		Log:     log,
	}
	if eff.CacheDir != "" {
		d.Cache = cache.New(eff.CacheDir, opts.FromCache)
	}
	if eff.Database != "" {
		d.Mirror = store.NewSQLite(eff.Database)
	}
	return d, nil
}
