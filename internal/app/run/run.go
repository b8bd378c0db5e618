// Package run 编排 抓取 -> 解析 -> 落盘 -> 查询 的顺序流水线。
package run

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/MoviePicker/internal/config"
	"github.com/John-Robertt/MoviePicker/internal/domain"
	"github.com/John-Robertt/MoviePicker/internal/extract"
	"github.com/John-Robertt/MoviePicker/internal/fetch"
	"github.com/John-Robertt/MoviePicker/internal/query"
	"github.com/John-Robertt/MoviePicker/internal/store"
)

// ErrNoMovies 表示本次抓取没有得到任何可用记录（页面获取失败，或解析结果为空）。
// 此时不写任何文件；属于可恢复结果。
var ErrNoMovies = errors.New("no movies were found")

// ErrNoCachedPage 表示 --from-cache 但缓存中没有该 URL 的页面。
var ErrNoCachedPage = errors.New("no cached page")

// PageFetcher 是流水线对抓取层的最小依赖。
type PageFetcher interface {
	Fetch(ctx context.Context, req fetch.Request) (*fetch.Page, error)
}

// PageCache 是流水线对页面缓存的最小依赖。
type PageCache interface {
	ReadPage(pageURL string) ([]byte, bool, error)
	WritePage(pageURL string, html []byte) error
}

// Deps 汇集一次流水线运行所需的组件。Cache/Mirror/Observer 可为 nil。
type Deps struct {
	Fetcher  PageFetcher
	Cache    PageCache
	Store    store.Store
	Mirror   store.Store
	Log      logrus.FieldLogger
	Observer Observer
}

type Options struct {
	// FromCache 为 true 时跳过网络请求，改为解析缓存中的页面。
	FromCache bool
}

// Report 描述一次 Scrape 的结果。
type Report struct {
	URL       string
	FromCache bool

	Records domain.Records
	Skipped []extract.Skip

	TitleNodes  int
	RatingNodes int

	SavedTo []string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Scrape 执行 抓取 -> 解析 -> 落盘（CSV，可选镜像）。
//
// 返回值约定：
// - 页面获取失败或解析结果为空：ErrNoMovies（包装底层原因），不写文件
// - 写入失败：原样返回（硬错误）
func Scrape(ctx context.Context, eff config.EffectiveConfig, deps Deps, opts Options) (Report, error) {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	obs := deps.Observer

	rep := Report{URL: eff.URL, FromCache: opts.FromCache, StartedAt: time.Now().UTC()}
	if obs != nil {
		obs.OnStart(eff.URL, opts.FromCache)
	}

	page, err := obtainPage(ctx, eff, deps, opts, log)
	if err != nil {
		if obs != nil {
			obs.OnFetchFailed(eff.URL, err)
		}
		rep.FinishedAt = time.Now().UTC()
		return rep, fmt.Errorf("%w: %w", ErrNoMovies, err)
	}

	ex := extract.New(extract.Selectors{
		Title:     eff.Selectors.Title,
		Rating:    eff.Selectors.Rating,
		Container: eff.Selectors.Container,
	})
	res := ex.Extract(page.Doc)
	// Report 与落盘使用的切片互不共享。
	rep.Records = res.Records.Clone()
	rep.Skipped = res.Skipped
	rep.TitleNodes = res.TitleNodes
	rep.RatingNodes = res.RatingNodes

	if res.Mismatched() {
		log.WithFields(logrus.Fields{
			"titles":  res.TitleNodes,
			"ratings": res.RatingNodes,
		}).Warn("title/rating node counts differ; pairing may be misaligned")
	}
	for _, s := range res.Skipped {
		log.WithFields(logrus.Fields{"index": s.Index, "reason": s.Reason}).Debug("skip entry")
		if obs != nil {
			obs.OnSkipped(s)
		}
	}
	if obs != nil {
		obs.OnExtracted(len(res.Records), len(res.Skipped))
	}

	if len(res.Records) == 0 {
		rep.FinishedAt = time.Now().UTC()
		return rep, fmt.Errorf("%w: 0 records extracted from %s", ErrNoMovies, eff.URL)
	}

	for _, st := range []store.Store{deps.Store, deps.Mirror} {
		if st == nil {
			continue
		}
		if err := st.Save(ctx, res.Records); err != nil {
			rep.FinishedAt = time.Now().UTC()
			return rep, err
		}
		rep.SavedTo = append(rep.SavedTo, st.Location())
		log.WithFields(logrus.Fields{"path": st.Location(), "records": len(res.Records)}).Debug("saved")
		if obs != nil {
			obs.OnSaved(st.Location(), len(res.Records))
		}
	}

	rep.FinishedAt = time.Now().UTC()
	return rep, nil
}

func obtainPage(ctx context.Context, eff config.EffectiveConfig, deps Deps, opts Options, log logrus.FieldLogger) (*fetch.Page, error) {
	if opts.FromCache {
		if deps.Cache == nil {
			return nil, fmt.Errorf("%w: cache_dir is not configured", ErrNoCachedPage)
		}
		html, ok, err := deps.Cache.ReadPage(eff.URL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w for %s", ErrNoCachedPage, eff.URL)
		}
		return fetch.Parse(eff.URL, html)
	}

	if deps.Fetcher == nil {
		return nil, errors.New("fetcher is not configured")
	}
	page, err := deps.Fetcher.Fetch(ctx, fetch.Request{URL: eff.URL, Headers: RequestHeaders(eff)})
	if err != nil {
		return nil, err
	}
	if deps.Cache != nil {
		if err := deps.Cache.WritePage(eff.URL, page.HTML); err != nil {
			log.WithError(err).Warn("write page cache failed")
		}
	}
	return page, nil
}

// RequestHeaders 返回抓取请求头：配置的 headers 加上 User-Agent（user_agent 优先）。
func RequestHeaders(eff config.EffectiveConfig) map[string]string {
	h := make(map[string]string, len(eff.Headers)+1)
	for k, v := range eff.Headers {
		h[k] = v
	}
	for k := range h {
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			delete(h, k)
		}
	}
	h["User-Agent"] = eff.UserAgent
	return h
}

// Load 读回已保存的数据集；不存在时返回的错误满足 errors.Is(err, store.ErrNotFound)。
func Load(ctx context.Context, st store.Store) (domain.Records, error) {
	return st.Load(ctx)
}

// Query 在已加载的记录上执行过滤与排序。
func Query(rs domain.Records, p query.Params) query.Result {
	return query.Run(rs, p)
}
