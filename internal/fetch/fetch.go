// Package fetch 负责“一次 GET + 解析为 HTML 文档树”，不做重试、不做缓存。
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Request 是一次抓取的全部输入：目标 URL 与请求头（必须含 User-Agent）。
type Request struct {
	URL     string
	Headers map[string]string
}

// Page 是抓取成功的结果：原始 HTML（用于缓存）与可遍历的文档树。
type Page struct {
	URL  string
	HTML []byte
	Doc  *goquery.Document
}

// Fetcher 基于 resty 发起页面请求；网络策略（代理/超时/默认头）由传入的 http.Client 决定。
type Fetcher struct {
	client *resty.Client
	log    logrus.FieldLogger
}

// New 构造 Fetcher。hc 为 nil 时使用 http.DefaultClient（仅测试场景）。
func New(hc *http.Client, log *logrus.Logger) *Fetcher {
	if hc == nil {
		hc = http.DefaultClient
	}
	rc := resty.NewWithClient(hc)
	if log != nil {
		rc.SetLogger(log)
	}
	f := &Fetcher{client: rc}
	if log != nil {
		f.log = log
	} else {
		f.log = logrus.StandardLogger()
	}
	return f
}

// Fetch 执行一次阻塞 GET。
//
// 规则：
// - 2xx：解析 body 为 HTML 并返回 Page
// - 网络失败 / 非 2xx / body 无法解析：返回 (nil, *Error)，错误信息包含底层原因
// - 不重试；重定向沿用 http.Client 默认行为
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Page, error) {
	u := strings.TrimSpace(req.URL)
	if u == "" {
		return nil, &Error{URL: req.URL, Err: errors.New("url is empty")}
	}
	if !hasHeader(req.Headers, "User-Agent") {
		// 目标站点会拦截默认客户端标识，缺 UA 直接视为调用错误。
		return nil, &Error{URL: u, Err: errors.New("User-Agent header is required")}
	}

	f.log.WithField("url", u).Debug("fetching page")
	res, err := f.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		Get(u)
	if err != nil {
		return nil, &Error{URL: u, Err: err}
	}
	if !res.IsSuccess() {
		return nil, &Error{URL: u, Err: &HTTPStatusError{
			URL:        u,
			StatusCode: res.StatusCode(),
			Location:   res.Header().Get("Location"),
		}}
	}
	f.log.WithFields(logrus.Fields{
		"url":    u,
		"status": res.StatusCode(),
		"bytes":  len(res.Body()),
		"took":   res.Time(),
	}).Debug("page fetched")

	p, err := Parse(u, res.Body())
	if err != nil {
		return nil, &Error{URL: u, Err: err}
	}
	return p, nil
}

// Parse 把已有的 HTML 字节构造为 Page（缓存重放与测试复用）。
func Parse(pageURL string, html []byte) (*Page, error) {
	if len(bytes.TrimSpace(html)) == 0 {
		return nil, errors.New("empty response body")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{URL: pageURL, HTML: html, Doc: doc}, nil
}

func hasHeader(h map[string]string, name string) bool {
	for k, v := range h {
		if strings.EqualFold(strings.TrimSpace(k), name) && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
