package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
)

const defaultTimeout = 20 * time.Second

// Options 描述页面抓取 client 的网络策略。
type Options struct {
	// Headers 是每个请求的默认头（请求自身已设置的同名头优先）。
	Headers map[string]string
	// ProxyURL 非空时所有请求走代理，且禁用 keep-alive。
	ProxyURL string
	// Timeout 是单次请求的总超时；<=0 时使用 20s。
	Timeout time.Duration
	// CloudflareBypass 为 true 时在底层 transport 外包一层浏览器指纹（TLS + 常见头）。
	CloudflareBypass bool
}

// Transport 把“默认请求头 + 可选浏览器指纹”固化为统一策略。
//
// 约束：不做重试、不做限速；一次 RoundTrip 就是一次网络请求。
type Transport struct {
	Base *http.Transport

	// Headers 在请求缺少同名头时补齐。
	Headers http.Header

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	DisableKeepAlives bool

	next http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	next := t.next
	if next == nil {
		if t.Base == nil {
			return nil, errors.New("nil base transport")
		}
		next = t.Base
	}

	// Clone：不污染调用方的 request。
	r := req.Clone(req.Context())
	for k, vs := range t.Headers {
		if r.Header.Get(k) != "" {
			continue
		}
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return next.RoundTrip(r)
}

// NewClient 构造页面抓取用的 HTTP client。
//
// 规则：
// - proxyURL 非空：必须走代理，且禁用 keep-alive（每请求新连接）
// - 默认头由 Transport 统一补齐（User-Agent 必须由配置提供）
// - 总超时由 http.Client.Timeout 保证
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	disableKeepAlives := false
	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy url must be absolute: " + proxyURL)
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	tr := &Transport{
		Base:              base,
		Headers:           toHeader(opts.Headers),
		DisableKeepAlives: disableKeepAlives,
		next:              base,
	}
	if opts.CloudflareBypass {
		// 只补缺失头，不覆盖配置里的 User-Agent。
		tr.next = cloudflarebp.AddCloudFlareByPass(base)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

func toHeader(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		h.Set(k, v)
	}
	return h
}
