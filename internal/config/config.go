package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件/.env 无法读取或解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	FileName = "moviepicker.json5"

	DefaultURL            = "https://www.imdb.com/chart/moviemeter"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
	DefaultTimeoutSeconds = 20
	DefaultOutput         = "movies.csv"
	DefaultLogLevel       = "warn"
)

// CLIArgs 是 CLI 可覆盖的入口，保留“是否显式指定”的信息，
// 这样 --url "" 之类的显式值也能参与优先级判断。
type CLIArgs struct {
	ConfigFile string

	URL    string
	URLSet bool

	Output    string
	OutputSet bool

	Database    string
	DatabaseSet bool

	// Verbose 强制 debug 日志级别。
	Verbose bool
}

// FileConfig 对应 moviepicker.json5（以及 moviepicker.local.json5）的解析结构。
type FileConfig struct {
	URL              string            `json:"url"`
	UserAgent        string            `json:"user_agent"`
	Headers          map[string]string `json:"headers"`
	TimeoutSeconds   int               `json:"timeout_seconds"`
	Proxy            ProxyConfig       `json:"proxy"`
	CloudflareBypass *bool             `json:"cloudflare_bypass"`
	Output           string            `json:"output"`
	Database         string            `json:"database"`
	CacheDir         string            `json:"cache_dir"`
	Selectors        SelectorConfig    `json:"selectors"`
	LogLevel         string            `json:"log_level"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

type SelectorConfig struct {
	Title     string `json:"title"`
	Rating    string `json:"rating"`
	Container string `json:"container"`
}

// EffectiveConfig 是合并、规范化并校验后的最终配置。
// 路径字段均为绝对路径；Database/CacheDir 为空表示关闭对应功能。
type EffectiveConfig struct {
	URL              string            `json:"url" validate:"required,http_url"`
	UserAgent        string            `json:"user_agent" validate:"required"`
	Headers          map[string]string `json:"headers"`
	TimeoutSeconds   int               `json:"timeout_seconds" validate:"gte=1,lte=300"`
	ProxyURL         string            `json:"proxy.url" validate:"omitempty,url"`
	CloudflareBypass bool              `json:"cloudflare_bypass"`
	Output           string            `json:"output" validate:"required"`
	Database         string            `json:"database"`
	CacheDir         string            `json:"cache_dir"`
	Selectors        SelectorConfig    `json:"selectors"`
	LogLevel         string            `json:"log_level" validate:"oneof=panic fatal error warn warning info debug trace"`

	// Sources 记录实际参与合并的配置来源（文件路径），仅用于诊断日志。
	Sources []string `json:"-"`
}

func (c EffectiveConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s: config file %q not found", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s: %v", e.Code, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s: %q: %v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %q", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置，然后按固定优先级合并为最终配置。
//
// 覆盖优先级（低 -> 高）：
// 1) 内置默认值
// 2) moviepicker.json5（--config 指定时必须存在，否则可选）
// 3) moviepicker.local.json5（与 2 同目录，可选）
// 4) <cwd>/.env（可选）
// 5) 进程环境变量 MOVIEPICKER_*
// 6) CLI 参数
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	required := false
	if strings.TrimSpace(cli.ConfigFile) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigFile)
		required = true
	}

	fc, sources, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if required && len(sources) == 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath}
	}

	env, envFile, err := readEnv(cwdAbs)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envFile, Err: err}
	}
	if envFile != "" {
		sources = append(sources, envFile)
	}
	applyEnv(&fc, env)

	eff := merge(cwdAbs, cli, fc)
	eff.Sources = sources
	if err := validate(eff); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return eff, nil
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig) EffectiveConfig {
	eff := EffectiveConfig{
		URL:              DefaultURL,
		UserAgent:        DefaultUserAgent,
		TimeoutSeconds:   DefaultTimeoutSeconds,
		CloudflareBypass: true,
		Output:           DefaultOutput,
		LogLevel:         DefaultLogLevel,
	}

	if s := strings.TrimSpace(fc.URL); s != "" {
		eff.URL = s
	}
	if s := strings.TrimSpace(fc.UserAgent); s != "" {
		eff.UserAgent = s
	}
	if fc.TimeoutSeconds != 0 {
		eff.TimeoutSeconds = fc.TimeoutSeconds
	}
	if fc.CloudflareBypass != nil {
		eff.CloudflareBypass = *fc.CloudflareBypass
	}
	if s := strings.TrimSpace(fc.Output); s != "" {
		eff.Output = s
	}
	if s := strings.TrimSpace(fc.LogLevel); s != "" {
		eff.LogLevel = strings.ToLower(s)
	}
	eff.ProxyURL = strings.TrimSpace(fc.Proxy.URL)
	eff.Database = strings.TrimSpace(fc.Database)
	eff.CacheDir = strings.TrimSpace(fc.CacheDir)
	eff.Selectors = SelectorConfig{
		Title:     strings.TrimSpace(fc.Selectors.Title),
		Rating:    strings.TrimSpace(fc.Selectors.Rating),
		Container: strings.TrimSpace(fc.Selectors.Container),
	}
	if len(fc.Headers) > 0 {
		eff.Headers = make(map[string]string, len(fc.Headers))
		for k, v := range fc.Headers {
			eff.Headers[k] = v
		}
	}

	if cli.URLSet {
		eff.URL = strings.TrimSpace(cli.URL)
	}
	if cli.OutputSet {
		eff.Output = strings.TrimSpace(cli.Output)
	}
	if cli.DatabaseSet {
		eff.Database = strings.TrimSpace(cli.Database)
	}
	if cli.Verbose {
		eff.LogLevel = "debug"
	}

	eff.Output = absCleanFrom(cwdAbs, eff.Output)
	eff.Database = absCleanFrom(cwdAbs, eff.Database)
	eff.CacheDir = absCleanFrom(cwdAbs, eff.CacheDir)
	return eff
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute；空串保持为空。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
