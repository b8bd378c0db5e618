package cache

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/MoviePicker/internal/infra/fsx"
)

// Store 把抓取到的原始页面 HTML 缓存在 <Dir>/pages/ 下，
// 便于站点结构变化时离线重放解析（scrape --from-cache）。
//
// 约束：
// - 只缓存“最近一次”抓取结果：同一 URL 整体覆盖
// - ReadOnly=true 时禁止写入
type Store struct {
	Dir      string
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(dir string, readOnly bool) Store {
	return Store{
		Dir:      filepath.Clean(strings.TrimSpace(dir)),
		ReadOnly: readOnly,
	}
}

// PagePath 返回 pageURL 对应缓存文件的路径。
func (s Store) PagePath(pageURL string) (string, error) {
	key, err := pageKey(pageURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, "pages", key+".html"), nil
}

// ReadPage 读取缓存；不存在时 ok=false 且 err=nil。
func (s Store) ReadPage(pageURL string) ([]byte, bool, error) {
	path, err := s.PagePath(pageURL)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s Store) WritePage(pageURL string, html []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	path, err := s.PagePath(pageURL)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(path, html)
}

var unsafeKeyRE = regexp.MustCompile(`[^a-z0-9._-]+`)

// pageKey 把 URL 规整为文件名：host + path，非法字符替换为 '_'（避免路径穿越）。
func pageKey(pageURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("cache: url has no host: %q", pageURL)
	}
	raw := strings.ToLower(u.Host + u.Path)
	if u.RawQuery != "" {
		raw += "_" + strings.ToLower(u.RawQuery)
	}
	key := strings.Trim(unsafeKeyRE.ReplaceAllString(raw, "_"), "._")
	if key == "" {
		return "", fmt.Errorf("cache: empty key for %q", pageURL)
	}
	return key, nil
}
