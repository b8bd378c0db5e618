package config

import (
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// localPath 把 <dir>/<name>.<ext> 变为 <dir>/<name>.local.<ext>。
func localPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+".local"+ext)
}

// readFileConfig 读取主配置文件与同目录的 .local 覆盖文件并合并。
// 两个文件都是可选的；sources 返回实际读到的文件。
func readFileConfig(path string) (fc FileConfig, sources []string, err error) {
	base, ok, err := readJSON5(path)
	if err != nil {
		return FileConfig{}, nil, err
	}
	if ok {
		fc = base
		sources = append(sources, path)
	}

	lp := localPath(path)
	override, ok, err := readJSON5(lp)
	if err != nil {
		return FileConfig{}, nil, err
	}
	if ok {
		if err := mergo.Merge(&fc, override, mergo.WithOverride); err != nil {
			return FileConfig{}, nil, err
		}
		// mergo 不会用零值覆盖：显式 false 需要单独处理。
		if override.CloudflareBypass != nil {
			v := *override.CloudflareBypass
			fc.CloudflareBypass = &v
		}
		sources = append(sources, lp)
	}
	return fc, sources, nil
}

func readJSON5(path string) (FileConfig, bool, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, false, nil
		}
		return fc, false, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return fc, true, nil
	}
	if err := json5.Unmarshal(b, &fc); err != nil {
		return fc, true, err
	}
	return fc, true, nil
}
