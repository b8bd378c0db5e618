package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
}

// clearEnv 避免宿主机上的 MOVIEPICKER_* 干扰测试。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(envPrefix+k, "")
	}
}

func TestLoadEffective_Defaults(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.URL != DefaultURL || eff.UserAgent != DefaultUserAgent {
		t.Fatalf("默认 URL/UA 不符合预期：%+v", eff)
	}
	if eff.Timeout() != 20*time.Second {
		t.Fatalf("期望 timeout=20s，实际=%v", eff.Timeout())
	}
	if eff.Output != filepath.Join(cwd, DefaultOutput) {
		t.Fatalf("期望 output 相对 cwd 解析，实际=%q", eff.Output)
	}
	if !eff.CloudflareBypass {
		t.Fatalf("期望 cloudflare_bypass 默认开启")
	}
	if eff.Database != "" || eff.CacheDir != "" {
		t.Fatalf("期望 database/cache_dir 默认关闭：%+v", eff)
	}
	if eff.LogLevel != DefaultLogLevel {
		t.Fatalf("期望 log_level=%q，实际=%q", DefaultLogLevel, eff.LogLevel)
	}
	if len(eff.Sources) != 0 {
		t.Fatalf("无配置文件时 Sources 应为空：%v", eff.Sources)
	}
}

func TestLoadEffective_JSON5AndLocalOverride(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{
  // 主配置
  url: "https://example.test/chart",
  timeout_seconds: 30,
  cloudflare_bypass: true,
  headers: { "Accept-Language": "en-US", "X-A": "1" },
  selectors: { container: "li.item" },
}`))
	writeFile(t, filepath.Join(cwd, "moviepicker.local.json5"), []byte(`{
  cloudflare_bypass: false,
  output: "data/out.csv",
  headers: { "X-A": "2" },
}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	require.NoError(t, err)
	require.Equal(t, "https://example.test/chart", eff.URL)
	require.Equal(t, 30, eff.TimeoutSeconds)
	require.False(t, eff.CloudflareBypass)
	require.Equal(t, filepath.Join(cwd, "data", "out.csv"), eff.Output)
	require.Equal(t, map[string]string{"Accept-Language": "en-US", "X-A": "2"}, eff.Headers)
	require.Equal(t, "li.item", eff.Selectors.Container)
	require.Len(t, eff.Sources, 2)
}

func TestLoadEffective_EnvAndDotenv(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{url: "https://file.test/"}`))
	writeFile(t, filepath.Join(cwd, ".env"), []byte("MOVIEPICKER_URL=https://dotenv.test/\nMOVIEPICKER_DATABASE=movies.db\nMOVIEPICKER_LOG_LEVEL=info\n"))
	t.Setenv("MOVIEPICKER_LOG_LEVEL", "error")

	eff, err := LoadEffective(cwd, CLIArgs{})
	require.NoError(t, err)
	require.Equal(t, "https://dotenv.test/", eff.URL)
	require.Equal(t, filepath.Join(cwd, "movies.db"), eff.Database)
	require.Equal(t, "error", eff.LogLevel, "进程环境变量应优先于 .env")
}

func TestLoadEffective_CLIOverridesEverything(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{url: "https://file.test/", database: "a.db", log_level: "error"}`))
	t.Setenv("MOVIEPICKER_OUTPUT", "env.csv")

	eff, err := LoadEffective(cwd, CLIArgs{
		URL: "http://cli.test/x", URLSet: true,
		Output: "cli.csv", OutputSet: true,
		Database: "", DatabaseSet: true,
		Verbose: true,
	})
	require.NoError(t, err)
	require.Equal(t, "http://cli.test/x", eff.URL)
	require.Equal(t, filepath.Join(cwd, "cli.csv"), eff.Output)
	require.Empty(t, eff.Database, "--database \"\" 应能关闭配置文件里的镜像")
	require.Equal(t, "debug", eff.LogLevel)
}

func TestLoadEffective_ExplicitConfigMissing(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{ConfigFile: "custom.json5"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ExplicitConfigUsed(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "conf", "custom.json5"), []byte(`{output: "x.csv"}`))

	eff, err := LoadEffective(cwd, CLIArgs{ConfigFile: filepath.Join("conf", "custom.json5")})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cwd, "x.csv"), eff.Output)
}

func TestLoadEffective_InvalidFile(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_ValidationErrors(t *testing.T) {
	cases := map[string]struct {
		file string
		want string
	}{
		"bad scheme": {`{url: "ftp://x.test/"}`, "url must be an http(s) URL"},
		"timeout":    {`{timeout_seconds: 301}`, "timeout_seconds must be less than or equal to 300"},
		"negative":   {`{timeout_seconds: -1}`, "timeout_seconds must be greater than or equal to 1"},
		"log level":  {`{log_level: "loud"}`, "log_level must be one of"},
		"proxy":      {`{proxy: {url: "not a url"}}`, "proxy.url must be a valid URL"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, FileName), []byte(c.file))

			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Fatalf("错误信息应包含 %q，实际=%q", c.want, err.Error())
			}
		})
	}
}

func TestLoadEffective_EmptyURLFromCLI(t *testing.T) {
	clearEnv(t)
	_, err := LoadEffective(t.TempDir(), CLIArgs{URL: " ", URLSet: true})
	require.Equal(t, ErrCodeInvalid, Code(err))
	require.Contains(t, err.Error(), "url is required")
}

func TestLocalPath(t *testing.T) {
	got := localPath(filepath.Join("a", "moviepicker.json5"))
	require.Equal(t, filepath.Join("a", "moviepicker.local.json5"), got)
}
