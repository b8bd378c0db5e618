package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const envPrefix = "MOVIEPICKER_"

// 支持通过环境变量覆盖的字段（不含前缀）。
const (
	envURL       = "URL"
	envUserAgent = "USER_AGENT"
	envOutput    = "OUTPUT"
	envDatabase  = "DATABASE"
	envProxyURL  = "PROXY_URL"
	envLogLevel  = "LOG_LEVEL"
)

var envKeys = []string{envURL, envUserAgent, envOutput, envDatabase, envProxyURL, envLogLevel}

// readEnv 合并 <cwd>/.env 与进程环境变量（进程环境变量优先）。
// 只返回非空的 MOVIEPICKER_* 值；envFile 为实际读取的 .env 路径（不存在则为空）。
func readEnv(cwdAbs string) (vals map[string]string, envFile string, err error) {
	path := filepath.Join(cwdAbs, ".env")
	dotenv := map[string]string{}
	if _, statErr := os.Stat(path); statErr == nil {
		dotenv, err = godotenv.Read(path)
		if err != nil {
			return nil, path, err
		}
		envFile = path
	}

	vals = make(map[string]string, len(envKeys))
	for _, k := range envKeys {
		name := envPrefix + k
		if v, ok := os.LookupEnv(name); ok && v != "" {
			vals[k] = v
			continue
		}
		if v := dotenv[name]; v != "" {
			vals[k] = v
		}
	}
	return vals, envFile, nil
}

func applyEnv(fc *FileConfig, env map[string]string) {
	if v, ok := env[envURL]; ok {
		fc.URL = v
	}
	if v, ok := env[envUserAgent]; ok {
		fc.UserAgent = v
	}
	if v, ok := env[envOutput]; ok {
		fc.Output = v
	}
	if v, ok := env[envDatabase]; ok {
		fc.Database = v
	}
	if v, ok := env[envProxyURL]; ok {
		fc.Proxy.URL = v
	}
	if v, ok := env[envLogLevel]; ok {
		fc.LogLevel = v
	}
}
