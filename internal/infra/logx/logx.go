package logx

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultLevel 是未配置 log_level 时的级别：只输出告警与错误，
// 控制台结果行走 stdout，诊断日志走 stderr，两者互不干扰。
const DefaultLevel = "warn"

// New 构造诊断日志 logger。
// level 为空时使用 DefaultLevel；无法识别的 level 返回错误（由配置校验提前拦截）。
func New(level string, w io.Writer) (*logrus.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level = strings.TrimSpace(level)
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: false,
		FullTimestamp:    true,
		TimestampFormat:  "15:04:05",
	})
	return l, nil
}

// Discard 返回丢弃全部输出的 logger（测试与未配置场景）。
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
