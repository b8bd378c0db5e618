package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute 运行 CLI 并返回退出码：
// 0 = 正常结束（包括“没抓到数据”“文件不存在”“评分输入无效”这类可恢复结果）
// 1 = 硬错误（配置错误、CSV 格式损坏、写盘失败）
// 2 = 用法错误（未知命令/参数）
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "Error: %v\n", ue.err)
		fmt.Fprintln(stderr, `Run "moviepicker --help" for usage.`)
		return 2
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
