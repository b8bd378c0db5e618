package run

import (
	"github.com/John-Robertt/MoviePicker/internal/extract"
)

// Observer 把流水线的阶段事件从核心流程中解耦出来。
//
// 约束：run 包只负责发事件，不做任何输出；控制台文案由 CLI 的实现决定。
// 流水线是单线程顺序执行的，事件按发生顺序同步回调。
type Observer interface {
	// OnStart 在开始获取页面前调用；fromCache 表示本次从页面缓存读取。
	OnStart(url string, fromCache bool)
	// OnFetchFailed 在页面获取失败时调用（之后流水线以 ErrNoMovies 结束）。
	OnFetchFailed(url string, err error)
	// OnSkipped 对每条被丢弃的 (标题, 评分) 配对调用一次。
	OnSkipped(s extract.Skip)
	// OnExtracted 在解析完成后调用。
	OnExtracted(records, skipped int)
	// OnSaved 在每个存储写入成功后调用（CSV 在前，镜像在后）。
	OnSaved(location string, records int)
}
