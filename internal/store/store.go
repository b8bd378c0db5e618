// Package store 负责把记录序列整体落盘与整体读回。
//
// 写入总是覆盖（不做增量），读回保持写入时的顺序。
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/John-Robertt/MoviePicker/internal/domain"
)

// ErrNotFound 表示数据集尚不存在（例如从未抓取成功过）。属于可恢复结果。
var ErrNotFound = errors.New("dataset not found")

// Store 是持久化后端的统一接口。
type Store interface {
	Save(ctx context.Context, rs domain.Records) error
	Load(ctx context.Context) (domain.Records, error)
	// Location 返回面向用户展示的位置（文件路径）。
	Location() string
}

// FormatError 表示已存在的数据集内容无法解析（硬错误）。
type FormatError struct {
	Path string
	Row  int // 1-based 数据行号；0 表示与具体行无关
	Err  error
}

func (e *FormatError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("malformed dataset %s (row %d): %v", e.Path, e.Row, e.Err)
	}
	return fmt.Sprintf("malformed dataset %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
