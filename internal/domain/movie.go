package domain

import (
	"strconv"
	"strings"
)

// MovieRecord 是一次抓取得到的单条（标题, 评分）记录。
//
// 约束：
// - Title 已 trim 且非空
// - Rating 约定在 0.0–10.0，但不做范围校验（来源是页面文本）
type MovieRecord struct {
	Title  string
	Rating float64
}

// Records 是按抓取顺序排列的记录序列（不保证有序）。
type Records []MovieRecord

// Clone 返回一份独立拷贝，避免调用方共享底层数组。
func (rs Records) Clone() Records {
	if rs == nil {
		return nil
	}
	return append(Records(nil), rs...)
}

// FormatRating 把评分格式化为“至少一位小数”的文本：8 -> "8.0"，7.25 -> "7.25"。
// CSV 落盘与控制台输出共用该格式，保证 round-trip 后数值相等。
func FormatRating(r float64) string {
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		// 已有小数点；或 NaN/Inf 这类特殊值，原样返回。
		return s
	}
	return s + ".0"
}
