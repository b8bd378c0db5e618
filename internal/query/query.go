// Package query 对已加载的记录做“标题子串 + 最低评分”过滤并按评分降序排列。
package query

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/John-Robertt/MoviePicker/internal/domain"
)

// ErrInvalidRating 表示用户输入的最低评分无法解析为数字。
var ErrInvalidRating = errors.New("please enter a valid number for the rating")

// InvalidRatingMessage 是 ErrInvalidRating 面向用户的提示文本。
const InvalidRatingMessage = "Please enter a valid number for the rating."

// Params 是一次查询的参数。Genre 为空时匹配全部标题。
//
// “genre” 只是标题子串：没有真正的类型分类。
type Params struct {
	Genre     string
	MinRating float64
}

// Result 是查询输出：Records 已按评分降序（同分保持输入顺序）。
type Result struct {
	Params  Params
	Records domain.Records
}

func (r Result) Empty() bool { return len(r.Records) == 0 }

// Summary 返回结果表上方的一行说明；无结果时即为完整提示。
func (r Result) Summary() string {
	if r.Empty() {
		return fmt.Sprintf("No movies found for the given genre '%s' with rating >= %s.", r.Params.Genre, domain.FormatRating(r.Params.MinRating))
	}
	return fmt.Sprintf("Movies found for genre '%s' with rating >= %s:", r.Params.Genre, domain.FormatRating(r.Params.MinRating))
}

// Run 执行过滤与排序；不修改输入。
func Run(rs domain.Records, p Params) Result {
	needle := strings.ToLower(p.Genre)
	out := make(domain.Records, 0, len(rs))
	for _, r := range rs {
		if !strings.Contains(strings.ToLower(r.Title), needle) {
			continue
		}
		if r.Rating < p.MinRating {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return Result{Params: p, Records: out}
}

// ParseMinRating 解析用户输入的最低评分。空白会被去掉；不做范围校验。
func ParseMinRating(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, ErrInvalidRating
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return v, nil
}
