// Package extract 把榜单页面的文档树解析为 (标题, 评分) 记录序列。
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/MoviePicker/internal/domain"
)

const (
	DefaultTitleSelector  = "a.ipc-title-link-wrapper"
	DefaultRatingSelector = "span.sc-b189961a-1.kcRAsW"
)

// Selectors 描述如何在页面中定位标题与评分节点。
//
// Container 为空：标题与评分各自独立选择，按下标配对（截断到较短的一侧）。
// Container 非空：在每个容器内分别取第一个标题与第一个评分配对，
// 避免某条目缺评分时后续条目整体错位。
type Selectors struct {
	Title     string
	Rating    string
	Container string
}

func DefaultSelectors() Selectors {
	return Selectors{Title: DefaultTitleSelector, Rating: DefaultRatingSelector}
}

type SkipReason string

const (
	SkipEmptyTitle SkipReason = "empty_title"
	SkipNoRating   SkipReason = "no_rating"
	SkipBadRating  SkipReason = "bad_rating"
)

// Skip 记录一条被丢弃的配对（单条失败不影响其余记录）。
type Skip struct {
	Index      int // 配对下标（从 0 开始）
	Title      string
	RatingText string
	Reason     SkipReason
	Err        error
}

// Message 返回面向用户的一行说明。
func (s Skip) Message() string {
	switch s.Reason {
	case SkipNoRating:
		return fmt.Sprintf("Could not find a valid rating for movie '%s'.", s.Title)
	case SkipBadRating:
		return fmt.Sprintf("Could not convert rating '%s' for movie '%s' to a float.", matchedRating(s.RatingText), s.Title)
	case SkipEmptyTitle:
		return fmt.Sprintf("Skipped entry #%d: empty title.", s.Index+1)
	default:
		return fmt.Sprintf("Skipped entry #%d.", s.Index+1)
	}
}

// Result 是一次解析的完整输出。
type Result struct {
	Records domain.Records
	Skipped []Skip

	// TitleNodes / RatingNodes 是两次独立选择命中的节点数（容器模式下为容器内命中数）。
	TitleNodes  int
	RatingNodes int
}

// Mismatched 报告标题与评分节点数量是否不一致（按位置配对时意味着可能错位）。
func (r Result) Mismatched() bool { return r.TitleNodes != r.RatingNodes }

// Extractor 是纯函数式解析器：相同文档 => 相同输出。
type Extractor struct {
	Selectors Selectors
}

// New 用给定选择器构造 Extractor；空字段回退到默认值。
func New(sel Selectors) Extractor {
	def := DefaultSelectors()
	if strings.TrimSpace(sel.Title) == "" {
		sel.Title = def.Title
	}
	if strings.TrimSpace(sel.Rating) == "" {
		sel.Rating = def.Rating
	}
	sel.Container = strings.TrimSpace(sel.Container)
	return Extractor{Selectors: sel}
}

// Extract 解析文档；doc 为 nil 时返回空结果。输出顺序即文档节点顺序。
func (e Extractor) Extract(doc *goquery.Document) Result {
	if doc == nil {
		return Result{}
	}
	if e.Selectors.Container != "" {
		return e.extractByContainer(doc)
	}
	return e.extractPositional(doc)
}

func (e Extractor) extractPositional(doc *goquery.Document) Result {
	titles := doc.Find(e.Selectors.Title)
	ratings := doc.Find(e.Selectors.Rating)

	res := Result{
		TitleNodes:  titles.Length(),
		RatingNodes: ratings.Length(),
	}
	n := min(res.TitleNodes, res.RatingNodes)
	res.Records = make(domain.Records, 0, n)
	for i := 0; i < n; i++ {
		title := titles.Eq(i).Text()
		rating := ratings.Eq(i).Text()
		res.add(i, title, rating)
	}
	return res
}

func (e Extractor) extractByContainer(doc *goquery.Document) Result {
	var res Result
	doc.Find(e.Selectors.Container).Each(func(i int, c *goquery.Selection) {
		t := c.Find(e.Selectors.Title).First()
		r := c.Find(e.Selectors.Rating).First()
		if t.Length() > 0 {
			res.TitleNodes++
		}
		if r.Length() > 0 {
			res.RatingNodes++
		}
		res.add(i, t.Text(), r.Text())
	})
	return res
}

func (r *Result) add(i int, rawTitle, ratingText string) {
	title := strings.TrimSpace(rawTitle)
	if title == "" {
		r.Skipped = append(r.Skipped, Skip{Index: i, RatingText: ratingText, Reason: SkipEmptyTitle})
		return
	}
	rating, err := ParseRating(ratingText)
	if err != nil {
		reason := SkipBadRating
		if errors.Is(err, ErrNoRating) {
			reason = SkipNoRating
		}
		r.Skipped = append(r.Skipped, Skip{Index: i, Title: title, RatingText: ratingText, Reason: reason, Err: err})
		return
	}
	r.Records = append(r.Records, domain.MovieRecord{Title: title, Rating: rating})
}

var ratingRE = regexp.MustCompile(`\d+\.\d+`)

// ErrNoRating 表示文本中找不到形如 8.5 的小数。
var ErrNoRating = errors.New("no decimal rating in text")

// ParseRating 取文本中第一个 `\d+\.\d+` 子串并转换为 float64。
// 只有整数（例如 "9"）不算有效评分。
func ParseRating(text string) (float64, error) {
	m := ratingRE.FindString(text)
	if m == "" {
		return 0, ErrNoRating
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("convert %q: %w", m, err)
	}
	return v, nil
}

func matchedRating(text string) string {
	if m := ratingRE.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}
