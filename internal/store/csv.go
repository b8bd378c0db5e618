package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/MoviePicker/internal/domain"
	"github.com/John-Robertt/MoviePicker/internal/infra/fsx"
)

const (
	columnTitle  = "Title"
	columnRating = "Rating"
)

type csvRow struct {
	Title  string    `csv:"Title"`
	Rating csvRating `csv:"Rating"`
}

// csvRating 控制评分列的文本形式：至少一位小数（8 -> 8.0）。
type csvRating float64

func (r csvRating) MarshalCSV() (string, error) {
	return domain.FormatRating(float64(r)), nil
}

// 空单元格记为 NaN，由 Load 跳过该行；非数字文本仍是格式错误。
func (r *csvRating) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*r = csvRating(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid rating %q", s)
	}
	*r = csvRating(v)
	return nil
}

// CSV 是带表头 Title,Rating 的平面文件存储。
type CSV struct {
	Path string

	// Log 接收被跳过行的告警；nil 时使用 logrus 默认 logger。
	Log logrus.FieldLogger
}

func NewCSV(path string) *CSV { return &CSV{Path: path} }

func (s *CSV) Location() string { return s.Path }

// Save 以原子替换的方式整体覆盖目标文件。
func (s *CSV) Save(ctx context.Context, rs domain.Records) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([]csvRow, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, csvRow{Title: r.Title, Rating: csvRating(r.Rating)})
	}
	b, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	if err := fsx.WriteFileAtomic(s.Path, b); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}

// Load 读回整个文件。
//
// 文件不存在返回 ErrNotFound；空文件、缺列、评分无法解析返回 *FormatError。
// 标题或评分为空的行被跳过并记一条告警。
func (s *CSV) Load(ctx context.Context) (domain.Records, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	if err := checkHeader(b); err != nil {
		return nil, &FormatError{Path: s.Path, Err: err}
	}

	var rows []csvRow
	if err := gocsv.UnmarshalBytes(b, &rows); err != nil {
		return nil, &FormatError{Path: s.Path, Err: err}
	}
	out := make(domain.Records, 0, len(rows))
	for i, row := range rows {
		title := strings.TrimSpace(row.Title)
		rating := float64(row.Rating)
		if title == "" || math.IsNaN(rating) {
			s.logger().WithFields(logrus.Fields{"path": s.Path, "row": i + 1}).Warn("skip row with empty cell")
			continue
		}
		out = append(out, domain.MovieRecord{Title: title, Rating: rating})
	}
	return out, nil
}

func (s *CSV) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// checkHeader 要求表头同时包含 Title 与 Rating 列（允许额外列，顺序不限）。
func checkHeader(b []byte) error {
	r := csv.NewReader(bytes.NewReader(b))
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty file")
		}
		return fmt.Errorf("read header: %w", err)
	}
	seen := map[string]bool{}
	for _, h := range header {
		seen[strings.TrimSpace(h)] = true
	}
	for _, col := range []string{columnTitle, columnRating} {
		if !seen[col] {
			return fmt.Errorf("missing required column %q", col)
		}
	}
	return nil
}
