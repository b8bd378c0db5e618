package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/MoviePicker/internal/app/run"
	"github.com/John-Robertt/MoviePicker/internal/config"
	"github.com/John-Robertt/MoviePicker/internal/query"
	"github.com/John-Robertt/MoviePicker/internal/store"
)

const (
	promptGenre     = "Enter a genre to get movie suggestions: "
	promptMinRating = "Enter the minimum rating (e.g., 7.5): "
)

// queryInput 记录哪些查询参数已由 flag 给出；未给出的交互询问。
type queryInput struct {
	genre    string
	genreSet bool

	minRating    string
	minRatingSet bool
}

func newQueryCmd(f *rootFlags) *cobra.Command {
	var (
		in     queryInput
		fromDB bool
	)
	cmd := &cobra.Command{
		Use:   "query [--genre g] [--min-rating r] [--db]",
		Short: "Query the saved dataset; prompts for anything not given by flags",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			in.genreSet = cmd.Flags().Changed("genre")
			in.minRatingSet = cmd.Flags().Changed("min-rating")

			st := s.csvStore()
			if fromDB {
				if s.eff.Database == "" {
					return &config.Error{Code: config.ErrCodeInvalid, Err: errors.New("--db needs a database (--database, MOVIEPICKER_DATABASE or config database)")}
				}
				st = store.NewSQLite(s.eff.Database)
			}
			return s.queryStep(st, newPrompter(cmd.InOrStdin()), in)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&in.genre, "genre", "", "case-insensitive title substring (empty matches all)")
	fl.StringVar(&in.minRating, "min-rating", "", "minimum rating, inclusive (e.g. 7.5)")
	fl.BoolVar(&fromDB, "db", false, "read the SQLite mirror instead of the CSV file")
	return cmd
}

func (s *session) csvStore() store.Store { return &store.CSV{Path: s.eff.Output, Log: s.log} }

// queryStep 读回数据集并执行一次查询。
// 数据集不存在、评分输入无效都只输出提示；格式损坏的数据集是硬错误。
func (s *session) queryStep(st store.Store, p *prompter, in queryInput) error {
	out := s.cmd.OutOrStdout()

	rs, err := run.Load(s.cmd.Context(), st)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(out, "File %s not found.\n", st.Location())
		return nil
	}
	if err != nil {
		return err
	}
	s.log.WithField("records", len(rs)).Debug("dataset loaded")

	genre := in.genre
	if !in.genreSet {
		if genre, err = p.ask(out, promptGenre); err != nil {
			return err
		}
	}
	genre = strings.TrimSpace(genre)

	ratingText := in.minRating
	if !in.minRatingSet {
		if ratingText, err = p.ask(out, promptMinRating); err != nil {
			return err
		}
	}
	minRating, err := query.ParseMinRating(ratingText)
	if err != nil {
		s.log.WithError(err).Debug("invalid min rating")
		fmt.Fprintln(out, query.InvalidRatingMessage)
		return nil
	}

	printResult(out, run.Query(rs, query.Params{Genre: genre, MinRating: minRating}))
	return nil
}

// prompter 逐行读取交互输入。输入提前结束（EOF）按空行处理。
type prompter struct {
	r *bufio.Reader
}

func newPrompter(r io.Reader) *prompter {
	return &prompter{r: bufio.NewReader(r)}
}

func (p *prompter) ask(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := p.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if errors.Is(err, io.EOF) {
		// 非交互输入没有结尾换行时，补一个换行让后续输出另起一行。
		fmt.Fprintln(w)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
