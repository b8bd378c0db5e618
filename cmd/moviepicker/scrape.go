package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/MoviePicker/internal/app/run"
)

func newScrapeCmd(f *rootFlags) *cobra.Command {
	var fromCache bool
	cmd := &cobra.Command{
		Use:   "scrape [--from-cache]",
		Short: "Fetch the ranking page, extract movies and save them (no query)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			_, err = s.scrape(fromCache)
			return err
		},
	}
	cmd.Flags().BoolVar(&fromCache, "from-cache", false, "re-extract the page saved under cache_dir instead of fetching it")
	return cmd
}

// scrape 执行抓取与落盘。ok=false 表示没抓到数据（已输出提示，不算错误）。
func (s *session) scrape(fromCache bool) (ok bool, err error) {
	opts := run.Options{FromCache: fromCache}
	deps, err := run.NewDeps(s.eff, opts, s.log)
	if err != nil {
		return false, err
	}
	deps.Observer = newConsole(s.cmd.OutOrStdout(), s.eff.Output, s.log)

	rep, err := run.Scrape(s.cmd.Context(), s.eff, deps, opts)
	if errors.Is(err, run.ErrNoMovies) {
		s.log.WithError(err).Debug("scrape produced no movies")
		fmt.Fprintln(s.cmd.OutOrStdout(), "No movies were found or an error occurred.")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.log.WithField("elapsed", rep.FinishedAt.Sub(rep.StartedAt)).Debug("scrape done")
	return true, nil
}
