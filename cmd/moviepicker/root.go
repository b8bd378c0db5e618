package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/MoviePicker/internal/config"
	"github.com/John-Robertt/MoviePicker/internal/infra/logx"
)

type rootFlags struct {
	configFile string
	url        string
	output     string
	database   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "moviepicker",
		Short: "Scrape a movie ranking page, save it to CSV and pick movies by title keyword and rating.",
		Long: `moviepicker scrapes a movie ranking page (IMDb "Most Popular Movies" by default),
saves the (title, rating) pairs to a CSV file and suggests movies whose title
contains a keyword and whose rating is at least a threshold.

Without a subcommand it behaves like "moviepicker run".`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "config file (default ./"+config.FileName+", optional)")
	pf.StringVar(&f.url, "url", "", "ranking page URL (default "+config.DefaultURL+")")
	pf.StringVar(&f.output, "output", "", "CSV file to write and read (default "+config.DefaultOutput+")")
	pf.StringVar(&f.database, "database", "", "optional SQLite file mirroring the CSV dataset")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging to stderr")

	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(newRunCmd(f), newScrapeCmd(f), newQueryCmd(f))
	return root
}

// usageArgs 把位置参数校验失败标记为用法错误（退出码 2）。
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func (f *rootFlags) cliArgs(cmd *cobra.Command) config.CLIArgs {
	fl := cmd.Flags()
	return config.CLIArgs{
		ConfigFile:  f.configFile,
		URL:         f.url,
		URLSet:      fl.Changed("url"),
		Output:      f.output,
		OutputSet:   fl.Changed("output"),
		Database:    f.database,
		DatabaseSet: fl.Changed("database"),
		Verbose:     f.verbose,
	}
}

// session 是一次命令执行的上下文：最终配置 + 诊断 logger + 控制台输出。
type session struct {
	eff config.EffectiveConfig
	log *logrus.Logger
	cmd *cobra.Command
}

func (f *rootFlags) open(cmd *cobra.Command) (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	eff, err := config.LoadEffective(cwd, f.cliArgs(cmd))
	if err != nil {
		return nil, err
	}
	log, err := logx.New(eff.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}
	log.WithFields(logrus.Fields{
		"sources": eff.Sources,
		"url":     eff.URL,
		"output":  eff.Output,
	}).Debug("config loaded")
	return &session{eff: eff, log: log, cmd: cmd}, nil
}

func newRunCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scrape, save, reload and interactively query (the whole pipeline)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, f)
		},
	}
}

// runScript 是完整流程：抓取 -> 保存 -> 读回 -> 交互查询。
// 没抓到数据时只输出提示，不进入查询。
func runScript(cmd *cobra.Command, f *rootFlags) error {
	s, err := f.open(cmd)
	if err != nil {
		return err
	}
	ok, err := s.scrape(false)
	if err != nil || !ok {
		return err
	}
	return s.queryStep(s.csvStore(), newPrompter(cmd.InOrStdin()), queryInput{})
}
